/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package rendezvous creates the local-socket meeting point the
// requestor connects to, and the cache directory it lives under.
package rendezvous

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrMediationTimeout is returned by Accept when the requestor does not
// connect before the deadline: a mediation timeout, not a crash.
var ErrTamperDetected = errors.New("requestor cache directory is tampered")
var ErrMediationTimeout = errors.New("timed out waiting for requestor")

// backlogSize matches the source: exactly one pending connection is ever
// expected, since exactly one requestor answers exactly one request.
const backlogSize = 1

// PrepareCacheDir creates dir if missing (permission bits 0770, less the
// process umask; an existing dir keeps its mode) and chowns it to
// uid:gid, matching the mkdir+chown precondition before the socket is
// created. A flock on a sentinel file inside the parent serializes
// concurrent su invocations racing to create the same cache directory;
// the source has no equivalent because it never runs two su processes
// against the same requestor concurrently in practice, but a mkdir+chown
// pair split across two racing processes is not atomic, so this
// component adds the guard.
func PrepareCacheDir(dir string, uid, gid uint32) error {
	lockPath := dir + ".lock"
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()

	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}
	if err := os.Chown(dir, int(uid), int(gid)); err != nil {
		return err
	}
	return nil
}

// SocketPath builds the per-invocation rendezvous socket path under the
// requestor's cache directory.
func SocketPath(cacheDir string, pid int) string {
	return fmt.Sprintf("%s/.socket%d", cacheDir, pid)
}

// Listener is a bound, listening rendezvous socket together with the
// filesystem path it occupies, so the caller can unlink it on any exit
// path.
type Listener struct {
	path string
	ln   *net.UnixListener
}

// Create binds and listens on path with a backlog of one. Any
// pre-existing path of the same name is unlinked first, defending
// against pid reuse after a prior crash left a stale socket file behind.
func Create(path string) (*Listener, error) {
	os.Remove(path)

	fd, err := unix.Socket(unix.AF_LOCAL, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)

	sa := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, backlogSize); err != nil {
		unix.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), path)
	defer f.Close()
	genericLn, err := net.FileListener(f)
	if err != nil {
		return nil, err
	}
	ln, ok := genericLn.(*net.UnixListener)
	if !ok {
		genericLn.Close()
		return nil, errors.New("rendezvous: unexpected listener type")
	}
	return &Listener{path: path, ln: ln}, nil
}

// Path reports the filesystem path this listener is bound to.
func (l *Listener) Path() string {
	return l.path
}

// Accept waits up to timeout for the requestor to connect. A deadline
// expiry is reported as ErrMediationTimeout, matching the 20-second
// accept window.
func (l *Listener) Accept(timeout time.Duration) (net.Conn, error) {
	if err := l.ln.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	conn, err := l.ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, ErrMediationTimeout
		}
		return nil, err
	}
	return conn, nil
}

// Close closes the listening socket without unlinking the path; callers
// own path cleanup so that signal-driven unlinks and the normal exit
// path share one code path.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Unlink removes the socket's filesystem entry. It is safe to call more
// than once and safe to call after Close.
func Unlink(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
