/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package rendezvous

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateAndAccept(t *testing.T) {
	dir := t.TempDir()
	path := SocketPath(dir, os.Getpid())

	ln, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer Unlink(ln.Path())
	defer ln.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("socket file should exist after Create: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		c, err := ln.Accept(2 * time.Second)
		if err == nil {
			c.Close()
		}
		done <- err
	}()

	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()
	if err := <-done; err != nil {
		t.Fatalf("Accept: %v", err)
	}
}

func TestAcceptTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := SocketPath(dir, os.Getpid())
	ln, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer Unlink(ln.Path())
	defer ln.Close()

	if _, err := ln.Accept(50 * time.Millisecond); err != ErrMediationTimeout {
		t.Fatalf("got %v, want ErrMediationTimeout", err)
	}
}

func TestUnlinkIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent")
	if err := Unlink(path); err != nil {
		t.Fatalf("unlinking a missing path should not error: %v", err)
	}
	if err := Unlink(""); err != nil {
		t.Fatalf("unlinking an empty path should not error: %v", err)
	}
}

func TestPrepareCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	if err := PrepareCacheDir(dir, uint32(os.Getuid()), uint32(os.Getgid())); err != nil {
		t.Fatalf("PrepareCacheDir: %v", err)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("cache dir should exist: %v", err)
	}
	if !fi.IsDir() {
		t.Fatalf("expected a directory")
	}
}
