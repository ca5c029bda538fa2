/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package mediator composes caller introspection, the policy gate,
// credential transitions, the rendezvous socket, the requestor
// notification, and the handshake into the top-level state machine that
// decides whether a caller is allowed to become the target uid, and
// performs the final exec when it is.
package mediator

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/steppnasty/platform-system-su/handshake"
	"github.com/steppnasty/platform-system-su/identity"
	"github.com/steppnasty/platform-system-su/initiator"
	"github.com/steppnasty/platform-system-su/log"
	"github.com/steppnasty/platform-system-su/notify"
	"github.com/steppnasty/platform-system-su/policy"
	"github.com/steppnasty/platform-system-su/policydb"
	"github.com/steppnasty/platform-system-su/rendezvous"
	"github.com/steppnasty/platform-system-su/shellexec"
	"github.com/steppnasty/platform-system-su/target"
	"github.com/steppnasty/platform-system-su/userscope"
)

// defaultLDLibraryPath is set when the dynamic linker has already wiped
// the variable out because this binary is setuid.
const defaultLDLibraryPath = "/vendor/lib:/system/lib"

// mediationUmask is the umask applied for the duration of mediation,
// tightened from whatever the caller's shell had set; the caller's own
// umask is saved and restored right before exec.
const mediationUmask = 0027

var (
	ErrAbort = errors.New("denied")
)

// Context aggregates the three data-model records plus the bookkeeping
// the orchestrator and its signal handler share. The signal goroutine
// reaches the socket path only through markUnlinked, which records the
// unlink under the mutex; its SIGCHLD branch also clears helperPID
// directly once the helper has been reaped.
type Context struct {
	Initiator initiator.Record
	Target    target.Record
	UserScope userscope.Record

	mu         sync.Mutex
	socketPath string
	unlinked   bool

	savedUmask   int
	helperPID    int
	requestorUID uint32
	requestorGID uint32
}

func (c *Context) setSocketPath(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socketPath = p
	c.unlinked = false
}

func (c *Context) socketPathSnapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketPath
}

// markUnlinked records that the socket path has been removed, so a
// second unlink attempt (normal exit racing a signal, or vice versa) is
// a safe no-op.
func (c *Context) markUnlinked() (path string, already bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unlinked {
		return "", true
	}
	c.unlinked = true
	return c.socketPath, false
}

// Dependencies bundles every external collaborator the orchestrator
// needs, so Run can be exercised against fakes in tests.
type Dependencies struct {
	PolicyGate    policy.Gate
	DB            policydb.Checker
	NotifyTrans   notify.Transport
	Logger        *log.Logger
	AcceptTimeout time.Duration
	CacheDirRoot  string
	RequestorUID  uint32
	RequestorGID  uint32
	ShellUID      uint32 // AID_SHELL
	RootUID       uint32 // AID_ROOT
}

// ExecRequest is what the caller must hand to shellexec.Exec on an
// ALLOW outcome.
type ExecRequest struct {
	Shell string
	Argv  []string
	Umask int
}

// Run executes the full state machine for one invocation and returns the
// process exit code the caller should use, along with the shell/argv to
// exec on an ALLOW outcome. When exec is non-nil the caller must invoke
// it; Run itself never calls exec so that tests can observe the decision
// without replacing the test binary's process image.
func Run(ctx *Context, deps Dependencies) (code int, exec *ExecRequest, err error) {
	reqID := uuid.New().String()
	logf := deps.Logger
	if logf == nil {
		logf = log.NewDiscardLogger()
	}
	logf.Info("mediation started", log.KV("request", reqID), log.KV("caller_uid", ctx.Initiator.UID), log.KV("target_uid", ctx.Target.UID))

	if !ctx.UserScope.Valid(ctx.Initiator.UID) {
		return deny(ctx, deps, reqID, logf, "owner mode unknown outside primary user block")
	}

	if perr := deps.PolicyGate.Check(ctx.Initiator.UID); perr != nil {
		return deny(ctx, deps, reqID, logf, "policy gate refused: "+perr.Error())
	}

	ctx.savedUmask = unixUmask(mediationUmask)

	if os.Getenv("LD_LIBRARY_PATH") == "" {
		os.Setenv("LD_LIBRARY_PATH", defaultLDLibraryPath)
	}

	if ctx.Initiator.UID == deps.RootUID || ctx.Initiator.UID == deps.ShellUID {
		ctx.requestorUID, ctx.requestorGID = deps.RequestorUID, deps.RequestorGID
		return allow(ctx, deps, reqID, logf, true)
	}

	st, serr := os.Stat(ctx.UserScope.DataPath)
	if serr != nil {
		return deny(ctx, deps, reqID, logf, "stat requestor data path failed")
	}
	uid, gid, ok := statOwnership(st)
	if !ok || uid != gid {
		return deny(ctx, deps, reqID, logf, "requestor data path uid/gid mismatch")
	}
	ctx.requestorUID, ctx.requestorGID = uid, gid

	if perr := rendezvous.PrepareCacheDir(deps.CacheDirRoot, uid, gid); perr != nil {
		return deny(ctx, deps, reqID, logf, "cache dir preparation failed")
	}

	if perr := identity.DropToRequestor(uid, gid); perr != nil {
		logf.Error("credential fault dropping to requestor", log.KV("request", reqID), log.KVErr(perr))
		return int(syscall.EACCES), nil, identity.ErrCredentialFault
	}

	switch deps.DB.Check(policydb.Request{CallerUID: ctx.Initiator.UID, TargetUID: ctx.Target.UID, Command: ctx.Target.CommandLine()}) {
	case policydb.Allow:
		return allow(ctx, deps, reqID, logf, false)
	case policydb.Deny:
		return deny(ctx, deps, reqID, logf, "cached policy denial")
	}

	socketPath := rendezvous.SocketPath(deps.CacheDirRoot, os.Getpid())
	ln, lerr := rendezvous.Create(socketPath)
	if lerr != nil {
		return deny(ctx, deps, reqID, logf, "socket create failed")
	}
	ctx.setSocketPath(socketPath)

	sigCh, stopSignals := installSignalHandlers(ctx, logf)
	defer stopSignals()
	defer cleanupSocket(ctx, ln, logf)

	childPID, nerr := deps.NotifyTrans.Notify(notify.Event{
		Action:       notify.ActionRequest,
		Verdict:      notify.VerdictInteractive,
		SocketPath:   socketPath,
		CallerUID:    ctx.Initiator.UID,
		TargetUID:    ctx.Target.UID,
		Command:      ctx.Target.CommandLine(),
		RequestorUID: ctx.requestorUID,
		RequestorGID: ctx.requestorGID,
	})
	if nerr != nil {
		return deny(ctx, deps, reqID, logf, "request notification failed")
	}
	ctx.helperPID = childPID
	if childPID != 0 {
		// Only watch for the helper's exit once we know one was actually
		// spawned -- an unconditional SIGCHLD handler would reap signals
		// meant for a child that never existed.
		signal.Notify(sigCh, syscall.SIGCHLD)
	}

	conn, aerr := ln.Accept(deps.AcceptTimeout)
	if aerr != nil {
		return deny(ctx, deps, reqID, logf, "accept timed out")
	}
	defer conn.Close()

	req := handshake.Request{
		CallerUID: ctx.Initiator.UID,
		TargetUID: ctx.Target.UID,
		Bin:       ctx.Initiator.Bin,
		Command:   ctx.Target.CommandLine(),
	}
	if werr := handshake.WriteRequest(conn, req); werr != nil {
		return deny(ctx, deps, reqID, logf, "request frame write failed")
	}

	verdict, insecure, rerr := handshake.ReadVerdict(conn)
	if rerr != nil {
		return deny(ctx, deps, reqID, logf, "verdict read failed")
	}
	if insecure {
		logf.Warn("security risk: requestor responded without socket: prefix", log.KV("request", reqID))
	}

	switch verdict {
	case handshake.VerdictAllow:
		return allow(ctx, deps, reqID, logf, false)
	default:
		return deny(ctx, deps, reqID, logf, "requestor verdict was deny")
	}
}

func deny(ctx *Context, deps Dependencies, reqID string, logf *log.Logger, reason string) (int, *ExecRequest, error) {
	if !notify.Suppressed(ctx.Initiator.UID, deps.ShellUID, deps.RootUID) {
		if _, err := deps.NotifyTrans.Notify(notify.Event{
			Action:       notify.ActionResult,
			Verdict:      notify.VerdictDeny,
			SocketPath:   ctx.socketPathSnapshot(),
			CallerUID:    ctx.Initiator.UID,
			TargetUID:    ctx.Target.UID,
			Command:      ctx.Target.CommandLine(),
			RequestorUID: ctx.requestorUID,
			RequestorGID: ctx.requestorGID,
		}); err != nil {
			logf.Warn("result notification failed", log.KV("request", reqID), log.KVErr(err))
		}
	}
	logf.Warn("request rejected", log.KV("request", reqID), log.KV("reason", reason), log.KV("caller_uid", ctx.Initiator.UID), log.KV("target_uid", ctx.Target.UID))
	fmt.Fprintln(os.Stderr, "Permission denied")
	return 1, nil, ErrAbort
}

func allow(ctx *Context, deps Dependencies, reqID string, logf *log.Logger, skippedMediation bool) (int, *ExecRequest, error) {
	if !skippedMediation && !notify.Suppressed(ctx.Initiator.UID, deps.ShellUID, deps.RootUID) {
		if _, err := deps.NotifyTrans.Notify(notify.Event{
			Action:       notify.ActionResult,
			Verdict:      notify.VerdictAllow,
			SocketPath:   ctx.socketPathSnapshot(),
			CallerUID:    ctx.Initiator.UID,
			TargetUID:    ctx.Target.UID,
			Command:      ctx.Target.CommandLine(),
			RequestorUID: ctx.requestorUID,
			RequestorGID: ctx.requestorGID,
		}); err != nil {
			logf.Warn("result notification failed", log.KV("request", reqID), log.KVErr(err))
		}
	}

	shellexec.PopulateEnvironment(ctx.Target)

	if err := identity.SetFinal(ctx.Target.UID); err != nil {
		logf.Error("credential fault elevating to target", log.KV("request", reqID), log.KVErr(err))
		return int(syscall.EACCES), nil, identity.ErrCredentialFault
	}

	argv := shellexec.BuildArgv(ctx.Target)
	logf.Info("mediation allowed", log.KV("request", reqID), log.KV("caller_uid", ctx.Initiator.UID), log.KV("target_uid", ctx.Target.UID))
	return 0, &ExecRequest{Shell: ctx.Target.Shell, Argv: argv, Umask: ctx.savedUmask}, nil
}

func cleanupSocket(ctx *Context, ln *rendezvous.Listener, logf *log.Logger) {
	ln.Close()
	if path, already := ctx.markUnlinked(); !already {
		if err := rendezvous.Unlink(path); err != nil {
			logf.Warn("socket unlink failed", log.KVErr(err))
		}
	}
}

// installSignalHandlers wires HUP/PIPE/TERM/QUIT/INT/ABRT to unlink the
// socket path and exit 128+signo, and SIGCHLD to reap the notification
// helper if one was actually spawned. The returned func stops the
// goroutine and signal delivery; call it once mediation completes
// normally.
func installSignalHandlers(ctx *Context, logf *log.Logger) (sigCh chan os.Signal, stop func()) {
	sigCh = make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGPIPE, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGABRT)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGCHLD {
					reapHelper(ctx, logf)
					continue
				}
				if path, already := ctx.markUnlinked(); !already {
					rendezvous.Unlink(path)
				}
				signo := sig.(syscall.Signal)
				os.Exit(128 + int(signo))
			case <-done:
				return
			}
		}
	}()

	stop = func() {
		signal.Stop(sigCh)
		close(done)
	}
	return sigCh, stop
}

func reapHelper(ctx *Context, logf *log.Logger) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(ctx.helperPID, &ws, syscall.WNOHANG, nil)
	if err != nil || pid == 0 {
		return
	}
	if ws.Exited() && ws.ExitStatus() != 0 {
		logf.Error("notification helper exited with error", log.KV("pid", pid), log.KV("status", ws.ExitStatus()))
		if path, already := ctx.markUnlinked(); !already {
			rendezvous.Unlink(path)
		}
		os.Exit(1)
	}
	ctx.helperPID = 0
}

func statOwnership(fi os.FileInfo) (uid, gid uint32, ok bool) {
	st, okType := fi.Sys().(*syscall.Stat_t)
	if !okType {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}

func unixUmask(mask int) int {
	return syscall.Umask(mask)
}
