/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package notify fires the one-way event that wakes the requestor
// application. Transport details are intentionally abstract: the
// mediator only needs the requestor reachable and the notification
// delivered best-effort.
package notify

import (
	"errors"
	"os/exec"
	"syscall"
)

// Action distinguishes an opening request from a closing report.
type Action int

const (
	ActionRequest Action = iota
	ActionResult
)

// Verdict is the outcome carried by a notification. A request always
// carries VerdictInteractive; a result carries Allow or Deny.
type Verdict int

const (
	VerdictInteractive Verdict = iota
	VerdictAllow
	VerdictDeny
)

// Event is everything the requestor needs to render or log a
// notification.
type Event struct {
	Action     Action
	Verdict    Verdict
	SocketPath string
	CallerUID  uint32
	TargetUID  uint32
	Command    string

	// RequestorUID/GID is the identity the notification helper should
	// run as. It is only meaningful to transports that spawn a process.
	RequestorUID uint32
	RequestorGID uint32
}

// ErrNotifyFailed means a *request* notification could not be delivered;
// this is terminal per the mediation state machine. Failed *result*
// notifications are logged by the caller instead, since by that point
// the verdict has already been acted on.
var ErrNotifyFailed = errors.New("requestor notification failed")

// Transport delivers an Event to the requestor and reports the pid of
// any helper process it spawned to do so, so the orchestrator knows
// whether to expect a SIGCHLD.
type Transport interface {
	Notify(Event) (childPID int, err error)
}

// ExecTransport delivers the notification by spawning a one-shot helper
// binary (e.g. the platform's activity-manager launcher) running as the
// requestor's own uid/gid, mirroring how the mediator's own credential
// already sits at the requestor identity by the time a notification is
// due.
type ExecTransport struct {
	// HelperPath is the executable used to wake the requestor, e.g. an
	// "am broadcast"-equivalent launcher.
	HelperPath string
}

// Notify spawns HelperPath with arguments describing the event and does
// not wait for it to exit; the orchestrator reaps it later, if at all.
// It runs the helper as ev.RequestorUID/RequestorGID so an app that
// isn't the requestor can't be impersonated by the notification step.
func (t ExecTransport) Notify(ev Event) (int, error) {
	args := []string{t.HelperPath, actionArg(ev.Action), verdictArg(ev.Verdict), ev.SocketPath}
	cmd := &exec.Cmd{
		Path: t.HelperPath,
		Args: args,
		SysProcAttr: &syscall.SysProcAttr{
			Credential: &syscall.Credential{Uid: ev.RequestorUID, Gid: ev.RequestorGID},
		},
	}
	if err := cmd.Start(); err != nil {
		return 0, ErrNotifyFailed
	}
	return cmd.Process.Pid, nil
}

func actionArg(a Action) string {
	if a == ActionRequest {
		return "request"
	}
	return "result"
}

func verdictArg(v Verdict) string {
	switch v {
	case VerdictAllow:
		return "ALLOW"
	case VerdictDeny:
		return "DENY"
	default:
		return "INTERACTIVE"
	}
}

// Suppressed reports whether notifications should be skipped entirely
// for this caller. Shell and root callers are considered log-only: no
// request or result notification is ever sent for them.
func Suppressed(callerUID uint32, shellUID, rootUID uint32) bool {
	return callerUID == shellUID || callerUID == rootUID
}
