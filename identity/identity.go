/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package identity performs the credential transitions the mediator
// needs between real-root, requestor-uid, and target-uid. Every
// transition failure here is fatal: a process that cannot be sure what
// uid it is running as must not continue.
package identity

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrCredentialFault covers any failed uid/gid transition. This is never
// routed through the ordinary denial path -- the source treats it as
// unrecoverable and aborts immediately.
var ErrCredentialFault = errors.New("credential transition failed")

// SetFinal sets real, effective, and saved uid/gid all to uid, raising
// the effective uid back to root first since setresuid/setresgid
// require privilege to move the real uid. This is the final,
// irreversible transition used right before the exec handoff.
func SetFinal(uid uint32) error {
	if err := unix.Seteuid(0); err != nil {
		return ErrCredentialFault
	}
	if err := unix.Setresgid(int(uid), int(uid), int(uid)); err != nil {
		return ErrCredentialFault
	}
	if err := unix.Setresuid(int(uid), int(uid), int(uid)); err != nil {
		return ErrCredentialFault
	}
	return nil
}

// DropToRequestor clears supplementary groups and lowers the effective
// uid/gid to the requestor app's uid/gid while mediation is underway.
// Unlike SetFinal this only touches the effective ids, leaving the real
// uid at root so the process can later raise privilege back for the
// target uid.
func DropToRequestor(uid, gid uint32) error {
	if err := unix.Setgroups(nil); err != nil {
		return ErrCredentialFault
	}
	if err := unix.Setegid(int(gid)); err != nil {
		return ErrCredentialFault
	}
	if err := unix.Seteuid(int(uid)); err != nil {
		return ErrCredentialFault
	}
	return nil
}
