/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package userscope resolves which Android user profile the requestor's
// data lives under, since a device may run more than one user and each
// gets its own uid block.
package userscope

import "fmt"

// perUserBlock is the platform's uid-per-profile spacing.
const perUserBlock = 100000

const requestorPackage = "com.noshufou.android.su"

// OwnerMode is a tri-state: the requestor's own options file may not
// exist yet, in which case neither "user" nor "owner" scoping is known.
type OwnerMode int

const (
	OwnerModeUnknown OwnerMode = iota
	OwnerModeUser
	OwnerModeOwner
)

// Record is the resolved user-profile scoping for a single invocation.
type Record struct {
	UserID       int
	OwnerMode    OwnerMode
	DataPath     string
	StorePath    string
	StoreDefault string
}

// Resolve derives the user-scope record from the caller's uid and the
// options-file owner mode. When the caller uid sits outside the primary
// user block (uid > 99999) and owner mode is user-scoped, the requestor
// paths are rewritten under /data/user/<id>/... so the right profile's
// copy of the requestor app is consulted.
func Resolve(callerUID uint32, ownerMode OwnerMode) Record {
	r := Record{OwnerMode: ownerMode}
	if callerUID <= 99999 {
		return r
	}
	r.UserID = int(callerUID) / perUserBlock
	if ownerMode != OwnerModeUser {
		return r
	}
	r.DataPath = fmt.Sprintf("/data/user/%d/%s", r.UserID, requestorPackage)
	r.StorePath = fmt.Sprintf("/data/user/%d/%s/files/stored", r.UserID, requestorPackage)
	r.StoreDefault = fmt.Sprintf("/data/user/%d/%s/files/stored/default", r.UserID, requestorPackage)
	return r
}

// Valid reports whether enough is known about the profile to proceed.
// The orchestrator denies outright when the caller is outside the
// primary user block and owner mode was never established.
func (r Record) Valid(callerUID uint32) bool {
	return !(callerUID > 99999 && r.OwnerMode == OwnerModeUnknown)
}
