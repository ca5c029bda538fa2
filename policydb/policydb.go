/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package policydb is the external policy database the mediator
// consults before opening a socket. Its actual storage lives under the
// requestor's data directory and is owned by the requestor application;
// this package only defines the predicate's shape.
package policydb

// Decision is the outcome of consulting the cached policy database for
// a given caller/target pair, prior to any socket rendezvous.
type Decision int

const (
	Interactive Decision = iota
	Allow
	Deny
)

// Request describes the lookup key the checker consults.
type Request struct {
	CallerUID uint32
	TargetUID uint32
	Command   string
}

// Checker is the abstract database_check predicate: ALLOW/DENY short
// circuit the socket rendezvous entirely; INTERACTIVE means no cached
// decision exists and the requestor must be asked.
type Checker interface {
	Check(Request) Decision
}

// AlwaysInteractive is a Checker that never short-circuits, deferring
// every decision to the interactive requestor prompt. It stands in for
// the real, persistent policy store, whose implementation is owned by
// the requestor application and out of scope here.
type AlwaysInteractive struct{}

func (AlwaysInteractive) Check(Request) Decision {
	return Interactive
}
