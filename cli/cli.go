/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package cli parses the su command line. Option handling is an
// out-of-scope black box per the mediation design; this package exists
// only to turn argv into a target.Record the orchestrator can act on.
package cli

import (
	"errors"
	"os/user"
	"strconv"

	flags "github.com/jessevdk/go-flags"

	"github.com/steppnasty/platform-system-su/target"
)

const defaultShell = "/system/bin/sh"

// Version and VersionCode are printed by -v/-V respectively.
const (
	Version     = "1.0"
	VersionCode = "1"
)

var ErrUsage = errors.New("usage error")

// Result is the outcome of parsing argv: either a fully-formed target
// record, or a request to print help/version and exit 0.
type Result struct {
	Target      target.Record
	ShowHelp    bool
	ShowVersion bool
	ShowVCode   bool
}

type options struct {
	Command    string `short:"c" long:"command"`
	Help       bool   `short:"h" long:"help"`
	Login      bool   `short:"l" long:"login"`
	PreserveA  bool   `short:"m" long:"preserve-environment"`
	PreserveB  bool   `short:"p"`
	Shell      string `short:"s" long:"shell"`
	Version    bool   `short:"v" long:"version"`
	VersionNum bool   `short:"V"`
}

// Parse interprets argv (excluding argv[0]) per the su CLI surface: a
// leading "-" is equivalent to --login; the next non-option argument is
// a login name or decimal uid; everything after that (or after an
// explicit "--") passes through to the target shell untouched.
func Parse(argv []string) (Result, error) {
	var res Result

	leadingDash := false
	rest := argv
	if len(rest) > 0 && rest[0] == "-" {
		leadingDash = true
		rest = rest[1:]
	}

	var opts options
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	passthrough, err := parser.ParseArgs(rest)
	if err != nil {
		return Result{}, ErrUsage
	}

	if opts.Help {
		res.ShowHelp = true
		return res, nil
	}
	if opts.Version {
		res.ShowVersion = true
		return res, nil
	}
	if opts.VersionNum {
		res.ShowVCode = true
		return res, nil
	}

	t := target.Record{
		UID:             target.RootUID,
		Login:           leadingDash || opts.Login,
		PreserveEnviron: opts.PreserveA || opts.PreserveB,
		Shell:           opts.Shell,
		HasCommand:      opts.Command != "",
		Command:         opts.Command,
	}
	if t.Shell == "" {
		t.Shell = defaultShell
	}

	if len(passthrough) > 0 {
		login := passthrough[0]
		uid, err := resolveLogin(login)
		if err != nil {
			return Result{}, ErrUsage
		}
		t.UID = uid
		passthrough = passthrough[1:]
	}

	t.Argv = append([]string{"su"}, passthrough...)
	t.PassthroughIndex = 1

	res.Target = t
	return res, nil
}

// resolveLogin accepts either a decimal uid or a username resolved
// through the password database.
func resolveLogin(login string) (uint32, error) {
	if n, err := strconv.ParseUint(login, 10, 32); err == nil {
		return uint32(n), nil
	}
	u, err := user.Lookup(login)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(uid), nil
}
