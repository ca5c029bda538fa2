/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package shellexec builds the final argument vector and environment
// and replaces the process image with the target shell. Everything here
// runs after a verdict of ALLOW, immediately before or immediately after
// the elevation to the target uid.
package shellexec

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/steppnasty/platform-system-su/target"
)

// ErrExecFailure wraps any failure to replace the process image.
var ErrExecFailure = errors.New("exec failed")

// PopulateEnvironment sets HOME/SHELL/USER/LOGNAME for the target uid,
// unless preserve-environment is set. This must run before the identity
// transition to the target uid: looking up the target's passwd entry by
// uid is simplest while still running as the requestor, and the source
// does exactly this for the same reason.
func PopulateEnvironment(t target.Record) {
	if t.PreserveEnviron {
		return
	}
	u, err := user.LookupId(strconv.FormatUint(uint64(t.UID), 10))
	if err != nil {
		return
	}
	os.Setenv("HOME", u.HomeDir)
	os.Setenv("SHELL", t.Shell)
	if t.Login || t.UID != 0 {
		os.Setenv("USER", u.Username)
		os.Setenv("LOGNAME", u.Username)
	}
}

// Arg0 computes the shell's argv[0]: the shell path's basename, prefixed
// with "-" when this is a login shell.
func Arg0(t target.Record) string {
	base := filepath.Base(t.Shell)
	if t.Login {
		return "-" + base
	}
	return base
}

// BuildArgv returns a fresh argument vector for exec: arg0, optionally
// "-c" and the command string, followed by the positional pass-through
// tail. It never mutates t.Argv.
func BuildArgv(t target.Record) []string {
	argv := []string{Arg0(t)}
	if t.HasCommand {
		argv = append(argv, "-c", t.Command)
	}
	argv = append(argv, t.Passthrough()...)
	return argv
}

// Exec replaces the current process image with shell, passing argv and
// the current environment. On success it never returns. The umask
// passed in is restored immediately before the call, matching the
// source's "restore saved umask right before exec" ordering.
func Exec(shell string, argv []string, umask int) error {
	unix.Umask(umask)
	if err := unix.Exec(shell, argv, os.Environ()); err != nil {
		return ErrExecFailure
	}
	return nil
}
