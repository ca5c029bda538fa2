/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package shellexec

import (
	"testing"

	"github.com/steppnasty/platform-system-su/target"
)

func TestArg0LoginPrefix(t *testing.T) {
	t1 := target.Record{Shell: "/system/bin/sh", Login: true}
	if got := Arg0(t1); got != "-sh" {
		t.Fatalf("got %q, want -sh", got)
	}
	t2 := target.Record{Shell: "/system/bin/sh", Login: false}
	if got := Arg0(t2); got != "sh" {
		t.Fatalf("got %q, want sh", got)
	}
}

func TestBuildArgvWithCommand(t *testing.T) {
	tr := target.Record{Shell: "/system/bin/sh", HasCommand: true, Command: "id"}
	argv := BuildArgv(tr)
	want := []string{"sh", "-c", "id"}
	if !equal(argv, want) {
		t.Fatalf("got %v, want %v", argv, want)
	}
}

func TestBuildArgvWithPassthrough(t *testing.T) {
	tr := target.Record{
		Shell:            "/system/bin/sh",
		Login:            true,
		Argv:             []string{"su", "-", "1000", "--", "whoami"},
		PassthroughIndex: 4,
	}
	argv := BuildArgv(tr)
	want := []string{"-sh", "whoami"}
	if !equal(argv, want) {
		t.Fatalf("got %v, want %v", argv, want)
	}
}

func TestBuildArgvDoesNotMutateSourceArgv(t *testing.T) {
	original := []string{"su", "-c", "id"}
	tr := target.Record{Shell: "/system/bin/sh", HasCommand: true, Command: "id", Argv: original, PassthroughIndex: 3}
	_ = BuildArgv(tr)
	if !equal(tr.Argv, original) {
		t.Fatalf("source argv was mutated: %v", tr.Argv)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
