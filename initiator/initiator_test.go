/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package initiator

import (
	"os"
	"testing"
)

// Introspect always reads through /proc, so these tests target the test
// binary's own pid in place of a real parent -- it is guaranteed to exist
// and be readable by the test process itself.

func TestIntrospectSelf(t *testing.T) {
	r, err := Introspect(uint32(os.Getuid()), os.Getpid())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Bin == "" {
		t.Fatalf("expected a resolved bin path")
	}
	if r.PPID != os.Getpid() {
		t.Fatalf("ppid not preserved: got %d", r.PPID)
	}
}

func TestIntrospectMissingProcess(t *testing.T) {
	const implausiblePID = 1 << 30
	if _, err := Introspect(0, implausiblePID); err != ErrIntrospection {
		t.Fatalf("got %v, want ErrIntrospection", err)
	}
}
