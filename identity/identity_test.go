/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package identity

import (
	"os"
	"testing"
)

// These transitions require real privilege to exercise end to end, so the
// test only runs the live path when the test binary itself is root,
// matching how the rest of this corpus gates uid-sensitive tests.

func TestSetFinalAsRoot(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root")
	}
	if err := SetFinal(uint32(os.Getuid())); err != nil {
		t.Fatalf("unexpected error setting to current uid: %v", err)
	}
}

func TestDropToRequestorAsRoot(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root")
	}
	if err := DropToRequestor(uint32(os.Getuid()), uint32(os.Getgid())); err != nil {
		t.Fatalf("unexpected error dropping to current uid/gid: %v", err)
	}
}
