/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package userscope

import "testing"

func TestResolvePrimaryUserBlock(t *testing.T) {
	r := Resolve(10042, OwnerModeUnknown)
	if r.UserID != 0 || r.DataPath != "" {
		t.Fatalf("primary-block caller should not get rewritten paths: %+v", r)
	}
	if !r.Valid(10042) {
		t.Fatalf("primary-block caller should always be valid")
	}
}

func TestResolveSecondaryUserRewritesPaths(t *testing.T) {
	const uid = 210042 // user 2, app uid 10042
	r := Resolve(uid, OwnerModeUser)
	if r.UserID != 2 {
		t.Fatalf("user id = %d, want 2", r.UserID)
	}
	if r.DataPath == "" || r.StorePath == "" || r.StoreDefault == "" {
		t.Fatalf("expected rewritten paths: %+v", r)
	}
}

func TestResolveOwnerModeSkipsRewrite(t *testing.T) {
	const uid = 210042
	r := Resolve(uid, OwnerModeOwner)
	if r.DataPath != "" {
		t.Fatalf("owner-scoped caller should not get user-block paths: %+v", r)
	}
}

func TestValidRejectsUnknownOwnerModeOutsideBlock(t *testing.T) {
	r := Resolve(210042, OwnerModeUnknown)
	if r.Valid(210042) {
		t.Fatalf("unknown owner mode outside the primary block must be invalid")
	}
}
