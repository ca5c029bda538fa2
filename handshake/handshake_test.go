/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package handshake

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteRequestIsDeterministic(t *testing.T) {
	req := Request{CallerUID: 10042, TargetUID: 0, Bin: "/system/bin/app_process", Command: ""}

	var b1, b2 bytes.Buffer
	if err := WriteRequest(&b1, req); err != nil {
		t.Fatal(err)
	}
	if err := WriteRequest(&b2, req); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Fatalf("request frame is not deterministic for identical inputs")
	}
}

func TestWriteRequestFieldLayout(t *testing.T) {
	req := Request{CallerUID: 10042, TargetUID: 0, Bin: "/system/bin/app_process", Command: ""}
	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()

	// version, PathMax, ArgMax, caller uid, target uid = 5 * 4 bytes
	binLen := len("/system/bin/app_process") + 1
	wantMinLen := 5*4 + 4 + binLen + 4 + 1
	if len(b) != wantMinLen {
		t.Fatalf("frame length = %d, want %d", len(b), wantMinLen)
	}
	binFieldStart := 5 * 4
	binBytes := b[binFieldStart+4 : binFieldStart+4+binLen]
	if !strings.HasSuffix(string(binBytes), "\x00") {
		t.Fatalf("bin field not NUL-terminated")
	}
	if string(binBytes[:binLen-1]) != req.Bin {
		t.Fatalf("bin field = %q, want %q", binBytes[:binLen-1], req.Bin)
	}
}

func TestReadVerdictMapping(t *testing.T) {
	tests := []struct {
		in      string
		wantV   Verdict
		wantIns bool
	}{
		{"socket:ALLOW", VerdictAllow, false},
		{"ALLOW", VerdictAllow, true},
		{"socket:DENY", VerdictDeny, false},
		{"DENY", VerdictDeny, true},
		{"garbage", VerdictDeny, false},
	}
	for _, tc := range tests {
		v, insecure, err := ReadVerdict(strings.NewReader(tc.in))
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if v != tc.wantV || insecure != tc.wantIns {
			t.Fatalf("%q: got (%v, %v), want (%v, %v)", tc.in, v, insecure, tc.wantV, tc.wantIns)
		}
	}
}
