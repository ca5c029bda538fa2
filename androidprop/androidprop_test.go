/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package androidprop

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.prop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("expected empty properties, got %v", p)
	}
	if p.Has("ro.cm.version") {
		t.Fatalf("missing file should report no keys present")
	}
}

func TestLoadParsesKeyValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.prop")
	body := "# comment\nro.cm.version=14.1\nro.build.type=user\n\nro.debuggable = 0\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Has("ro.cm.version") {
		t.Fatalf("expected ro.cm.version to be present")
	}
	if got := p.Get("ro.build.type", ""); got != "user" {
		t.Fatalf("ro.build.type = %q, want user", got)
	}
	if got := p.Get("ro.debuggable", "0"); got != "0" {
		t.Fatalf("ro.debuggable = %q, want 0", got)
	}
	if got := p.Get("ro.missing", "fallback"); got != "fallback" {
		t.Fatalf("default not applied: %q", got)
	}
}

func TestReadSingleValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.sys.root_access")
	if err := os.WriteFile(path, []byte("3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	v, ok, err := ReadSingleValue(path)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "3" {
		t.Fatalf("got (%q, %v), want (3, true)", v, ok)
	}
}

func TestReadSingleValueMissing(t *testing.T) {
	_, ok, err := ReadSingleValue(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing file")
	}
}
