/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nonexistent.conf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AcceptTimeout != defaultAcceptTimeout {
		t.Errorf("accept timeout = %v, want %v", c.AcceptTimeout, defaultAcceptTimeout)
	}
	if c.LogLevel != defaultLogLevel {
		t.Errorf("log level = %q, want %q", c.LogLevel, defaultLogLevel)
	}
	if c.DefaultShell != defaultShell {
		t.Errorf("default shell = %q, want %q", c.DefaultShell, defaultShell)
	}
}

func TestLoadOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "su.conf")
	body := "[Global]\naccept-timeout-seconds=5\nlog-level=debug\ndefault-shell=/bin/zsh\n"
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AcceptTimeout != 5*time.Second {
		t.Errorf("accept timeout = %v, want 5s", c.AcceptTimeout)
	}
	if c.LogLevel != "DEBUG" {
		t.Errorf("log level = %q, want DEBUG", c.LogLevel)
	}
	if c.DefaultShell != "/bin/zsh" {
		t.Errorf("default shell = %q, want /bin/zsh", c.DefaultShell)
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	p := filepath.Join(t.TempDir(), "su.conf")
	body := "[Global]\naccept-timeout-seconds=-1\n"
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err != ErrInvalidAcceptTimeout {
		t.Fatalf("err = %v, want ErrInvalidAcceptTimeout", err)
	}
}
