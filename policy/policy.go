/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package policy implements the global root-access gate: it decides,
// from Android system property files alone and before any socket is
// opened, whether a caller is even eligible to request elevation.
package policy

import (
	"errors"
	"strconv"

	"github.com/steppnasty/platform-system-su/androidprop"
)

// AID_ROOT and AID_SHELL are the well-known Android uids the gate treats
// specially, matching the platform's android_filesystem_config.h.
const (
	AID_ROOT  uint32 = 0
	AID_SHELL uint32 = 2000
)

const (
	rootAccessAppsOnly = 1 << 0
	rootAccessADBOnly  = 1 << 1
)

var ErrPolicyRefusal = errors.New("root access refused by policy")

// Paths names the three property files the gate reads. The zero value
// names no files; NewGate fills it with DefaultPaths.
type Paths struct {
	BuildProp      string
	DefaultProp    string
	RootAccessProp string
}

// DefaultPaths are the on-device locations referenced by the platform.
var DefaultPaths = Paths{
	BuildProp:      "/system/build.prop",
	DefaultProp:    "/default.prop",
	RootAccessProp: "/data/property/persist.sys.root_access",
}

// Gate evaluates the global root-access policy for a single caller uid.
type Gate struct {
	Paths Paths
}

// NewGate constructs a Gate reading from the on-device property paths.
func NewGate() Gate {
	return Gate{Paths: DefaultPaths}
}

// Check implements spec 4.B. A nil return means the caller may proceed to
// mediation; ErrPolicyRefusal means the request must be denied outright.
func (g Gate) Check(callerUID uint32) error {
	build, err := androidprop.Load(g.Paths.BuildProp)
	if err != nil {
		return err
	}
	if !build.Has("ro.cm.version") {
		// Platform build carries no root-access gate at all.
		return nil
	}

	def, err := androidprop.Load(g.Paths.DefaultProp)
	if err != nil {
		return err
	}
	if def.Get("ro.debuggable", "0") != "1" {
		return ErrPolicyRefusal
	}

	if build.Get("ro.build.type", "") == "eng" {
		return nil
	}

	enabled := rootAccessEnabledBits(g.Paths.RootAccessProp)

	if callerUID != AID_SHELL && callerUID != AID_ROOT {
		if enabled&rootAccessAppsOnly != rootAccessAppsOnly {
			return ErrPolicyRefusal
		}
	}
	if callerUID == AID_SHELL {
		if enabled&rootAccessADBOnly != rootAccessADBOnly {
			return ErrPolicyRefusal
		}
	}
	return nil
}

// rootAccessEnabledBits parses persist.sys.root_access, defaulting to 1
// when the file is absent and coercing an oversized value to 1, matching
// the fixed-buffer behavior of the source this was distilled from.
func rootAccessEnabledBits(path string) int {
	v, ok, err := androidprop.ReadSingleValue(path)
	if err != nil || !ok {
		return 1
	}
	if len(v) >= androidprop.PropertyValueMax {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
