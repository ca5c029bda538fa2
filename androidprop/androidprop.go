/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package androidprop reads Android-style key=value property files
// (build.prop, default.prop, and the single-value files under
// /data/property). No third-party parser in the corpus speaks this format,
// so this package is a deliberate, narrow exception to the third-party-first
// rule -- see the grounding ledger for the justification.
package androidprop

import (
	"bufio"
	"os"
	"strings"
)

// maxFileSize guards against reading an attacker-controlled or corrupt
// property file without bound; real property files are a few kilobytes.
const maxFileSize = 256 * 1024

// PropertyValueMax mirrors the platform's PROPERTY_VALUE_MAX. A handful of
// policy decisions key off whether a value's textual length reaches this
// limit.
const PropertyValueMax = 92

// Properties is a parsed key=value property file.
type Properties map[string]string

// Load reads and parses the property file at path. A missing file yields an
// empty, non-nil Properties value rather than an error: callers that only
// care whether a particular key is present treat empty and absent the same
// way.
func Load(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Properties{}, nil
		}
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxFileSize {
		return nil, os.ErrInvalid
	}

	props := make(Properties)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// Has reports whether key is present in the file, regardless of value --
// mirrors the source's check_property, which only tests for presence.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Get returns the value for key, or def if key is absent.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// ReadSingleValue reads a single-value property file such as
// /data/property/persist.sys.root_access, where the entire file content (not
// key=value) is the property's value. A missing file returns ("", false).
// A value whose length reaches PropertyValueMax is reported via the second
// return only as present; callers decide how to coerce an oversized value.
func ReadSingleValue(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if len(b) > maxFileSize {
		return "", false, os.ErrInvalid
	}
	return strings.TrimRight(string(b), "\n"), true, nil
}
