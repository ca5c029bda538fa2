/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package config loads the optional su.conf override file.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gravwell/gcfg"
)

const (
	kb = 1024
	mb = 1024 * kb

	maxConfigSize int64 = 4 * mb
)

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
)

// LoadConfigFile opens a config file, checks its size, and loads its bytes
// into v using LoadConfigBytes. A missing file is not an error: the
// mediator runs entirely on defaults when no override is installed.
func LoadConfigFile(v interface{}, p string) (err error) {
	var fin *os.File
	var fi os.FileInfo
	var n int64
	if fin, err = os.Open(p); err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
		return
	}
	defer fin.Close()
	if fi, err = fin.Stat(); err != nil {
		return
	} else if fi.Size() > maxConfigSize {
		err = ErrConfigFileTooLarge
		return
	}

	bb := bytes.NewBuffer(nil)
	if n, err = io.Copy(bb, fin); err != nil {
		return
	} else if n != fi.Size() {
		err = ErrFailedFileRead
		return
	}
	err = LoadConfigBytes(v, bb.Bytes())
	return
}

// LoadConfigBytes parses the contents of b into the given interface v.
func LoadConfigBytes(v interface{}, b []byte) error {
	if int64(len(b)) > maxConfigSize {
		return ErrConfigFileTooLarge
	}
	return gcfg.ReadStringInto(v, string(b))
}
