/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package config

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is where a device may drop overrides. Its absence
	// is not an error; every field below already carries the spec-mandated
	// default.
	DefaultConfigPath = `/system/etc/su.conf`

	defaultAcceptTimeout = 20 * time.Second
	defaultLogLevel      = `WARN`
	defaultCacheDirName  = `.sockets`
	defaultShell         = `/system/bin/sh`
	defaultNotifyHelper  = `/system/bin/app_process`
)

var ErrInvalidAcceptTimeout = errors.New("accept timeout must be positive")

// Global holds the device-overridable knobs for the mediator. Every field
// has a zero value that normalize replaces with the spec default, so an
// absent or partial su.conf changes nothing.
type Global struct {
	Accept_Timeout_Seconds int
	Log_File               string
	Log_Level              string
	Cache_Dir_Name         string
	Default_Shell          string
	Notify_Helper          string
}

type cfgType struct {
	Global Global
}

// Config is the resolved, validated configuration used by the rest of the
// mediator.
type Config struct {
	AcceptTimeout time.Duration
	LogFile       string
	LogLevel      string
	CacheDirName  string
	DefaultShell  string
	NotifyHelper  string
}

// Load reads path (if it exists) and returns a fully-defaulted Config.
// A missing file yields pure defaults; a malformed one is an error.
func Load(path string) (c Config, err error) {
	var raw cfgType
	if err = LoadConfigFile(&raw, path); err != nil {
		return
	}
	c, err = raw.Global.normalize()
	return
}

func (g Global) normalize() (c Config, err error) {
	c.AcceptTimeout = defaultAcceptTimeout
	if g.Accept_Timeout_Seconds != 0 {
		if g.Accept_Timeout_Seconds < 0 {
			err = ErrInvalidAcceptTimeout
			return
		}
		c.AcceptTimeout = time.Duration(g.Accept_Timeout_Seconds) * time.Second
	}

	c.LogFile = g.Log_File

	c.LogLevel = strings.ToUpper(strings.TrimSpace(g.Log_Level))
	if c.LogLevel == `` {
		c.LogLevel = defaultLogLevel
	}

	c.CacheDirName = g.Cache_Dir_Name
	if c.CacheDirName == `` {
		c.CacheDirName = defaultCacheDirName
	}

	c.DefaultShell = g.Default_Shell
	if c.DefaultShell == `` {
		c.DefaultShell = defaultShell
	}

	c.NotifyHelper = g.Notify_Helper
	if c.NotifyHelper == `` {
		c.NotifyHelper = defaultNotifyHelper
	}
	return
}
