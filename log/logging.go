/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package log is a small structured logger for the su mediator, adapted
// from the ingest client's RFC5424 logger. The network relay machinery
// from the original does not apply here -- a one-shot setuid binary has no
// peer to stream logs to -- so only the file/discard writer path survives.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

const (
	OFF      Level = 0
	DEBUG    Level = 1
	INFO     Level = 2
	WARN     Level = 3
	ERROR    Level = 4
	CRITICAL Level = 5
	FATAL    Level = 6
)

const (
	defaultDepth = 3

	defaultID = `su@1`

	maxAppname  = 48
	maxHostname = 255
)

var (
	ErrNotOpen      = errors.New("logger is not open")
	ErrInvalidLevel = errors.New("log level is invalid")
)

type Level int

type Logger struct {
	hostname string
	appname  string
	wtr      io.WriteCloser
	mtx      sync.Mutex
	lvl      Level
	hot      bool
}

// New creates a new logger writing to wtr at log level INFO.
func New(wtr io.WriteCloser) (l *Logger) {
	l = &Logger{
		wtr: wtr,
		lvl: INFO,
		hot: true,
	}
	l.guessHostnameAppname()
	return
}

// NewFile creates a logger appending to the named file, creating it if
// necessary.
func NewFile(f string) (*Logger, error) {
	fout, err := os.OpenFile(f, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return nil, err
	}
	return New(fout), nil
}

// NewDiscardLogger returns a logger that drops everything written to it.
func NewDiscardLogger() *Logger {
	return New(discardCloser(true))
}

func (l *Logger) guessHostnameAppname() {
	if l.hostname, _ = os.Hostname(); len(l.hostname) > maxHostname {
		l.hostname = l.hostname[:maxHostname]
	}
	if args := os.Args; len(args) > 0 {
		exe := filepath.Base(args[0])
		if ext := filepath.Ext(exe); len(ext) > 0 && len(ext) < len(exe) {
			exe = strings.TrimSuffix(exe, ext)
		}
		if len(exe) > maxAppname {
			exe = exe[:maxAppname]
		}
		l.appname = exe
	}
}

// Close closes the logger and its writer.
func (l *Logger) Close() (err error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if err = l.ready(); err != nil {
		return
	}
	l.hot = false
	return l.wtr.Close()
}

func (l *Logger) ready() error {
	if !l.hot {
		return ErrNotOpen
	}
	return nil
}

// SetLevelString sets the log level from a config-file style string.
func (l *Logger) SetLevelString(s string) error {
	lvl, err := LevelFromString(s)
	if err != nil {
		return err
	}
	return l.SetLevel(lvl)
}

// SetLevel sets the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Level) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if err := l.ready(); err != nil {
		return err
	}
	if !lvl.Valid() {
		return ErrInvalidLevel
	}
	l.lvl = lvl
	return nil
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) error {
	return l.output(defaultDepth, DEBUG, msg, sds...)
}

func (l *Logger) Info(msg string, sds ...rfc5424.SDParam) error {
	return l.output(defaultDepth, INFO, msg, sds...)
}

func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam) error {
	return l.output(defaultDepth, WARN, msg, sds...)
}

func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) error {
	return l.output(defaultDepth, ERROR, msg, sds...)
}

// Fatal logs at FATAL and exits the process with status 1. Callers on the
// DENY/fatal-abort paths use their own exit codes instead of this helper.
func (l *Logger) Fatal(msg string, sds ...rfc5424.SDParam) {
	l.output(defaultDepth, FATAL, msg, sds...)
	os.Exit(1)
}

func (l *Logger) output(depth int, lvl Level, msg string, sds ...rfc5424.SDParam) (err error) {
	if l.lvl == OFF || lvl < l.lvl {
		return
	}
	ts := time.Now()
	loc := callLoc(depth)
	b, merr := rfcMessage(ts, lvl.priority(), l.hostname, l.appname, loc, msg, sds...)
	if merr != nil {
		return merr
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if err = l.ready(); err != nil {
		return
	}
	_, err = l.wtr.Write(append(b, '\n'))
	return
}

func rfcMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string, sds ...rfc5424.SDParam) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  trimLength(maxHostname, hostname),
		AppName:   trimLength(maxAppname, appname),
		MessageID: trimPathLength(32, msgid),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{
			{ID: defaultID, Parameters: sds},
		}
	}
	return m.MarshalBinary()
}

func (l Level) String() string {
	switch l {
	case OFF:
		return `OFF`
	case DEBUG:
		return `DEBUG`
	case INFO:
		return `INFO`
	case WARN:
		return `WARN`
	case ERROR:
		return `ERROR`
	case CRITICAL:
		return `CRITICAL`
	case FATAL:
		return `FATAL`
	}
	return `UNKNOWN`
}

func (l Level) Valid() bool {
	return l >= OFF && l <= FATAL
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case OFF:
		return 0
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	case FATAL:
		return rfc5424.User | rfc5424.Emergency
	}
	return rfc5424.User | rfc5424.Debug
}

func LevelFromString(s string) (l Level, err error) {
	switch strings.ToUpper(s) {
	case `OFF`:
		l = OFF
	case `DEBUG`:
		l = DEBUG
	case `INFO`:
		l = INFO
	case `WARN`:
		l = WARN
	case `ERROR`:
		l = ERROR
	case `CRITICAL`:
		l = CRITICAL
	case `FATAL`:
		l = FATAL
	default:
		err = ErrInvalidLevel
	}
	return
}

type discardCloser bool

func (d discardCloser) Write(b []byte) (int, error) { return len(b), nil }
func (d discardCloser) Close() error                { return nil }

func callLoc(depth int) (s string) {
	if _, file, line, ok := runtime.Caller(depth); ok {
		dir, file := filepath.Split(file)
		file = filepath.Join(filepath.Base(dir), file)
		s = fmt.Sprintf("%s:%d", file, line)
	}
	return
}

func trimPathLength(i int, input string) string {
	if len(input) <= i {
		return input
	}
	return trimLength(i, filepath.Base(input))
}

func trimLength(i int, input string) string {
	if len(input) <= i {
		return input
	}
	return input[:i]
}
