/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package handshake implements the wire protocol spoken over the
// rendezvous socket once the requestor connects: a length-prefixed
// request frame out, a short textual verdict back.
package handshake

import (
	"encoding/binary"
	"errors"
	"io"
)

// ProtocolVersion is the constant written as the first token of every
// request frame.
const ProtocolVersion = 1

// PathMax and ArgMax are written into the frame for the peer's
// information only; this side never assumes the peer validates them.
const (
	PathMax = 4096
	ArgMax  = 2097152
)

// maxResponseLen bounds the single read of the verdict string.
const maxResponseLen = 63

// ErrProtocolViolation covers a short write or a failed read. A response
// string this side cannot interpret is not an error: ReadVerdict maps it
// to VerdictDeny.
var ErrProtocolViolation = errors.New("handshake protocol violation")

// Request describes the single request frame sent to the requestor.
type Request struct {
	CallerUID uint32
	TargetUID uint32
	Bin       string
	Command   string
}

// WriteRequest writes the request frame to w in the exact field order
// the requestor expects: version, PathMax, ArgMax, caller uid, target
// uid, then each of bin and command as a 32-bit length (including the
// trailing NUL) followed by the NUL-terminated bytes.
func WriteRequest(w io.Writer, req Request) error {
	if err := writeUint32(w, ProtocolVersion); err != nil {
		return err
	}
	if err := writeUint32(w, PathMax); err != nil {
		return err
	}
	if err := writeUint32(w, ArgMax); err != nil {
		return err
	}
	if err := writeUint32(w, req.CallerUID); err != nil {
		return err
	}
	if err := writeUint32(w, req.TargetUID); err != nil {
		return err
	}
	if err := writeString(w, req.Bin); err != nil {
		return err
	}
	if err := writeString(w, req.Command); err != nil {
		return err
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	n, err := w.Write(b[:])
	if err != nil {
		return err
	}
	if n != len(b) {
		return ErrProtocolViolation
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	nulTerminated := append([]byte(s), 0)
	if err := writeUint32(w, uint32(len(nulTerminated))); err != nil {
		return err
	}
	n, err := w.Write(nulTerminated)
	if err != nil {
		return err
	}
	if n != len(nulTerminated) {
		return ErrProtocolViolation
	}
	return nil
}

// Verdict is the parsed outcome of the response frame.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictAllow
	VerdictDeny
)

// ReadVerdict reads up to 63 bytes from r, NUL-terminates the result,
// and maps it to a Verdict. Anything that isn't one of the four
// recognized shapes is treated as deny. insecurePrefix reports whether
// a recognized ALLOW or DENY arrived without the "socket:" prefix (it is
// false for an unrecognized response) -- a security-risk
// signal the caller should log, since it indicates the requestor
// answered over the legacy, less trustworthy channel.
func ReadVerdict(r io.Reader) (v Verdict, insecurePrefix bool, err error) {
	buf := make([]byte, maxResponseLen)
	n, rerr := r.Read(buf)
	if rerr != nil && rerr != io.EOF {
		return VerdictUnknown, false, ErrProtocolViolation
	}
	s := string(buf[:n])
	switch s {
	case "socket:ALLOW":
		return VerdictAllow, false, nil
	case "socket:DENY":
		return VerdictDeny, false, nil
	case "ALLOW":
		return VerdictAllow, true, nil
	case "DENY":
		return VerdictDeny, true, nil
	default:
		return VerdictDeny, false, nil
	}
}
