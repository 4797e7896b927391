// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ggst

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport         = errors.New("ggst: transport failure")
	ErrAuthentication    = errors.New("ggst: envelope authentication failed")
	ErrMalformedPayload  = errors.New("ggst: malformed payload")
	ErrTokenUnavailable  = errors.New("ggst: couldn't get token")
	ErrStatsUnavailable  = errors.New("couldn't get player stats")
	ErrAvatarUnavailable = errors.New("couldn't get player avatar")
)

// MalformedPayloadError is returned when an envelope authenticates but its
// plaintext does not decode into the expected response shape.
type MalformedPayloadError struct {
	Raw []byte
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedPayload, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// Hex renders the decrypted bytes as uppercase hex for offline analysis.
func (e *MalformedPayloadError) Hex() string {
	return strings.ToUpper(hex.EncodeToString(e.Raw))
}

// Operations named in CallError.
const (
	OpStats   = "stats"
	OpAvatar  = "avatar"
	OpLogin   = "login"
	OpReplays = "replays"
)

// CallError records which API operation failed and why.
type CallError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Fatal reports whether the failed operation is a prerequisite for all
// other functionality. Callers typically restart the process on these.
func (e *CallError) Fatal() bool {
	return e.Op == OpLogin || e.Op == OpReplays
}

// IsFatal reports whether err came from a login or replay retrieval.
func IsFatal(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Fatal()
	}
	return errors.Is(err, ErrTokenUnavailable)
}
