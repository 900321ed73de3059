// Copyright 2021 Shiwen Cheng. All rights reserved.
// Use of this source code is governed by a MIT
// license that can be found in the LICENSE file.

package relay

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrWrongFieldCount  = errors.New("line must have exactly 3 fields")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// DecodeError means the event envelope could not be used; nothing is written for it.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event: %s", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

type LineParseError struct {
	Line  string
	Cause error
}

func (e *LineParseError) Error() string {
	return fmt.Sprintf("parse line %q: %s", e.Line, e.Cause)
}

func (e *LineParseError) Unwrap() error {
	return e.Cause
}

type SinkWriteError struct {
	Series string
	Cause  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write series %s: %s", e.Series, e.Cause)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Cause
}
