// Copyright 2024 The esmy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package esmyerr is the single error sum type surfaced across the
// module's public API: every file-I/O, (de)serialization, or compression
// failure at any layer is wrapped in an *Error identifying which kind of
// failure it was, never swallowed or retried at this layer.
package esmyerr

import "fmt"

// Kind classifies an Error.
type Kind int

const (
	// IO covers failed filesystem operations.
	IO Kind = iota
	// Corrupt covers unexpected EOF or an invalid varint in a
	// postings/offset file — a segment that does not decode the way
	// its own format guarantees it should.
	Corrupt
	// Serialization covers MessagePack encode/decode failures.
	Serialization
	// Codec covers LZ4 compression/decompression failures.
	Codec
	// Other wraps anything else.
	Other
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case Corrupt:
		return "corrupt"
	case Serialization:
		return "serialization"
	case Codec:
		return "codec"
	default:
		return "other"
	}
}

// Error wraps an underlying cause with the Kind of failure it represents
// and the operation that failed, while remaining unwrappable via
// errors.Is/errors.As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("esmy: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("esmy: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error, returning nil if err is nil so callers can
// write `return esmyerr.Wrap(...)` unconditionally.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
