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

// Package vint implements the variable-length unsigned integer codec
// every on-disk postings and offset format in this module is built on:
// 7-bit little-endian groups with a high-bit continuation flag.
package vint

import (
	"io"

	"github.com/doublemo/esmy/esmyerr"
)

// MaxLen is the largest number of bytes Encode ever produces for a
// uint64 (ceil(64/7) = 10).
const MaxLen = 10

// Encode appends the varint encoding of v to buf and returns the
// extended slice along with the number of bytes written.
func Encode(buf []byte, v uint64) ([]byte, int) {
	start := len(buf)
	for v >= 0x80 {
		buf = append(buf, byte(v&0x7f)|0x80)
		v >>= 7
	}
	buf = append(buf, byte(v))
	return buf, len(buf) - start
}

// Write encodes v and writes it to w, returning the number of bytes
// written.
func Write(w io.Writer, v uint64) (int, error) {
	var tmp [MaxLen]byte
	n := 0
	for v >= 0x80 {
		tmp[n] = byte(v&0x7f) | 0x80
		v >>= 7
		n++
	}
	tmp[n] = byte(v)
	n++
	written, err := w.Write(tmp[:n])
	if err != nil {
		return written, esmyerr.Wrap(esmyerr.IO, "vint.Write", err)
	}
	return written, nil
}

// Decode reads a varint starting at buf[0], returning the decoded value
// and the number of bytes consumed. ok is false if buf is exhausted
// before a terminating byte (high bit clear) is found.
func Decode(buf []byte) (v uint64, n int, ok bool) {
	var shift uint
	for n < len(buf) {
		b := buf[n]
		v |= uint64(b&0x7f) << shift
		n++
		if b&0x80 == 0 {
			return v, n, true
		}
		shift += 7
	}
	return 0, n, false
}

// byteReader is satisfied by bufio.Reader and bytes.Reader, the two
// readers every caller in this module actually passes.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// Read decodes a single varint from r, returning the number of bytes
// consumed.
func Read(r byteReader) (uint64, int, error) {
	var v uint64
	var shift uint
	var n int
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				return 0, n, esmyerr.Wrap(esmyerr.Corrupt, "vint.Read", io.ErrUnexpectedEOF)
			}
			return 0, n, esmyerr.Wrap(esmyerr.IO, "vint.Read", err)
		}
		n++
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, n, nil
		}
		shift += 7
	}
}
