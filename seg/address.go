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

// Package seg implements segment addressing, the feature registry and
// schema, and the segment writer/reader/merger that orchestrate a
// schema's features for a given segment (spec.md §4.2, §4.3, §4.7).
package seg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/gofrs/uuid"
)

const nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAddress allocates a fresh segment address under dir, naming it with
// a random 10-char alphanumeric string folded from a v4 UUID's bytes —
// the same "opaque random id" idiom the teacher uses gofrs/uuid for
// elsewhere, just base36-folded down to the 10 characters the spec
// requires instead of used as a full UUID string.
func NewAddress(dir string) (esmy.SegAddress, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return esmy.SegAddress{}, esmyerr.Wrap(esmyerr.Other, "seg.NewAddress", err)
	}
	return esmy.SegAddress{Dir: dir, Name: foldName(id)}, nil
}

func foldName(id uuid.UUID) string {
	b := id.Bytes()
	out := make([]byte, 10)
	for i := range out {
		out[i] = nameAlphabet[b[i]%byte(len(nameAlphabet))]
	}
	return string(out)
}

// CreateFile creates (or truncates) one of addr's files for writing.
func CreateFile(addr esmy.SegAddress, suffix string) (*os.File, error) {
	f, err := os.Create(addr.WithEnding(suffix))
	if err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "seg.CreateFile", err)
	}
	return f, nil
}

// OpenFile opens one of addr's files for reading.
func OpenFile(addr esmy.SegAddress, suffix string) (*os.File, error) {
	f, err := os.Open(addr.WithEnding(suffix))
	if err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "seg.OpenFile", err)
	}
	return f, nil
}

// FileExists reports whether one of addr's files is present.
func FileExists(addr esmy.SegAddress, suffix string) bool {
	_, err := os.Stat(addr.WithEnding(suffix))
	return err == nil
}

// RemoveFile removes one of addr's files. Missing files are not an
// error: callers remove feature file sets that may be partially or
// wholly absent by construction (see esmy.Feature's idempotence
// requirement).
func RemoveFile(addr esmy.SegAddress, suffix string) error {
	err := os.Remove(addr.WithEnding(suffix))
	if err != nil && !os.IsNotExist(err) {
		return esmyerr.Wrap(esmyerr.IO, "seg.RemoveFile", err)
	}
	return nil
}

// RemoveFiles removes every file belonging to addr: it scans addr.Dir
// once and deletes every entry whose name begins with "<addr.Name>.".
// Callers only invoke this once no live reference to the segment
// remains (manager's SegRef.delete_on_drop contract).
func RemoveFiles(addr esmy.SegAddress) error {
	entries, err := os.ReadDir(addr.Dir)
	if err != nil {
		return esmyerr.Wrap(esmyerr.IO, "seg.RemoveFiles", err)
	}
	prefix := addr.Name + "."
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(addr.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return esmyerr.Wrap(esmyerr.IO, "seg.RemoveFiles", err)
		}
	}
	return nil
}
