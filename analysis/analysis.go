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

// Package analysis holds the concrete esmy.Analyzer implementations the
// core ships with, plus the tag registry that lets a reopened segment
// resolve the analyzer it was written with (schema descriptors only
// persist a stable tag string, never an analyzer instance).
//
// The analyzer contract itself (esmy.Analyzer) is specified, not
// implemented, by the core per spec.md's scope: everything in this
// package is a usable-but-swappable default, not a sealed system.
package analysis

import (
	"fmt"
	"sync"

	"github.com/doublemo/esmy"
)

var (
	mu       sync.RWMutex
	registry = map[string]esmy.Analyzer{}
)

// Register makes an analyzer available to be looked up later by its tag.
// Feature readers call Get during segment open to recover the analyzer a
// string-index or string-pos-index feature was built with.
func Register(a esmy.Analyzer) {
	mu.Lock()
	defer mu.Unlock()
	registry[a.Tag()] = a
}

// Get looks up a previously-registered analyzer by tag.
func Get(tag string) (esmy.Analyzer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := registry[tag]
	return a, ok
}

// MustGet is like Get but panics if the tag is unknown; used where an
// unknown analyzer tag means the segment meta itself is corrupt or was
// written by a build carrying an analyzer this one never registered.
func MustGet(tag string) esmy.Analyzer {
	a, ok := Get(tag)
	if !ok {
		panic(fmt.Sprintf("esmy/analysis: unregistered analyzer tag %q", tag))
	}
	return a
}

func init() {
	Register(Noop{})
	Register(Simple{})
}
