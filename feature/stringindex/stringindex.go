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

// Package stringindex implements non-positional string postings:
// field == term exact match under a chosen analyzer (spec.md §4.5).
//
// On disk: "<seg>.<key>.tid" is a minimal ordered FST mapping a token's
// bytes to its byte offset into "<seg>.<key>.iddoc", which holds, for
// each token in sort order, vint(doc count) followed by delta-encoded
// ascending DocIds.
package stringindex

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/seg"
)

// TypeTag identifies this feature in a segment's meta file.
const TypeTag = "string_index"

// Feature is the non-positional string index's esmy.Feature
// implementation.
type Feature struct {
	key         string
	analyzerTag string
}

// New constructs a string index feature for the given schema key
// (field name), tokenizing values with the named analyzer.
func New(key, analyzerTag string) *Feature {
	return &Feature{key: key, analyzerTag: analyzerTag}
}

func (f *Feature) TypeTag() string     { return TypeTag }
func (f *Feature) Key() string         { return f.key }
func (f *Feature) AnalyzerTag() string { return f.analyzerTag }

func (f *Feature) ToConfig() esmy.Config {
	return esmy.ConfigFromMap(map[string]esmy.Config{
		"analyzer": esmy.ConfigFromString(f.analyzerTag),
	})
}

func factory(key string, cfg esmy.Config) (esmy.Feature, error) {
	return &Feature{key: key, analyzerTag: cfg.StringField("analyzer")}, nil
}

func init() {
	seg.RegisterFeature(TypeTag, factory)
}
