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

// Package stringposindex implements positional string postings: ordered
// phrase matching over an analyzed field (spec.md §4.6).
//
// On disk, relative to feature/stringindex's layout: "<seg>.<key>.tid"
// is the same FST term dictionary, but its "<seg>.<key>.iddoc" entries
// additionally carry, per doc, a delta-encoded offset into
// "<seg>.<key>.pos" where that document's position list lives;
// "<seg>.<key>.pos" holds, per (term, doc), vint(position count)
// followed by ascending delta-encoded token positions.
package stringposindex

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/seg"
)

// TypeTag identifies this feature in a segment's meta file.
const TypeTag = "string_pos_index"

// Feature is the positional string index's esmy.Feature implementation.
type Feature struct {
	key         string
	analyzerTag string
}

// New constructs a positional string index feature for the given schema
// key (field name), tokenizing values with the named analyzer.
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
