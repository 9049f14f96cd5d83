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

// Package esmy is an embedded full-text search library built around an
// append-only, segment-based inverted index. Documents are flat maps of
// field name to string value; callers add documents, commit them into
// immutable on-disk segments, search over those segments with structured
// queries, and periodically merge segments to bound segment count and
// reclaim space from deletions.
//
// The types in this package are the contracts shared by every other
// package in the module (seg, feature/*, query, indexmgr): the document
// model, the analyzer contract, feature self-description, and the doc
// iterator interfaces that query evaluation is built from.
package esmy
