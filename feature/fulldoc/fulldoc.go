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

// Package fulldoc implements the full-document store feature: per
// segment, compressed block-oriented storage of whole documents with a
// random-access offset table (spec.md §4.4).
//
// On disk: "<seg>.fdo" is a fixed-width table of one big-endian uint64
// offset per document (low 12 bits = index of the doc within its
// compression block, high 52 bits = the file offset where that block
// begins); "<seg>.fdv" is a sequence of independently decompressable
// LZ4 blocks, each holding up to maxBlockDocs MessagePack-encoded
// documents concatenated.
package fulldoc

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/seg"
)

const (
	// TypeTag identifies this feature in a segment's meta file.
	TypeTag = "full_doc"

	// blockDocBits is the number of low bits of a .fdo entry reserved
	// for the in-block document index; 12 bits caps a block at 4096
	// docs, per spec.md §4.4.
	blockDocBits = 12

	// DefaultMaxBlockDocs is the default (and spec-mandated maximum,
	// since the offset encoding only has 12 bits to spare) block size.
	DefaultMaxBlockDocs = 1 << blockDocBits

	blockOffsetMask = DefaultMaxBlockDocs - 1
)

// Feature is the full-document store's esmy.Feature implementation.
type Feature struct {
	key          string
	maxBlockDocs uint64
}

// New constructs a full-doc feature for the given schema key, using the
// spec-mandated 4096-doc block size.
func New(key string) *Feature {
	return &Feature{key: key, maxBlockDocs: DefaultMaxBlockDocs}
}

func (f *Feature) TypeTag() string { return TypeTag }
func (f *Feature) Key() string     { return f.key }

func (f *Feature) ToConfig() esmy.Config {
	return esmy.ConfigFromMap(map[string]esmy.Config{
		"max_block_docs": esmy.ConfigFromInt(int64(f.maxBlockDocs)),
	})
}

func factory(key string, cfg esmy.Config) (esmy.Feature, error) {
	maxBlockDocs := uint64(DefaultMaxBlockDocs)
	if v, ok := cfg.Field("max_block_docs"); ok {
		maxBlockDocs = uint64(v.Int)
	}
	return &Feature{key: key, maxBlockDocs: maxBlockDocs}, nil
}

func init() {
	seg.RegisterFeature(TypeTag, factory)
}

// packOffset combines a block's starting file offset with a document's
// index within that block into one .fdo entry.
func packOffset(blockFileOffset int64, blockDocIdx uint64) uint64 {
	return uint64(blockFileOffset)<<blockDocBits | (blockDocIdx & blockOffsetMask)
}

func unpackOffset(v uint64) (blockFileOffset int64, blockDocIdx uint64) {
	return int64(v >> blockDocBits), v & blockOffsetMask
}
