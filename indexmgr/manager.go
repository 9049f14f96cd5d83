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

// Package indexmgr implements the concurrent index manager: the
// in-memory document buffer, segment lifecycle, auto-merge policy,
// deletion bitmaps, and reference-counted reader snapshots (spec.md
// §4.9, §4.10, §5).
package indexmgr

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/query"
	"github.com/doublemo/esmy/seg"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Manager is the concurrent writer controlling one index directory. Its
// public methods are safe to call from multiple goroutines concurrently
// (spec.md §5): add_doc, commit, delete, force_merge, and open_reader
// may all race with each other.
type Manager struct {
	dir    string
	schema seg.Schema
	logger *zap.Logger

	autoCommit      bool
	autoMerge       bool
	bufferThreshold int

	bufMu       sync.Mutex
	docsToIndex []esmy.Document

	segMu          sync.RWMutex
	activeSegments map[string]*SegRef
	waitingMerge   map[string]bool

	pool   *pool
	status atomic.Error
}

// Stats is the introspection surface over a Manager's current state
// (the original's num_docs()/num_segments(), carried per SPEC_FULL's
// supplemented features).
type Stats struct {
	NumDocs      uint64
	NumSegments  int
	BufferedDocs int
}

// Open opens (or creates) an index directory under schema, reloading any
// segments and deletion bitmaps already on disk (spec.md §7: "on open,
// bitmaps are reloaded").
func Open(dir string, schema seg.Schema, opts ...Option) (*Manager, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "indexmgr.Open", err)
	}

	m := &Manager{
		dir:             dir,
		schema:          schema,
		logger:          cfg.logger,
		autoCommit:      cfg.autoCommit,
		autoMerge:       cfg.autoMerge,
		bufferThreshold: cfg.bufferThreshold,
		activeSegments:  make(map[string]*SegRef),
		waitingMerge:    make(map[string]bool),
		pool:            newPool(cfg.workerPoolSize, cfg.logger),
	}

	if err := m.loadExistingSegments(); err != nil {
		m.pool.close()
		return nil, err
	}

	return m, nil
}

func (m *Manager) loadExistingSegments() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return esmyerr.Wrap(esmyerr.IO, "indexmgr.loadExistingSegments", err)
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".seg") {
			continue
		}
		segName := strings.TrimSuffix(name, ".seg")
		addr := esmy.SegAddress{Dir: m.dir, Name: segName}

		info, err := seg.OpenInfo(addr)
		if err != nil {
			return err
		}
		deletions, err := seg.LoadDeletions(addr)
		if err != nil {
			return err
		}
		m.activeSegments[segName] = newSegRef(info, deletions)
	}
	return nil
}

// Close stops the background worker pool. Any segments still referenced
// by an open ManagedIndexReader are left on disk; Close does not wait
// for readers to close.
func (m *Manager) Close() {
	m.pool.close()
}

// recordStatus stashes a background job's error so the next foreground
// operation can surface it (spec.md §7).
func (m *Manager) recordStatus(err error) {
	m.status.Store(err)
}

// takeStatus returns and clears the last recorded background error, if
// any.
func (m *Manager) takeStatus() error {
	return m.status.Swap(nil)
}

// AddDoc appends doc to the in-memory buffer. If auto-commit is enabled
// and the buffer has grown past the threshold, a copy is handed off to
// the worker pool to be written as a new segment; if more than 50 jobs
// are queued or running, AddDoc first blocks until the count falls back
// to 50 (spec.md §4.9, §5).
func (m *Manager) AddDoc(doc esmy.Document) error {
	m.bufMu.Lock()
	m.docsToIndex = append(m.docsToIndex, doc.Clone())
	shouldFlush := m.autoCommit && len(m.docsToIndex) > m.bufferThreshold
	var toFlush []esmy.Document
	if shouldFlush {
		toFlush = m.docsToIndex
		m.docsToIndex = nil
	}
	m.bufMu.Unlock()

	if shouldFlush {
		m.pool.waitForCapacity(defaultBackpressureDepth)
		m.pool.submit(func() error { return m.flushSegment(toFlush) }, m.recordStatus)
	}

	return m.takeStatus()
}

// Commit drains all pending background jobs, then synchronously writes
// any remaining buffered documents into a new segment. Documents added
// before Commit returns are durable in segment meta on disk after
// return (spec.md §5).
func (m *Manager) Commit() error {
	m.pool.drain()

	m.bufMu.Lock()
	toFlush := m.docsToIndex
	m.docsToIndex = nil
	m.bufMu.Unlock()

	if len(toFlush) > 0 {
		if err := m.flushSegment(toFlush); err != nil {
			return err
		}
	}

	return m.takeStatus()
}

// flushSegment writes docs into a brand-new segment and registers it as
// live; if auto-merge is enabled it then schedules any merges the
// tiered policy now calls for.
func (m *Manager) flushSegment(docs []esmy.Document) error {
	if len(docs) == 0 {
		return nil
	}

	addr, err := seg.NewAddress(m.dir)
	if err != nil {
		return err
	}
	if err := seg.WriteSegment(m.schema, addr, docs); err != nil {
		return err
	}

	info, err := seg.OpenInfo(addr)
	if err != nil {
		return err
	}

	m.segMu.Lock()
	m.activeSegments[addr.Name] = newSegRef(info, seg.NewDeletionSet())
	m.segMu.Unlock()

	m.logger.Info("indexmgr: flushed segment", zap.String("segment", addr.Name), zap.Uint64("docs", info.DocCount))

	if m.autoMerge {
		m.scheduleMerges()
	}
	return nil
}

// scheduleMerges runs the tiered merge policy and submits a background
// job for every stage it selects.
func (m *Manager) scheduleMerges() {
	for _, stage := range m.findMerges() {
		stage := stage
		m.pool.submit(func() error { return m.runMerge(stage) }, m.recordStatus)
	}
}

// ForceMerge drains pending jobs, then collapses every live segment
// into one, ignoring the tiered policy (spec.md §4.9).
func (m *Manager) ForceMerge() error {
	m.pool.drain()

	m.segMu.Lock()
	var all []*SegRef
	for name, ref := range m.activeSegments {
		if m.waitingMerge[name] {
			continue
		}
		all = append(all, ref)
		m.waitingMerge[name] = true
	}
	m.segMu.Unlock()

	if len(all) < 2 {
		m.segMu.Lock()
		for _, ref := range all {
			delete(m.waitingMerge, ref.info.Address.Name)
		}
		m.segMu.Unlock()
		return m.takeStatus()
	}

	if err := m.runMerge(all); err != nil {
		return err
	}
	return m.takeStatus()
}

// runMerge merges sources into one new segment, then atomically swaps
// the active-segment map under the lock: the new segment replaces every
// source, and each source's SegRef is marked delete_on_drop and
// released — files are only actually removed once no reader still
// holds that source (spec.md §4.9 "Merge completion").
func (m *Manager) runMerge(sources []*SegRef) error {
	mergeSources := make([]seg.MergeSource, len(sources))
	for i, ref := range sources {
		mergeSources[i] = seg.MergeSource{Info: ref.info, Deletions: ref.deletionsSnapshot()}
	}

	newAddr, err := seg.NewAddress(m.dir)
	if err != nil {
		return err
	}
	newInfo, err := seg.MergeSegments(m.schema, mergeSources, newAddr)
	if err != nil {
		return err
	}

	newRef := newSegRef(newInfo, seg.NewDeletionSet())

	m.segMu.Lock()
	for _, ref := range sources {
		name := ref.info.Address.Name
		delete(m.activeSegments, name)
		delete(m.waitingMerge, name)
		ref.deleteOnDrop.Store(true)
	}
	m.activeSegments[newAddr.Name] = newRef
	m.segMu.Unlock()

	for _, ref := range sources {
		if err := ref.Release(); err != nil {
			m.logger.Warn("indexmgr: failed to reclaim merged segment", zap.Error(err))
		}
	}

	m.logger.Info("indexmgr: merged segments", zap.Int("sources", len(sources)), zap.String("segment", newAddr.Name), zap.Uint64("docs", newInfo.DocCount))
	return nil
}

// findMerges implements the tiered merge policy of spec.md §4.9: sort
// live (not already waiting-merge) segments by doc count descending,
// greedily group each anchor with successors whose doc count exceeds
// 60% of the anchor's, and select any resulting stage with more than 10
// segments.
func (m *Manager) findMerges() [][]*SegRef {
	m.segMu.Lock()
	defer m.segMu.Unlock()

	var candidates []*SegRef
	for name, ref := range m.activeSegments {
		if m.waitingMerge[name] {
			continue
		}
		candidates = append(candidates, ref)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].info.DocCount > candidates[j].info.DocCount
	})

	var stages [][]*SegRef
	i := 0
	for i < len(candidates) {
		anchor := candidates[i]
		stage := []*SegRef{anchor}
		j := i + 1
		for j < len(candidates) && float64(candidates[j].info.DocCount) > float64(anchor.info.DocCount)*0.6 {
			stage = append(stage, candidates[j])
			j++
		}
		if len(stage) > 10 {
			stages = append(stages, stage)
			for _, ref := range stage {
				m.waitingMerge[ref.info.Address.Name] = true
			}
		}
		i = j
	}
	return stages
}

// Delete marks every document matching q as deleted, across every live
// segment, and filters the in-memory buffer so the same query never
// matches a still-buffered document either (spec.md §4.9).
func (m *Manager) Delete(q query.Query) error {
	m.segMu.RLock()
	segs := make([]*SegRef, 0, len(m.activeSegments))
	for _, ref := range m.activeSegments {
		segs = append(segs, ref)
	}
	m.segMu.RUnlock()

	for _, ref := range segs {
		reader, err := seg.OpenWithInfo(ref.info)
		if err != nil {
			return err
		}
		it, err := q.SegmentMatches(reader)
		closeErr := reader.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
		if it == nil {
			continue
		}

		var ids []uint64
		for {
			d, ok := it.NextDoc()
			if !ok {
				break
			}
			ids = append(ids, uint64(d))
		}
		if len(ids) == 0 {
			continue
		}
		if err := ref.markDeleted(ids); err != nil {
			return err
		}
	}

	m.bufMu.Lock()
	filtered := m.docsToIndex[:0]
	for _, d := range m.docsToIndex {
		if !q.Matches(d) {
			filtered = append(filtered, d)
		}
	}
	m.docsToIndex = filtered
	m.bufMu.Unlock()

	return nil
}

// OpenReader snapshots the current active-segment set, retaining a
// reference to each and opening its feature readers, and returns a
// ManagedIndexReader holding them. Because each SegRef is retained, and
// each deletion bitmap cloned at snapshot time, the returned reader is
// unaffected by merges or deletions performed after it is opened
// (spec.md §5, §9).
func (m *Manager) OpenReader() (*ManagedIndexReader, error) {
	m.segMu.RLock()
	refs := make([]*SegRef, 0, len(m.activeSegments))
	for _, ref := range m.activeSegments {
		refs = append(refs, ref.Retain())
	}
	m.segMu.RUnlock()

	entries := make([]readerEntry, 0, len(refs))
	for i, ref := range refs {
		sr, err := seg.OpenWithInfo(ref.info)
		if err != nil {
			for _, e := range entries {
				_ = e.reader.Close()
				_ = e.ref.Release()
			}
			for _, r := range refs[i:] {
				_ = r.Release()
			}
			return nil, err
		}
		entries = append(entries, readerEntry{
			ref:       ref,
			reader:    sr,
			deletions: ref.deletionsSnapshot(),
		})
	}

	return &ManagedIndexReader{entries: entries}, nil
}

// Stats reports the manager's current live state.
func (m *Manager) Stats() Stats {
	m.segMu.RLock()
	defer m.segMu.RUnlock()

	var numDocs uint64
	for _, ref := range m.activeSegments {
		numDocs += ref.liveDocCount()
	}

	m.bufMu.Lock()
	buffered := len(m.docsToIndex)
	m.bufMu.Unlock()

	return Stats{NumDocs: numDocs, NumSegments: len(m.activeSegments), BufferedDocs: buffered}
}

// DocumentIter scans the in-memory buffer as of the call, for callers
// that want to inspect not-yet-committed documents (spec.md §9
// supplemented feature, from the original's index_manager.rs
// DocumentIter).
func (m *Manager) DocumentIter() []esmy.Document {
	m.bufMu.Lock()
	defer m.bufMu.Unlock()
	out := make([]esmy.Document, len(m.docsToIndex))
	copy(out, m.docsToIndex)
	return out
}
