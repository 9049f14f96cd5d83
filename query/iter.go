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

// Package query implements DocId iteration and combination: the
// conjunctive "advance" combinator, the ordered-near (phrase)
// combinator, and the concrete Query types exposed to callers (spec.md
// §4.8, plus the OrQuery combinator supplementing spec.md's AllQuery).
package query

import (
	"container/heap"

	"github.com/doublemo/esmy"
)

// MatchAllIter yields every DocId in [0, docCount) ascending, backing
// MatchAllDocsQuery.
type MatchAllIter struct {
	docCount esmy.DocId
	next     esmy.DocId
	cur      esmy.DocId
	started  bool
}

// NewMatchAllIter returns an iterator over every DocId in [0, docCount).
func NewMatchAllIter(docCount uint64) *MatchAllIter {
	return &MatchAllIter{docCount: esmy.DocId(docCount)}
}

func (m *MatchAllIter) NextDoc() (esmy.DocId, bool) {
	if m.next >= m.docCount {
		return 0, false
	}
	m.cur = m.next
	m.next++
	m.started = true
	return m.cur, true
}

func (m *MatchAllIter) CurrentDoc() (esmy.DocId, bool) {
	if !m.started {
		return 0, false
	}
	return m.cur, true
}

func (m *MatchAllIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	if target > m.next {
		m.next = target
	}
	return m.NextDoc()
}

// AllDocIter is the conjunctive ("AND") combinator over N sub-iterators,
// implementing the default advance-based merge algorithm of spec.md
// §4.8: pick the first sub's next doc as a candidate target, advance
// every other sub to it round-robin, and whenever one lands past the
// current target, adopt its doc as the new target and keep cycling
// until every sub agrees.
type AllDocIter struct {
	subs      []esmy.DocIter
	cur       esmy.DocId
	started   bool
	exhausted bool
}

// NewAllDocIter builds a conjunction over subs. An empty subs list
// yields nothing.
func NewAllDocIter(subs []esmy.DocIter) *AllDocIter {
	return &AllDocIter{subs: subs}
}

func (a *AllDocIter) NextDoc() (esmy.DocId, bool) {
	if a.exhausted || len(a.subs) == 0 {
		a.exhausted = true
		return 0, false
	}

	target, ok := a.subs[0].NextDoc()
	if !ok {
		a.exhausted = true
		return 0, false
	}

	agreeing := 1
	idx := 1 % len(a.subs)
	for agreeing < len(a.subs) {
		got, ok := a.subs[idx].Advance(target)
		if !ok {
			a.exhausted = true
			return 0, false
		}
		if got == target {
			agreeing++
			idx = (idx + 1) % len(a.subs)
			continue
		}
		target = got
		agreeing = 1
		idx = (idx + 1) % len(a.subs)
	}

	a.cur = target
	a.started = true
	return target, true
}

func (a *AllDocIter) CurrentDoc() (esmy.DocId, bool) {
	if !a.started {
		return 0, false
	}
	return a.cur, true
}

func (a *AllDocIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	return esmy.DefaultAdvance(a, target)
}

// orItem is one sub-iterator tracked in OrIter's min-heap: its current
// doc plus the iterator itself, so advancing it on pop is a single call.
type orItem struct {
	it  esmy.DocIter
	doc esmy.DocId
}

type orHeap []*orItem

func (h orHeap) Len() int            { return len(h) }
func (h orHeap) Less(i, j int) bool  { return h[i].doc < h[j].doc }
func (h orHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *orHeap) Push(x interface{}) { *h = append(*h, x.(*orItem)) }
func (h *orHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// OrIter is the disjunctive ("OR") combinator over N sub-iterators: a
// min-heap keyed by each sub's current doc, yielding the union of their
// DocIds in ascending, deduplicated order.
type OrIter struct {
	subs        []esmy.DocIter
	h           orHeap
	initialized bool
	cur         esmy.DocId
	started     bool
}

// NewOrIter builds a union over subs.
func NewOrIter(subs []esmy.DocIter) *OrIter {
	return &OrIter{subs: subs}
}

func (o *OrIter) init() {
	o.initialized = true
	for _, s := range o.subs {
		if d, ok := s.NextDoc(); ok {
			o.h = append(o.h, &orItem{it: s, doc: d})
		}
	}
	heap.Init(&o.h)
}

func (o *OrIter) NextDoc() (esmy.DocId, bool) {
	if !o.initialized {
		o.init()
	}
	if len(o.h) == 0 {
		return 0, false
	}

	top := heap.Pop(&o.h).(*orItem)
	cur := top.doc
	o.advanceItem(top)
	for len(o.h) > 0 && o.h[0].doc == cur {
		dup := heap.Pop(&o.h).(*orItem)
		o.advanceItem(dup)
	}

	o.cur = cur
	o.started = true
	return cur, true
}

func (o *OrIter) advanceItem(item *orItem) {
	d, ok := item.it.NextDoc()
	if !ok {
		return
	}
	item.doc = d
	heap.Push(&o.h, item)
}

func (o *OrIter) CurrentDoc() (esmy.DocId, bool) {
	if !o.started {
		return 0, false
	}
	return o.cur, true
}

func (o *OrIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	return esmy.DefaultAdvance(o, target)
}
