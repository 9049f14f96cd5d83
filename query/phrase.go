package query

import "github.com/doublemo/esmy"

// OrderedNearDocIter wraps N DocSpansIter sub-iterators and matches
// ordered, adjacent token sequences: for each doc the conjunctive
// advance agrees on, it drains every sub's positions into a set and
// looks for a start position p such that p+k is present in sub k's set
// for every k in [0, N) (spec.md §4.8). Doc-level matching is O(1)
// amortized via AllDocIter; position matching is O(P) per doc, where P
// is the total position count across the N subs — acceptable for the
// short phrases (< 8 tokens) this module targets (spec.md §9).
type OrderedNearDocIter struct {
	subs []esmy.DocSpansIter
	conj *AllDocIter

	cur     esmy.DocId
	started bool

	starts []uint64
	idx    int
}

// NewOrderedNearDocIter builds a phrase iterator over subs, one per
// query token in order.
func NewOrderedNearDocIter(subs []esmy.DocSpansIter) *OrderedNearDocIter {
	docIters := make([]esmy.DocIter, len(subs))
	for i, s := range subs {
		docIters[i] = s
	}
	return &OrderedNearDocIter{subs: subs, conj: NewAllDocIter(docIters)}
}

func (o *OrderedNearDocIter) NextDoc() (esmy.DocId, bool) {
	for {
		d, ok := o.conj.NextDoc()
		if !ok {
			return 0, false
		}
		starts := o.computeStarts()
		if len(starts) == 0 {
			continue
		}
		o.cur = d
		o.started = true
		o.starts = starts
		o.idx = 0
		return d, true
	}
}

// computeStarts drains every sub's positions for the doc the conjunctive
// advance just landed on, then returns the ascending list of start
// positions p such that sub k holds p+k for every k.
func (o *OrderedNearDocIter) computeStarts() []uint64 {
	n := len(o.subs)
	sets := make([]map[uint64]struct{}, n)
	var firstOrdered []uint64
	for k := 0; k < n; k++ {
		set := make(map[uint64]struct{})
		for {
			p, ok := o.subs[k].NextStartPos()
			if !ok {
				break
			}
			set[p] = struct{}{}
			if k == 0 {
				firstOrdered = append(firstOrdered, p)
			}
		}
		sets[k] = set
	}

	var out []uint64
	for _, p := range firstOrdered {
		match := true
		for k := 1; k < n; k++ {
			if _, ok := sets[k][p+uint64(k)]; !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, p)
		}
	}
	return out
}

func (o *OrderedNearDocIter) CurrentDoc() (esmy.DocId, bool) {
	if !o.started {
		return 0, false
	}
	return o.cur, true
}

func (o *OrderedNearDocIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	return esmy.DefaultAdvance(o, target)
}

// NextStartPos yields the phrase's match start positions within the
// current document, ascending.
func (o *OrderedNearDocIter) NextStartPos() (uint64, bool) {
	if o.idx >= len(o.starts) {
		return 0, false
	}
	p := o.starts[o.idx]
	o.idx++
	return p, true
}

// EndPos is the exclusive end of an N-token phrase match starting at
// startPos.
func (o *OrderedNearDocIter) EndPos(startPos uint64) uint64 {
	return startPos + uint64(len(o.subs))
}
