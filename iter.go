package esmy

// DocIter yields ascending, unique DocIds. It is the building block every
// query evaluates to: a single term's postings list, or a conjunction /
// disjunction over several.
//
// advance is the default conjunctive fast-forward: repeatedly call
// NextDoc until a doc >= target is found or the iterator is exhausted.
// Implementations that support skip-lists may override it; nothing in
// this package requires that they do.
type DocIter interface {
	// NextDoc advances to, and returns, the next doc id. Returns
	// (0, false) once exhausted.
	NextDoc() (DocId, bool)

	// CurrentDoc returns the last doc id yielded by NextDoc, or
	// (0, false) if NextDoc has not yielded one yet. Once the iterator
	// is exhausted, CurrentDoc keeps returning the last doc it yielded.
	CurrentDoc() (DocId, bool)

	// Advance fast-forwards to the first doc >= target, returning it,
	// or (0, false) if the iterator is exhausted before reaching it.
	Advance(target DocId) (DocId, bool)
}

// DocSpansIter extends DocIter with per-position iteration within the
// current document, enabling ordered phrase matching.
type DocSpansIter interface {
	DocIter

	// NextStartPos returns the next candidate span start position within
	// the current document, or (0, false) once all positions for this
	// document have been consumed.
	NextStartPos() (uint64, bool)

	// EndPos returns the exclusive end position of the span that began
	// at the most recently returned start position.
	EndPos(startPos uint64) uint64
}

// DefaultAdvance implements the default conjunctive fast-forward
// described above. Go interfaces can't share a default method body, so
// concrete iterators that have no faster (e.g. skip-list-backed)
// strategy call this from their own Advance method.
func DefaultAdvance(it DocIter, target DocId) (DocId, bool) {
	cur, ok := it.CurrentDoc()
	if ok && cur >= target {
		return cur, true
	}
	for {
		d, ok := it.NextDoc()
		if !ok {
			return 0, false
		}
		if d >= target {
			return d, true
		}
	}
}

// EmptyDocIter never yields anything. The query types in package query
// do not use it: they report "no match in this segment" with a nil
// DocIter instead.
type EmptyDocIter struct{}

func (EmptyDocIter) NextDoc() (DocId, bool)          { return 0, false }
func (EmptyDocIter) CurrentDoc() (DocId, bool)       { return 0, false }
func (EmptyDocIter) Advance(DocId) (DocId, bool)     { return 0, false }
