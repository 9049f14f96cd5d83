package query

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/seg"
)

// Query is the polymorphic capability every query type implements
// (spec.md §4.8): SegmentMatches evaluates the query against one
// segment's feature readers, returning nil to mean "no match in this
// segment" (the spec's Option<DocIter>::None); Matches checks a
// single, already-materialized document, which the index manager uses to
// filter its in-memory buffer against deletes. Search hits are not
// re-checked with Matches.
type Query interface {
	SegmentMatches(reader *seg.SegmentReader) (esmy.DocIter, error)
	Matches(doc esmy.Document) bool
}

// ValueQuery is raw field-value equality: it looks up the string index
// built with the Noop analyzer, so a document's whole field value is the
// only token. It is the exact-match query for a Manager.Delete or a
// search; the CLI's `list`/`search`/`delete` commands build a TextQuery
// instead.
type ValueQuery struct {
	Field string
	Value string
}

func (q ValueQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	si, ok := r.StringIndex(q.Field, analysis.Noop{}.Tag())
	if !ok {
		return nil, nil
	}
	it, found, err := si.Lookup([]byte(q.Value))
	if err != nil || !found {
		return nil, err
	}
	return it, nil
}

func (q ValueQuery) Matches(doc esmy.Document) bool {
	v, ok := doc[q.Field]
	return ok && v == q.Value
}

// TermQuery matches a single already-analyzed token against a string
// index built with the named analyzer (spec.md §4.8). Unlike ValueQuery
// it does not require the field's whole value to equal Term — only that
// Term appears as one of the tokens the index analyzer produced for it.
type TermQuery struct {
	Field       string
	Term        string
	AnalyzerTag string
}

func (q TermQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	si, ok := r.StringIndex(q.Field, q.AnalyzerTag)
	if !ok {
		return nil, nil
	}
	it, found, err := si.Lookup([]byte(q.Term))
	if err != nil || !found {
		return nil, err
	}
	return it, nil
}

func (q TermQuery) Matches(doc esmy.Document) bool {
	v, ok := doc[q.Field]
	if !ok {
		return false
	}
	ts := analysis.MustGet(q.AnalyzerTag).Analyze(v)
	for {
		tok, ok := ts.Next()
		if !ok {
			return false
		}
		if tok.Text == q.Term {
			return true
		}
	}
}

// TextQuery tokenizes Text with the named analyzer and matches documents
// containing that token sequence: ordered and adjacent if a positional
// index is available for Field, otherwise the weaker "contains all
// tokens in any order" conjunctive match (spec.md §4.8, §8 scenario S4).
type TextQuery struct {
	Field       string
	Text        string
	AnalyzerTag string
}

func (q TextQuery) tokens() []string {
	ts := analysis.MustGet(q.AnalyzerTag).Analyze(q.Text)
	var out []string
	for {
		tok, ok := ts.Next()
		if !ok {
			return out
		}
		out = append(out, tok.Text)
	}
}

func (q TextQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	terms := q.tokens()
	if len(terms) == 0 {
		return nil, nil
	}

	if psi, ok := r.StringPosIndex(q.Field, q.AnalyzerTag); ok {
		subs := make([]esmy.DocSpansIter, len(terms))
		for i, term := range terms {
			it, found, err := psi.Lookup([]byte(term))
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, nil
			}
			subs[i] = it
		}
		return NewOrderedNearDocIter(subs), nil
	}

	si, ok := r.StringIndex(q.Field, q.AnalyzerTag)
	if !ok {
		return nil, nil
	}
	subs := make([]esmy.DocIter, len(terms))
	seen := map[string]bool{}
	uniq := subs[:0]
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		it, found, err := si.Lookup([]byte(term))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		uniq = append(uniq, it)
	}
	return NewAllDocIter(uniq), nil
}

// Matches checks for the query's token sequence occurring contiguously,
// in order, within the document's analyzed field value — the same
// semantics a positional index enforces, used here without one because
// the in-memory buffer has no on-disk postings to consult.
func (q TextQuery) Matches(doc esmy.Document) bool {
	v, ok := doc[q.Field]
	if !ok {
		return false
	}
	want := q.tokens()
	if len(want) == 0 {
		return false
	}

	ts := analysis.MustGet(q.AnalyzerTag).Analyze(v)
	var have []string
	for {
		tok, ok := ts.Next()
		if !ok {
			break
		}
		have = append(have, tok.Text)
	}

	if len(want) > len(have) {
		return false
	}
	for start := 0; start+len(want) <= len(have); start++ {
		match := true
		for i, w := range want {
			if have[start+i] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// MatchAllDocsQuery matches every document in a segment (spec.md §4.8,
// §8 scenario S1).
type MatchAllDocsQuery struct{}

func (MatchAllDocsQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	if r.DocCount() == 0 {
		return nil, nil
	}
	return NewMatchAllIter(r.DocCount()), nil
}

func (MatchAllDocsQuery) Matches(esmy.Document) bool { return true }

// AllQuery is the conjunction ("AND") of its Subs: a document matches
// only if every sub-query matches it (spec.md §4.8).
type AllQuery struct {
	Subs []Query
}

func (q AllQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	if len(q.Subs) == 0 {
		return nil, nil
	}
	subs := make([]esmy.DocIter, 0, len(q.Subs))
	for _, s := range q.Subs {
		it, err := s.SegmentMatches(r)
		if err != nil {
			return nil, err
		}
		if it == nil {
			return nil, nil
		}
		subs = append(subs, it)
	}
	return NewAllDocIter(subs), nil
}

func (q AllQuery) Matches(doc esmy.Document) bool {
	for _, s := range q.Subs {
		if !s.Matches(doc) {
			return false
		}
	}
	return true
}

// OrQuery is the disjunction ("OR") of its Subs: a document matches if
// any sub-query matches it. It supplements spec.md's AllQuery per the
// original's search.rs (spec.md §9/SPEC_FULL supplemented features).
type OrQuery struct {
	Subs []Query
}

func (q OrQuery) SegmentMatches(r *seg.SegmentReader) (esmy.DocIter, error) {
	var subs []esmy.DocIter
	for _, s := range q.Subs {
		it, err := s.SegmentMatches(r)
		if err != nil {
			return nil, err
		}
		if it != nil {
			subs = append(subs, it)
		}
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return NewOrIter(subs), nil
}

func (q OrQuery) Matches(doc esmy.Document) bool {
	for _, s := range q.Subs {
		if s.Matches(doc) {
			return true
		}
	}
	return false
}
