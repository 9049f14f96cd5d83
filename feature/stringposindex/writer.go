package stringposindex

import (
	"sort"

	"github.com/blevesearch/vellum"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
)

// WriteSegment tokenizes f.key's field value in every doc with its
// positions, collects a per-token list of (doc, positions) tuples, then
// writes the FST term dictionary, delta-encoded postings, and position
// lists, per the build algorithm in spec.md §4.6.
func (f *Feature) WriteSegment(addr esmy.SegAddress, docs []esmy.Document) error {
	postings := make(map[string][]docPositions)

	analyzer := analysis.MustGet(f.analyzerTag)
	for i, doc := range docs {
		value, ok := doc[f.key]
		if !ok {
			continue
		}
		id := esmy.DocId(i)
		ts := analyzer.Analyze(value)
		for {
			tok, ok := ts.Next()
			if !ok {
				break
			}
			entries := postings[tok.Text]
			if n := len(entries); n > 0 && entries[n-1].DocID == id {
				entries[n-1].Positions = append(entries[n-1].Positions, tok.Pos)
				continue
			}
			postings[tok.Text] = append(entries, docPositions{DocID: id, Positions: []uint64{tok.Pos}})
		}
	}

	if len(postings) == 0 {
		return nil
	}

	terms := make([]string, 0, len(postings))
	for term := range postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	tidFile, err := seg.CreateFile(addr, "tid")
	if err != nil {
		return err
	}
	defer tidFile.Close()

	iddocFile, err := seg.CreateFile(addr, "iddoc")
	if err != nil {
		return err
	}
	defer iddocFile.Close()

	posFile, err := seg.CreateFile(addr, "pos")
	if err != nil {
		return err
	}
	defer posFile.Close()

	builder, err := vellum.New(tidFile, nil)
	if err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringposindex.WriteSegment", err)
	}

	iddocCW := &countingWriter{w: iddocFile}
	posCW := &countingWriter{w: posFile}
	for _, term := range terms {
		entries := postings[term]
		offsets := make([]int64, len(entries))
		for i, e := range entries {
			off, err := encodePositions(posCW, e.Positions)
			if err != nil {
				return err
			}
			offsets[i] = off
		}

		if err := builder.Insert([]byte(term), uint64(iddocCW.n)); err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringposindex.WriteSegment", err)
		}
		if err := encodePostings(iddocCW, entries, offsets); err != nil {
			return err
		}
	}

	if err := builder.Close(); err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringposindex.WriteSegment", err)
	}
	if err := tidFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringposindex.WriteSegment", err)
	}
	if err := iddocFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringposindex.WriteSegment", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringposindex.WriteSegment", posFile.Sync())
}
