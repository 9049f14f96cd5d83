package stringindex

import (
	"sort"

	"github.com/blevesearch/vellum"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
)

// WriteSegment tokenizes f.key's field value in every doc, collects an
// ascending deduplicated DocId list per token, then writes the FST term
// dictionary and delta-encoded postings, per the build algorithm in
// spec.md §4.5.
func (f *Feature) WriteSegment(addr esmy.SegAddress, docs []esmy.Document) error {
	postings := make(map[string][]esmy.DocId)

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
			ids := postings[tok.Text]
			if len(ids) > 0 && ids[len(ids)-1] == id {
				continue
			}
			postings[tok.Text] = append(ids, id)
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

	builder, err := vellum.New(tidFile, nil)
	if err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringindex.WriteSegment", err)
	}

	cw := &countingWriter{w: iddocFile}
	for _, term := range terms {
		ids := postings[term]
		if err := builder.Insert([]byte(term), uint64(cw.n)); err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringindex.WriteSegment", err)
		}
		if err := encodePostings(cw, ids); err != nil {
			return err
		}
	}

	if err := builder.Close(); err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringindex.WriteSegment", err)
	}
	if err := tidFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringindex.WriteSegment", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringindex.WriteSegment", iddocFile.Sync())
}
