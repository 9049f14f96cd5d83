package stringindex

import (
	"bytes"
	"os"

	"github.com/blevesearch/vellum"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
)

// mergeSource is one input segment's opened state during a merge: its
// term iterator, its raw postings file, and the per-doc bookkeeping
// needed to filter deletions and renumber surviving DocIds.
type mergeSource struct {
	itr      vellum.Iterator
	itrDone  bool
	iddoc    *os.File
	deletes  esmy.DeletionLookup
	docCount uint64
	base     uint64 // sum of live doc counts of earlier sources
	remap    []esmy.DocId
}

// denseRemap returns, for each old DocId in [0, docCount), its new DocId
// among the surviving (non-deleted) docs. Deleted entries are never
// consulted by callers (they check deletes.Contains first), so their
// slot's value is unused.
func denseRemap(docCount uint64, deletes esmy.DeletionLookup) []esmy.DocId {
	remap := make([]esmy.DocId, docCount)
	var next esmy.DocId
	for old := esmy.DocId(0); uint64(old) < docCount; old++ {
		if deletes.Contains(old) {
			continue
		}
		remap[old] = next
		next++
	}
	return remap
}

// MergeSegments builds a union over every source's term dictionary,
// writing for each term a single postings entry made of the
// deletion-filtered, densely-renumbered, concatenated postings from
// every source that has it, in source order (spec.md §4.5).
func (f *Feature) MergeSegments(sources []esmy.MergeInput, newAddr esmy.SegAddress) error {
	states := make([]*mergeSource, 0, len(sources))
	var base uint64
	for _, src := range sources {
		if !seg.FileExists(src.Address, "tid") || !seg.FileExists(src.Address, "iddoc") {
			base += src.DocCount - src.Deletes.Cardinality()
			continue
		}

		fst, err := vellum.Open(src.Address.WithEnding("tid"))
		if err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
		}
		itr, err := fst.Iterator(nil, nil)
		done := err == vellum.ErrIteratorDone
		if err != nil && !done {
			_ = fst.Close()
			return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
		}

		iddoc, err := seg.OpenFile(src.Address, "iddoc")
		if err != nil {
			_ = fst.Close()
			return err
		}

		states = append(states, &mergeSource{
			itr: itr, itrDone: done, iddoc: iddoc,
			deletes: src.Deletes, docCount: src.DocCount, base: base,
			remap: denseRemap(src.DocCount, src.Deletes),
		})
		base += src.DocCount - src.Deletes.Cardinality()
		defer func() { _ = itr.Close() }()
		defer func() { _ = fst.Close() }()
	}
	defer func() {
		for _, s := range states {
			if s.iddoc != nil {
				_ = s.iddoc.Close()
			}
		}
	}()

	tidFile, err := seg.CreateFile(newAddr, "tid")
	if err != nil {
		return err
	}
	defer tidFile.Close()

	iddocFile, err := seg.CreateFile(newAddr, "iddoc")
	if err != nil {
		return err
	}
	defer iddocFile.Close()

	builder, err := vellum.New(tidFile, nil)
	if err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
	}
	cw := &countingWriter{w: iddocFile}

	var anyTerm bool
	for {
		term, contributors := nextUnionTerm(states)
		if term == nil {
			break
		}

		var merged []esmy.DocId
		for _, idx := range contributors {
			s := states[idx]
			_, val := s.itr.Current()
			ids, err := decodePostingsAt(s.iddoc, int64(val))
			if err != nil {
				return err
			}
			for _, id := range ids {
				if s.deletes.Contains(id) {
					continue
				}
				merged = append(merged, esmy.DocId(s.base)+s.remap[id])
			}

			if err := s.itr.Next(); err != nil {
				if err == vellum.ErrIteratorDone {
					s.itrDone = true
				} else {
					return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
				}
			}
		}

		if len(merged) == 0 {
			continue
		}

		if err := builder.Insert(term, uint64(cw.n)); err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
		}
		if err := encodePostings(cw, merged); err != nil {
			return err
		}
		anyTerm = true
	}

	if err := builder.Close(); err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringindex.MergeSegments", err)
	}

	if !anyTerm {
		_ = tidFile.Close()
		_ = iddocFile.Close()
		if err := seg.RemoveFile(newAddr, "tid"); err != nil {
			return err
		}
		return seg.RemoveFile(newAddr, "iddoc")
	}

	if err := tidFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringindex.MergeSegments", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringindex.MergeSegments", iddocFile.Sync())
}

// nextUnionTerm finds the lexicographically smallest current key across
// every not-yet-exhausted source and returns it along with the indices
// of every source currently positioned on it.
func nextUnionTerm(states []*mergeSource) ([]byte, []int) {
	var min []byte
	for _, s := range states {
		if s.itrDone {
			continue
		}
		key, _ := s.itr.Current()
		if min == nil || bytes.Compare(key, min) < 0 {
			min = key
		}
	}
	if min == nil {
		return nil, nil
	}
	// Current()'s key slice is only valid until the next call to
	// Next/Seek/Close on that iterator; term is used after contributors'
	// iterators have been advanced, so it must be copied out now.
	term := append([]byte(nil), min...)
	var contributors []int
	for i, s := range states {
		if s.itrDone {
			continue
		}
		key, _ := s.itr.Current()
		if bytes.Equal(key, term) {
			contributors = append(contributors, i)
		}
	}
	return term, contributors
}
