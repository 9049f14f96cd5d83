package stringposindex

import (
	"bytes"
	"os"

	"github.com/blevesearch/vellum"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
)

// mergeSource is one input segment's opened state during a merge: its
// term iterator, its raw postings and position files, and the per-doc
// bookkeeping needed to filter deletions and renumber surviving DocIds.
type mergeSource struct {
	itr      vellum.Iterator
	itrDone  bool
	iddoc    *os.File
	posFile  *os.File
	deletes  esmy.DeletionLookup
	docCount uint64
	base     uint64
	remap    []esmy.DocId
}

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
// deletion-filtered, densely-renumbered, concatenated postings (with
// their position lists copied through a fresh delta encoding) from
// every source that has it, in source order (spec.md §4.6).
func (f *Feature) MergeSegments(sources []esmy.MergeInput, newAddr esmy.SegAddress) error {
	states := make([]*mergeSource, 0, len(sources))
	var base uint64
	for _, src := range sources {
		if !seg.FileExists(src.Address, "tid") || !seg.FileExists(src.Address, "iddoc") || !seg.FileExists(src.Address, "pos") {
			base += src.DocCount - src.Deletes.Cardinality()
			continue
		}

		fst, err := vellum.Open(src.Address.WithEnding("tid"))
		if err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
		}
		itr, err := fst.Iterator(nil, nil)
		done := err == vellum.ErrIteratorDone
		if err != nil && !done {
			_ = fst.Close()
			return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
		}

		iddoc, err := seg.OpenFile(src.Address, "iddoc")
		if err != nil {
			_ = fst.Close()
			return err
		}
		posFile, err := seg.OpenFile(src.Address, "pos")
		if err != nil {
			_ = fst.Close()
			_ = iddoc.Close()
			return err
		}

		states = append(states, &mergeSource{
			itr: itr, itrDone: done, iddoc: iddoc, posFile: posFile,
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
			if s.posFile != nil {
				_ = s.posFile.Close()
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

	posFile, err := seg.CreateFile(newAddr, "pos")
	if err != nil {
		return err
	}
	defer posFile.Close()

	builder, err := vellum.New(tidFile, nil)
	if err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
	}
	iddocCW := &countingWriter{w: iddocFile}
	posCW := &countingWriter{w: posFile}

	var anyTerm bool
	for {
		term, contributors := nextUnionTerm(states)
		if term == nil {
			break
		}

		var merged []docPositions
		for _, idx := range contributors {
			s := states[idx]
			_, val := s.itr.Current()
			entries, err := decodePostingsAt(s.iddoc, int64(val))
			if err != nil {
				return err
			}
			for _, e := range entries {
				if s.deletes.Contains(e.DocID) {
					continue
				}
				positions, err := decodePositionsAt(s.posFile, e.PosOffset)
				if err != nil {
					return err
				}
				merged = append(merged, docPositions{
					DocID:     esmy.DocId(s.base) + s.remap[e.DocID],
					Positions: positions,
				})
			}

			if err := s.itr.Next(); err != nil {
				if err == vellum.ErrIteratorDone {
					s.itrDone = true
				} else {
					return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
				}
			}
		}

		if len(merged) == 0 {
			continue
		}

		offsets := make([]int64, len(merged))
		for i, m := range merged {
			off, err := encodePositions(posCW, m.Positions)
			if err != nil {
				return err
			}
			offsets[i] = off
		}

		if err := builder.Insert(term, uint64(iddocCW.n)); err != nil {
			return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
		}
		if err := encodePostings(iddocCW, merged, offsets); err != nil {
			return err
		}
		anyTerm = true
	}

	if err := builder.Close(); err != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringposindex.MergeSegments", err)
	}

	if !anyTerm {
		_ = tidFile.Close()
		_ = iddocFile.Close()
		_ = posFile.Close()
		if err := seg.RemoveFile(newAddr, "tid"); err != nil {
			return err
		}
		if err := seg.RemoveFile(newAddr, "iddoc"); err != nil {
			return err
		}
		return seg.RemoveFile(newAddr, "pos")
	}

	if err := tidFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringposindex.MergeSegments", err)
	}
	if err := iddocFile.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringposindex.MergeSegments", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringposindex.MergeSegments", posFile.Sync())
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
