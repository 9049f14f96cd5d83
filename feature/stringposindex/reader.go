package stringposindex

import (
	"bufio"
	"io"
	"os"

	"github.com/blevesearch/vellum"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
	"github.com/doublemo/esmy/vint"
)

// Reader is a positional string index reader: an in-memory FST term
// dictionary plus random-access handles on the postings and position
// files.
type Reader struct {
	key         string
	analyzerTag string

	fst        *vellum.FST
	iddoc      *os.File
	iddocSize  int64
	pos        *os.File
	posSize    int64
}

func (f *Feature) Reader(addr esmy.SegAddress) (esmy.FeatureReader, error) {
	if !seg.FileExists(addr, "tid") || !seg.FileExists(addr, "iddoc") || !seg.FileExists(addr, "pos") {
		return nil, nil
	}

	fst, err := vellum.Open(addr.WithEnding("tid"))
	if err != nil {
		return nil, esmyerr.Wrap(esmyerr.Other, "stringposindex.Reader", err)
	}

	iddoc, err := seg.OpenFile(addr, "iddoc")
	if err != nil {
		_ = fst.Close()
		return nil, err
	}
	iddocSt, err := iddoc.Stat()
	if err != nil {
		_ = fst.Close()
		_ = iddoc.Close()
		return nil, esmyerr.Wrap(esmyerr.IO, "stringposindex.Reader", err)
	}

	pos, err := seg.OpenFile(addr, "pos")
	if err != nil {
		_ = fst.Close()
		_ = iddoc.Close()
		return nil, err
	}
	posSt, err := pos.Stat()
	if err != nil {
		_ = fst.Close()
		_ = iddoc.Close()
		_ = pos.Close()
		return nil, esmyerr.Wrap(esmyerr.IO, "stringposindex.Reader", err)
	}

	return &Reader{
		key: f.key, analyzerTag: f.analyzerTag,
		fst: fst, iddoc: iddoc, iddocSize: iddocSt.Size(),
		pos: pos, posSize: posSt.Size(),
	}, nil
}

func (r *Reader) FieldName() string   { return r.key }
func (r *Reader) AnalyzerTag() string { return r.analyzerTag }

func (r *Reader) Close() error {
	err1 := r.fst.Close()
	err2 := r.iddoc.Close()
	err3 := r.pos.Close()
	if err1 != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringposindex.Reader.Close", err1)
	}
	if err2 != nil {
		return esmyerr.Wrap(esmyerr.IO, "stringposindex.Reader.Close", err2)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringposindex.Reader.Close", err3)
}

// Lookup returns a streaming DocSpansIter over term's positional
// postings.
func (r *Reader) Lookup(term []byte) (esmy.DocSpansIter, bool, error) {
	offset, exists, err := r.fst.Get(term)
	if err != nil {
		return nil, false, esmyerr.Wrap(esmyerr.Other, "stringposindex.Lookup", err)
	}
	if !exists {
		return nil, false, nil
	}

	sr := io.NewSectionReader(r.iddoc, int64(offset), r.iddocSize-int64(offset))
	br := bufio.NewReader(sr)
	count, _, err := vint.Read(br)
	if err != nil {
		return nil, false, err
	}

	return &TermDocSpansIter{br: br, remaining: count, posFile: r.pos, posSize: r.posSize}, true, nil
}

// TermDocSpansIter streams a term's positional postings list, eagerly
// loading each document's position count on NextDoc (spec.md §4.6).
type TermDocSpansIter struct {
	br        *bufio.Reader
	remaining uint64

	cur     esmy.DocId
	started bool

	posFile       *os.File
	posSize       int64
	posOffsetAcc  int64
	posBr         *bufio.Reader
	posLeft       uint64
	posAcc        uint64
}

func (t *TermDocSpansIter) NextDoc() (esmy.DocId, bool) {
	if t.remaining == 0 {
		return 0, false
	}
	docDelta, _, err := vint.Read(t.br)
	if err != nil {
		t.remaining = 0
		return 0, false
	}
	posOffsetDelta, _, err := vint.Read(t.br)
	if err != nil {
		t.remaining = 0
		return 0, false
	}
	t.cur += esmy.DocId(docDelta)
	t.remaining--
	t.started = true

	t.posOffsetAcc += int64(posOffsetDelta)
	sr := io.NewSectionReader(t.posFile, t.posOffsetAcc, t.posSize-t.posOffsetAcc)
	t.posBr = bufio.NewReader(sr)
	t.posAcc = 0
	count, _, err := vint.Read(t.posBr)
	if err != nil {
		t.posLeft = 0
	} else {
		t.posLeft = count
	}

	return t.cur, true
}

func (t *TermDocSpansIter) CurrentDoc() (esmy.DocId, bool) {
	if !t.started {
		return 0, false
	}
	return t.cur, true
}

func (t *TermDocSpansIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	return esmy.DefaultAdvance(t, target)
}

// NextStartPos decodes the next position delta for the current
// document, or returns ok=false once every position for this doc has
// been consumed.
func (t *TermDocSpansIter) NextStartPos() (uint64, bool) {
	if t.posLeft == 0 {
		return 0, false
	}
	delta, _, err := vint.Read(t.posBr)
	if err != nil {
		t.posLeft = 0
		return 0, false
	}
	t.posAcc += delta
	t.posLeft--
	return t.posAcc, true
}

// EndPos is the exclusive end of a single-token span starting at
// startPos (spec.md §4.6).
func (t *TermDocSpansIter) EndPos(startPos uint64) uint64 {
	return startPos + 1
}
