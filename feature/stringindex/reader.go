package stringindex

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

// Reader is a non-positional string index reader: an in-memory FST term
// dictionary plus a random-access handle on the postings file.
type Reader struct {
	key         string
	analyzerTag string

	fst    *vellum.FST
	iddoc  *os.File
	fsize  int64
}

func (f *Feature) Reader(addr esmy.SegAddress) (esmy.FeatureReader, error) {
	if !seg.FileExists(addr, "tid") || !seg.FileExists(addr, "iddoc") {
		return nil, nil
	}

	fst, err := vellum.Open(addr.WithEnding("tid"))
	if err != nil {
		return nil, esmyerr.Wrap(esmyerr.Other, "stringindex.Reader", err)
	}

	iddoc, err := seg.OpenFile(addr, "iddoc")
	if err != nil {
		_ = fst.Close()
		return nil, err
	}

	st, err := iddoc.Stat()
	if err != nil {
		_ = fst.Close()
		_ = iddoc.Close()
		return nil, esmyerr.Wrap(esmyerr.IO, "stringindex.Reader", err)
	}

	return &Reader{key: f.key, analyzerTag: f.analyzerTag, fst: fst, iddoc: iddoc, fsize: st.Size()}, nil
}

func (r *Reader) FieldName() string    { return r.key }
func (r *Reader) AnalyzerTag() string  { return r.analyzerTag }

func (r *Reader) Close() error {
	err1 := r.fst.Close()
	err2 := r.iddoc.Close()
	if err1 != nil {
		return esmyerr.Wrap(esmyerr.Other, "stringindex.Reader.Close", err1)
	}
	return esmyerr.Wrap(esmyerr.IO, "stringindex.Reader.Close", err2)
}

// Lookup returns a streaming DocIter over term's postings.
func (r *Reader) Lookup(term []byte) (esmy.DocIter, bool, error) {
	offset, exists, err := r.fst.Get(term)
	if err != nil {
		return nil, false, esmyerr.Wrap(esmyerr.Other, "stringindex.Lookup", err)
	}
	if !exists {
		return nil, false, nil
	}

	sr := io.NewSectionReader(r.iddoc, int64(offset), r.fsize-int64(offset))
	br := bufio.NewReader(sr)
	count, _, err := vint.Read(br)
	if err != nil {
		return nil, false, err
	}

	return &TermDocIter{br: br, remaining: count}, true, nil
}

// TermDocIter streams a term's postings list by accumulating deltas.
type TermDocIter struct {
	br        *bufio.Reader
	remaining uint64
	cur       esmy.DocId
	started   bool
}

func (t *TermDocIter) NextDoc() (esmy.DocId, bool) {
	if t.remaining == 0 {
		return 0, false
	}
	delta, _, err := vint.Read(t.br)
	if err != nil {
		t.remaining = 0
		return 0, false
	}
	t.cur += esmy.DocId(delta)
	t.remaining--
	t.started = true
	return t.cur, true
}

func (t *TermDocIter) CurrentDoc() (esmy.DocId, bool) {
	if !t.started {
		return 0, false
	}
	return t.cur, true
}

func (t *TermDocIter) Advance(target esmy.DocId) (esmy.DocId, bool) {
	return esmy.DefaultAdvance(t, target)
}
