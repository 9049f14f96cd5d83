package stringindex

import (
	"bufio"
	"io"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/vint"
)

// countingWriter tracks the number of bytes written so far, giving the
// postings writer each term's starting offset without a Seek/Stat round
// trip.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// encodePostings writes one term's postings entry: vint(count) followed
// by ascending-delta-encoded DocIds (spec.md §4.5).
func encodePostings(w io.Writer, ids []esmy.DocId) error {
	if _, err := vint.Write(w, uint64(len(ids))); err != nil {
		return err
	}
	var prev uint64
	for _, id := range ids {
		if _, err := vint.Write(w, uint64(id)-prev); err != nil {
			return err
		}
		prev = uint64(id)
	}
	return nil
}

// decodePostingsAt fully decodes the postings entry at byte offset in f
// into memory, for use by the merger (which must filter and renumber
// every id anyway).
func decodePostingsAt(f io.ReadSeeker, offset int64) ([]esmy.DocId, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "stringindex.decodePostingsAt", err)
	}
	br := bufio.NewReader(f)
	count, _, err := vint.Read(br)
	if err != nil {
		return nil, err
	}
	ids := make([]esmy.DocId, count)
	var prev uint64
	for i := uint64(0); i < count; i++ {
		delta, _, err := vint.Read(br)
		if err != nil {
			return nil, err
		}
		prev += delta
		ids[i] = esmy.DocId(prev)
	}
	return ids, nil
}
