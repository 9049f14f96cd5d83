package stringposindex

import (
	"bufio"
	"io"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/vint"
)

// countingWriter tracks the number of bytes written so far, giving the
// postings and position writers each entry's starting offset without a
// Seek/Stat round trip.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// docPositions is one term's contribution from a single document: the
// DocId and the ascending token positions at which the term occurred.
type docPositions struct {
	DocID     esmy.DocId
	Positions []uint64
}

// encodePositions writes one (term, doc) position block to posW:
// vint(count) followed by ascending-delta-encoded positions (spec.md
// §4.6), returning the byte offset the block started at.
func encodePositions(posW *countingWriter, positions []uint64) (int64, error) {
	offset := posW.n
	if _, err := vint.Write(posW, uint64(len(positions))); err != nil {
		return 0, err
	}
	var prev uint64
	for _, p := range positions {
		if _, err := vint.Write(posW, p-prev); err != nil {
			return 0, err
		}
		prev = p
	}
	return offset, nil
}

// decodePositionsAt fully decodes the position block at byte offset in
// f into memory.
func decodePositionsAt(f io.ReadSeeker, offset int64) ([]uint64, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "stringposindex.decodePositionsAt", err)
	}
	br := bufio.NewReader(f)
	count, _, err := vint.Read(br)
	if err != nil {
		return nil, err
	}
	positions := make([]uint64, count)
	var prev uint64
	for i := uint64(0); i < count; i++ {
		delta, _, err := vint.Read(br)
		if err != nil {
			return nil, err
		}
		prev += delta
		positions[i] = prev
	}
	return positions, nil
}

// encodePostings writes one term's postings entry to iddocW: vint(doc
// count), then for each doc in ascending DocId order, vint(doc_id_delta)
// and vint(pos_offset_delta) — the pos_offset being the absolute byte
// offset into the .pos file at which that document's position block
// was written by encodePositions (spec.md §4.6).
func encodePostings(iddocW io.Writer, docs []docPositions, posOffsets []int64) error {
	if _, err := vint.Write(iddocW, uint64(len(docs))); err != nil {
		return err
	}
	var prevDoc uint64
	var prevPosOffset int64
	for i, d := range docs {
		if _, err := vint.Write(iddocW, uint64(d.DocID)-prevDoc); err != nil {
			return err
		}
		delta := posOffsets[i] - prevPosOffset
		if _, err := vint.Write(iddocW, uint64(delta)); err != nil {
			return err
		}
		prevDoc = uint64(d.DocID)
		prevPosOffset = posOffsets[i]
	}
	return nil
}

// decodedPosting is one term/doc entry decoded back out of a .iddoc
// entry: the DocId and the absolute offset of its position block in
// .pos.
type decodedPosting struct {
	DocID     esmy.DocId
	PosOffset int64
}

// decodePostingsAt fully decodes the postings entry at byte offset in f
// into memory, for use by the merger (which must filter and renumber
// every id anyway, and must rewrite every position block into the
// output .pos file regardless).
func decodePostingsAt(f io.ReadSeeker, offset int64) ([]decodedPosting, error) {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, esmyerr.Wrap(esmyerr.IO, "stringposindex.decodePostingsAt", err)
	}
	br := bufio.NewReader(f)
	count, _, err := vint.Read(br)
	if err != nil {
		return nil, err
	}
	out := make([]decodedPosting, count)
	var prevDoc uint64
	var prevPosOffset int64
	for i := uint64(0); i < count; i++ {
		docDelta, _, err := vint.Read(br)
		if err != nil {
			return nil, err
		}
		posDelta, _, err := vint.Read(br)
		if err != nil {
			return nil, err
		}
		prevDoc += docDelta
		prevPosOffset += int64(posDelta)
		out[i] = decodedPosting{DocID: esmy.DocId(prevDoc), PosOffset: prevPosOffset}
	}
	return out, nil
}
