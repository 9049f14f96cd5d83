package fulldoc

import (
	"encoding/binary"
	"io"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
	"github.com/hashicorp/go-msgpack/codec"
	"github.com/pierrec/lz4/v4"
)

var mpHandle = &codec.MsgpackHandle{}

// countingWriter tracks the number of bytes written so far, giving the
// block writer the file offset a new LZ4 frame will start at without an
// extra Seek/Stat round trip.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteSegment writes every document in docs into the full-document
// store, one LZ4-compressed block of up to maxBlockDocs documents at a
// time, recording each document's (block file offset, in-block index)
// in the .fdo table as it goes.
func (f *Feature) WriteSegment(addr esmy.SegAddress, docs []esmy.Document) error {
	if len(docs) == 0 {
		return nil
	}

	fdo, err := seg.CreateFile(addr, "fdo")
	if err != nil {
		return err
	}
	defer fdo.Close()

	fdv, err := seg.CreateFile(addr, "fdv")
	if err != nil {
		return err
	}
	defer fdv.Close()

	cw := &countingWriter{w: fdv}
	enc := lz4.NewWriter(cw)

	var blockStart int64
	var blockIdx uint64
	var offsetBuf [8]byte

	for _, doc := range docs {
		binary.BigEndian.PutUint64(offsetBuf[:], packOffset(blockStart, blockIdx))
		if _, err := fdo.Write(offsetBuf[:]); err != nil {
			return esmyerr.Wrap(esmyerr.IO, "fulldoc.WriteSegment", err)
		}

		mpEnc := codec.NewEncoder(enc, mpHandle)
		if err := mpEnc.Encode(map[string]string(doc)); err != nil {
			return esmyerr.Wrap(esmyerr.Serialization, "fulldoc.WriteSegment", err)
		}

		blockIdx++
		if blockIdx == f.maxBlockDocs {
			if err := enc.Close(); err != nil {
				return esmyerr.Wrap(esmyerr.Codec, "fulldoc.WriteSegment", err)
			}
			blockStart = cw.n
			enc = lz4.NewWriter(cw)
			blockIdx = 0
		}
	}

	if err := enc.Close(); err != nil {
		return esmyerr.Wrap(esmyerr.Codec, "fulldoc.WriteSegment", err)
	}
	if err := fdv.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "fulldoc.WriteSegment", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "fulldoc.WriteSegment", fdo.Sync())
}
