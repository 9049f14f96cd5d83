package fulldoc

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/doublemo/esmy/seg"
	"github.com/hashicorp/go-msgpack/codec"
	"github.com/pierrec/lz4/v4"
)

// Reader is a full-document store reader backed by a stateful cursor: it
// caches the currently-open LZ4 decoder and the in-block document index
// it will next decode. Sequential access by ascending DocId is O(doc
// size) amortized; random backward access within the current block is a
// usage error (spec.md §4.4, §9), returned as a Corrupt error rather
// than attempted.
type Reader struct {
	key string

	fdo *os.File
	fdv *os.File

	curBlockFileOffset int64
	haveCurBlock       bool
	lzReader           *lz4.Reader
	nextDocInBlock     uint64
}

func (f *Feature) Reader(addr esmy.SegAddress) (esmy.FeatureReader, error) {
	if !seg.FileExists(addr, "fdo") || !seg.FileExists(addr, "fdv") {
		return nil, nil
	}

	fdo, err := seg.OpenFile(addr, "fdo")
	if err != nil {
		return nil, err
	}
	fdv, err := seg.OpenFile(addr, "fdv")
	if err != nil {
		_ = fdo.Close()
		return nil, err
	}

	return &Reader{key: f.key, fdo: fdo, fdv: fdv, curBlockFileOffset: -1}, nil
}

func (r *Reader) FieldName() string { return r.key }

func (r *Reader) Close() error {
	err1 := r.fdo.Close()
	err2 := r.fdv.Close()
	if err1 != nil {
		return esmyerr.Wrap(esmyerr.IO, "fulldoc.Reader.Close", err1)
	}
	return esmyerr.Wrap(esmyerr.IO, "fulldoc.Reader.Close", err2)
}

// Read retrieves the document stored at id, per the cursor algorithm in
// spec.md §4.4: seek the offset table, open a fresh block decoder if the
// target doc lives in a different block than the cursor's current one,
// then skip-and-discard until the target in-block index is reached.
func (r *Reader) Read(id esmy.DocId) (esmy.Document, error) {
	var offsetBuf [8]byte
	if _, err := r.fdo.ReadAt(offsetBuf[:], int64(id)*8); err != nil {
		if err == io.EOF {
			return nil, esmyerr.Wrap(esmyerr.Corrupt, "fulldoc.Read", err)
		}
		return nil, esmyerr.Wrap(esmyerr.IO, "fulldoc.Read", err)
	}
	packed := binary.BigEndian.Uint64(offsetBuf[:])
	blockFileOffset, blockDocIdx := unpackOffset(packed)

	if !r.haveCurBlock || blockFileOffset != r.curBlockFileOffset {
		if _, err := r.fdv.Seek(blockFileOffset, io.SeekStart); err != nil {
			return nil, esmyerr.Wrap(esmyerr.IO, "fulldoc.Read", err)
		}
		r.lzReader = lz4.NewReader(r.fdv)
		r.curBlockFileOffset = blockFileOffset
		r.haveCurBlock = true
		r.nextDocInBlock = 0
	}

	if blockDocIdx < r.nextDocInBlock {
		// Backward random access within a block is an unsupported
		// usage pattern: callers must read ascending within a block.
		return nil, esmyerr.Wrap(esmyerr.Corrupt, "fulldoc.Read",
			io.ErrNoProgress)
	}

	dec := codec.NewDecoder(r.lzReader, mpHandle)
	for r.nextDocInBlock < blockDocIdx {
		var discard map[string]string
		if err := dec.Decode(&discard); err != nil {
			return nil, esmyerr.Wrap(esmyerr.Corrupt, "fulldoc.Read", err)
		}
		r.nextDocInBlock++
	}

	var m map[string]string
	if err := dec.Decode(&m); err != nil {
		return nil, esmyerr.Wrap(esmyerr.Corrupt, "fulldoc.Read", err)
	}
	r.nextDocInBlock++

	return esmy.Document(m), nil
}
