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

// MergeSegments rewrites every source's live (non-deleted) documents
// into one new full-document store at newAddr, per the algorithm in
// spec.md §4.4: segments with no deletions are fast-pathed by copying
// their .fdo entries (rebased to the new .fdv position) and appending
// their .fdv bytes verbatim; segments with deletions are re-decoded and
// re-encoded document by document. Source order is preserved, and
// because both paths append rather than interleave, output .fdo index i
// is exactly the i-th surviving document across all sources in order —
// which is precisely the new dense DocId numbering.
func (f *Feature) MergeSegments(sources []esmy.MergeInput, newAddr esmy.SegAddress) error {
	var totalLive uint64
	for _, src := range sources {
		totalLive += src.DocCount - src.Deletes.Cardinality()
	}
	if totalLive == 0 {
		return nil
	}

	fdo, err := seg.CreateFile(newAddr, "fdo")
	if err != nil {
		return err
	}
	defer fdo.Close()

	fdv, err := seg.CreateFile(newAddr, "fdv")
	if err != nil {
		return err
	}
	defer fdv.Close()

	cw := &countingWriter{w: fdv}
	var enc *lz4.Writer
	var blockStart int64
	var blockIdx uint64

	closeEncoder := func() error {
		if enc == nil {
			return nil
		}
		if err := enc.Close(); err != nil {
			return esmyerr.Wrap(esmyerr.Codec, "fulldoc.MergeSegments", err)
		}
		enc = nil
		blockStart = cw.n
		blockIdx = 0
		return nil
	}

	for _, src := range sources {
		if src.DocCount == 0 {
			continue
		}

		if src.Deletes.Cardinality() == 0 {
			if err := closeEncoder(); err != nil {
				return err
			}
			if err := copyFullDocs(src, cw, fdo); err != nil {
				return err
			}
			continue
		}

		reader, ok := src.Reader.(*Reader)
		if !ok || reader == nil {
			continue
		}

		if enc == nil {
			enc = lz4.NewWriter(cw)
			blockStart = cw.n
			blockIdx = 0
		}

		var offsetBuf [8]byte
		for id := esmy.DocId(0); id < src.DocCount; id++ {
			if src.Deletes.Contains(id) {
				continue
			}
			doc, err := reader.Read(id)
			if err != nil {
				return err
			}

			binary.BigEndian.PutUint64(offsetBuf[:], packOffset(blockStart, blockIdx))
			if _, err := fdo.Write(offsetBuf[:]); err != nil {
				return esmyerr.Wrap(esmyerr.IO, "fulldoc.MergeSegments", err)
			}

			mpEnc := codec.NewEncoder(enc, mpHandle)
			if err := mpEnc.Encode(map[string]string(doc)); err != nil {
				return esmyerr.Wrap(esmyerr.Serialization, "fulldoc.MergeSegments", err)
			}

			blockIdx++
			if blockIdx == f.maxBlockDocs {
				if err := closeEncoder(); err != nil {
					return err
				}
				enc = lz4.NewWriter(cw)
			}
		}
	}

	if err := closeEncoder(); err != nil {
		return err
	}
	if err := fdv.Sync(); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "fulldoc.MergeSegments", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "fulldoc.MergeSegments", fdo.Sync())
}

// copyFullDocs fast-paths a deletion-free source: its .fdo entries are
// rebased by the accumulated size of already-copied .fdv content and
// written out, then its .fdv bytes are appended verbatim.
func copyFullDocs(src esmy.MergeInput, cw *countingWriter, outFdo io.Writer) error {
	srcFdo, err := seg.OpenFile(src.Address, "fdo")
	if err != nil {
		return err
	}
	defer srcFdo.Close()

	rebase := cw.n
	buf := make([]byte, 8*src.DocCount)
	if _, err := io.ReadFull(srcFdo, buf); err != nil {
		return esmyerr.Wrap(esmyerr.Corrupt, "fulldoc.copyFullDocs", err)
	}
	for i := uint64(0); i < src.DocCount; i++ {
		old := binary.BigEndian.Uint64(buf[i*8 : i*8+8])
		blockFileOffset, blockDocIdx := unpackOffset(old)
		newPacked := packOffset(blockFileOffset+rebase, blockDocIdx)
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], newPacked)
	}
	if _, err := outFdo.Write(buf); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "fulldoc.copyFullDocs", err)
	}

	srcFdv, err := seg.OpenFile(src.Address, "fdv")
	if err != nil {
		return err
	}
	defer srcFdv.Close()
	if _, err := io.Copy(cw, srcFdv); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "fulldoc.copyFullDocs", err)
	}
	return nil
}
