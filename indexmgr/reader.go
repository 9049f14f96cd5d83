package indexmgr

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/query"
	"github.com/doublemo/esmy/seg"
	"go.uber.org/atomic"
)

// readerEntry is one segment's contribution to a ManagedIndexReader: its
// retained SegRef, its open feature readers, and the deletion bitmap
// frozen at snapshot time.
type readerEntry struct {
	ref       *SegRef
	reader    *seg.SegmentReader
	deletions *seg.DeletionSet
}

// Hit is one query match: the segment it was found in (so callers can
// look up the full document, or any other feature, directly) and the
// DocId within that segment.
type Hit struct {
	Segment *seg.SegmentReader
	Doc     esmy.DocId
}

// ManagedIndexReader is a point-in-time snapshot of an index's live
// segment set, opened via Manager.OpenReader. It remains valid and
// internally consistent even if the manager later merges or deletes
// from the segments it was opened against (spec.md §5 "Reader snapshot
// stability") — every segment it references keeps its files alive via
// its SegRef's refcount, and its deletion view is a frozen clone. Close
// must be called to release those references.
type ManagedIndexReader struct {
	entries []readerEntry
	closed  atomic.Bool
}

// Search evaluates q against every segment in the snapshot, skipping
// documents this snapshot considers deleted, and returns every match.
func (r *ManagedIndexReader) Search(q query.Query) ([]Hit, error) {
	var hits []Hit
	for _, e := range r.entries {
		it, err := q.SegmentMatches(e.reader)
		if err != nil {
			return nil, err
		}
		if it == nil {
			continue
		}
		for {
			d, ok := it.NextDoc()
			if !ok {
				break
			}
			if e.deletions.Contains(d) {
				continue
			}
			hits = append(hits, Hit{Segment: e.reader, Doc: d})
		}
	}
	return hits, nil
}

// NumDocs returns the snapshot's total live (non-deleted) document
// count across every segment it holds.
func (r *ManagedIndexReader) NumDocs() uint64 {
	var n uint64
	for _, e := range r.entries {
		n += e.reader.DocCount() - e.deletions.Cardinality()
	}
	return n
}

// NumSegments returns the number of segments in this snapshot.
func (r *ManagedIndexReader) NumSegments() int { return len(r.entries) }

// Close releases every segment reference this snapshot holds. Segments
// superseded by a merge while this reader was open are only now
// eligible for file reclamation, and only once every other reader that
// also saw them has likewise closed (spec.md §3 lifecycle stage 5).
func (r *ManagedIndexReader) Close() error {
	if !r.closed.CAS(false, true) {
		return nil
	}
	var firstErr error
	for _, e := range r.entries {
		if err := e.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := e.ref.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
