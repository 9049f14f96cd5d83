package indexmgr

import (
	"sync"

	"github.com/doublemo/esmy/seg"
	"go.uber.org/atomic"
)

// SegRef is a shared, reference-counted handle on a live segment: its
// durable SegmentInfo plus the in-memory deletion bitmap the manager
// mutates as delete() calls come in. Every reader that has seen this
// segment — the manager's own bookkeeping entry, and every
// ManagedIndexReader snapshot that retained it — holds one increment of
// refCount. deleteOnDrop is set once, under the manager's segment-map
// lock, the moment a merge supersedes this segment; the files are only
// actually removed when the last holder releases it (spec.md §4.9,
// §5, §9 "shared-reference segment handles with delete-on-drop").
type SegRef struct {
	info *seg.SegmentInfo

	mu        sync.Mutex
	deletions *seg.DeletionSet

	refCount     atomic.Int64
	deleteOnDrop atomic.Bool
}

func newSegRef(info *seg.SegmentInfo, deletions *seg.DeletionSet) *SegRef {
	r := &SegRef{info: info, deletions: deletions}
	r.refCount.Store(1)
	return r
}

// Retain increments the handle's refcount and returns it. Go has no
// implicit Arc-clone, so callers must use the returned handle (the same
// pointer, sharing the one refcount) in place of the original.
func (r *SegRef) Retain() *SegRef {
	r.refCount.Inc()
	return r
}

// Release drops one reference. Once the count reaches zero, if the
// segment was superseded by a merge in the meantime, its files are
// removed from disk — this is the only place segment files are ever
// deleted (spec.md §3 lifecycle stage 5, "Reclaimed").
func (r *SegRef) Release() error {
	if r.refCount.Dec() == 0 && r.deleteOnDrop.Load() {
		return seg.RemoveFiles(r.info.Address)
	}
	return nil
}

// liveDocCount returns the segment's current (deleted-excluded) doc
// count.
func (r *SegRef) liveDocCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info.DocCount - r.deletions.Cardinality()
}

// deletionsSnapshot returns an independent copy of this segment's
// current deletion bitmap, safe to hand to a reader that must not
// observe later delete() calls (spec.md §5 "Reader snapshot stability").
func (r *SegRef) deletionsSnapshot() *seg.DeletionSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletions.Clone()
}

// markDeleted sets id as deleted in this segment's live bitmap and
// persists the result, under the handle's own lock so concurrent
// delete() calls on the same segment serialize cleanly.
func (r *SegRef) markDeleted(ids []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.deletions.Delete(id)
	}
	return seg.PersistDeletions(r.info.Address, r.deletions)
}
