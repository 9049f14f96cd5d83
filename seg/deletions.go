package seg

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
)

// DeletionSet is a per-segment deletion bitmap: one bit per document,
// set iff that document is deleted. Bits only ever go from 0 to 1
// (spec.md §3 invariant); there is no Clear.
//
// It implements esmy.DeletionLookup so feature MergeSegments
// implementations can consume it without importing package seg.
type DeletionSet struct {
	bm *roaring.Bitmap
}

// NewDeletionSet returns an empty deletion set.
func NewDeletionSet() *DeletionSet {
	return &DeletionSet{bm: roaring.NewBitmap()}
}

// Delete marks id as deleted. Idempotent.
func (d *DeletionSet) Delete(id esmy.DocId) {
	d.bm.Add(uint32(id))
}

// Contains reports whether id is marked deleted. A nil *DeletionSet
// behaves as empty, so callers can pass one through unconditionally.
func (d *DeletionSet) Contains(id esmy.DocId) bool {
	if d == nil || d.bm == nil {
		return false
	}
	return d.bm.Contains(uint32(id))
}

// Cardinality returns the number of deleted docs.
func (d *DeletionSet) Cardinality() uint64 {
	if d == nil || d.bm == nil {
		return 0
	}
	return d.bm.GetCardinality()
}

// IsEmpty reports whether no doc is marked deleted.
func (d *DeletionSet) IsEmpty() bool {
	return d == nil || d.bm == nil || d.bm.IsEmpty()
}

// Clone returns an independent copy of d. The index manager uses this to
// freeze a point-in-time snapshot of a segment's deletion bitmap for an
// open reader, since the live bitmap keeps mutating (monotonically)
// underneath any reader opened before a later delete() call.
func (d *DeletionSet) Clone() *DeletionSet {
	if d == nil || d.bm == nil {
		return NewDeletionSet()
	}
	return &DeletionSet{bm: d.bm.Clone()}
}

// persistDeletions writes addr's deletion bitmap to its `.del` file. No
// file is written if the set is empty, matching the idempotent-write
// contract features follow.
func persistDeletions(addr esmy.SegAddress, d *DeletionSet) error {
	if d.IsEmpty() {
		return RemoveFile(addr, "del")
	}
	f, err := CreateFile(addr, "del")
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := d.bm.WriteTo(f); err != nil {
		return esmyerr.Wrap(esmyerr.IO, "seg.persistDeletions", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "seg.persistDeletions", f.Sync())
}

// loadDeletions reads addr's deletion bitmap, returning an empty set if
// no `.del` file exists.
func loadDeletions(addr esmy.SegAddress) (*DeletionSet, error) {
	if !FileExists(addr, "del") {
		return NewDeletionSet(), nil
	}
	f, err := OpenFile(addr, "del")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bm := roaring.NewBitmap()
	if _, err := bm.ReadFrom(f); err != nil {
		return nil, esmyerr.Wrap(esmyerr.Corrupt, "seg.loadDeletions", err)
	}
	return &DeletionSet{bm: bm}, nil
}

// PersistDeletions and LoadDeletions are the exported forms used by
// package indexmgr, which owns the in-memory bitmaps across commits.
func PersistDeletions(addr esmy.SegAddress, d *DeletionSet) error { return persistDeletions(addr, d) }
func LoadDeletions(addr esmy.SegAddress) (*DeletionSet, error)    { return loadDeletions(addr) }
