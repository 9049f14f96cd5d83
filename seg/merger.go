package seg

import (
	"github.com/doublemo/esmy"
	"go.uber.org/multierr"
)

// MergeSource is one input to a merge: a segment's info plus the set of
// its docs to drop (nil/empty means keep everything).
type MergeSource struct {
	Info      *SegmentInfo
	Deletions *DeletionSet
}

// MergeSegments collapses sources into one new immutable segment at
// newAddr, written against schema. For each feature, in schema order, it
// calls Feature.MergeSegments with that feature's reader (possibly nil)
// from every source plus that source's deletions, applying deletion
// filtering and dense doc-id remapping per feature (spec.md §4.5–§4.7).
//
// Source segment files are left untouched; the caller (package
// indexmgr) is responsible for removing them once no reader holds them.
func MergeSegments(schema Schema, sources []MergeSource, newAddr esmy.SegAddress) (*SegmentInfo, error) {
	readers := make([]*SegmentReader, len(sources))
	var openErr error
	for i, src := range sources {
		r, err := OpenWithInfo(src.Info)
		if err != nil {
			openErr = multierr.Append(openErr, err)
			continue
		}
		readers[i] = r
	}
	defer func() {
		for _, r := range readers {
			if r != nil {
				_ = r.Close()
			}
		}
	}()
	if openErr != nil {
		return nil, openErr
	}

	var newDocCount uint64
	for _, src := range sources {
		newDocCount += src.Info.DocCount - src.Deletions.Cardinality()
	}

	for _, entry := range schema {
		inputs := make([]esmy.MergeInput, len(sources))
		for i, src := range sources {
			var fr esmy.FeatureReader
			if readers[i] != nil {
				fr = readers[i].readers[entry.Key]
			}
			inputs[i] = esmy.MergeInput{
				Address:  src.Info.Address,
				Reader:   fr,
				DocCount: src.Info.DocCount,
				Deletes:  src.Deletions,
			}
		}
		if err := entry.Feature.MergeSegments(inputs, newAddr); err != nil {
			return nil, err
		}
	}

	if err := writeMeta(newAddr, SegmentMeta{Features: schema.Descriptors(), DocCount: newDocCount}); err != nil {
		return nil, err
	}

	return &SegmentInfo{Address: newAddr, Schema: schema, DocCount: newDocCount}, nil
}
