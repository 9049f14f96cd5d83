package seg

import "github.com/doublemo/esmy"

// WriteSegment writes a brand-new, immutable segment at addr containing
// docs, using schema's features in declaration order. It returns
// immediately, writing nothing, if docs is empty — there is no such
// thing as a committed empty segment.
//
// The meta file is written last; its presence is the segment's
// durability/commit marker (spec.md §3, §7): a crash or error partway
// through leaves behind orphaned feature files but no `.seg` file, so no
// reader will ever see the segment.
func WriteSegment(schema Schema, addr esmy.SegAddress, docs []esmy.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, entry := range schema {
		if err := entry.Feature.WriteSegment(addr, docs); err != nil {
			return err
		}
	}

	return writeMeta(addr, SegmentMeta{
		Features: schema.Descriptors(),
		DocCount: uint64(len(docs)),
	})
}
