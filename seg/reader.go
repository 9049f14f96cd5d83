package seg

import (
	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
)

// SegmentInfo is a segment's durable identity: its address, resolved
// schema, and document count, loaded once from its `.seg` file and
// shared (read-only) by every reader opened against it.
type SegmentInfo struct {
	Address  esmy.SegAddress
	Schema   Schema
	DocCount uint64
}

// OpenInfo loads just a segment's meta — its schema and doc count —
// without opening any feature files. The index manager uses this to
// track live segments cheaply; Open and OpenWithInfo are for query time.
func OpenInfo(addr esmy.SegAddress) (*SegmentInfo, error) {
	meta, err := readMeta(addr)
	if err != nil {
		return nil, err
	}
	schema, err := schemaFromDescriptors(meta.Features)
	if err != nil {
		return nil, err
	}
	return &SegmentInfo{Address: addr, Schema: schema, DocCount: meta.DocCount}, nil
}

// SegmentReader holds one feature reader per schema entry for a single
// segment and exposes the typed lookups query evaluation needs.
type SegmentReader struct {
	Info    *SegmentInfo
	readers map[string]esmy.FeatureReader // keyed by schema key
}

// Open loads info from addr's `.seg` file and opens a FeatureReader for
// every entry in its schema (see OpenWithInfo when info is already known).
func Open(addr esmy.SegAddress) (*SegmentReader, error) {
	info, err := OpenInfo(addr)
	if err != nil {
		return nil, err
	}
	return OpenWithInfo(info)
}

// OpenWithInfo opens feature readers for an already-loaded SegmentInfo,
// avoiding a second `.seg` read.
func OpenWithInfo(info *SegmentInfo) (*SegmentReader, error) {
	readers := make(map[string]esmy.FeatureReader, len(info.Schema))
	for _, entry := range info.Schema {
		r, err := entry.Feature.Reader(info.Address)
		if err != nil {
			for _, opened := range readers {
				_ = opened.Close()
			}
			return nil, err
		}
		if r != nil {
			readers[entry.Key] = r
		}
	}
	return &SegmentReader{Info: info, readers: readers}, nil
}

// Close releases every open feature reader.
func (r *SegmentReader) Close() error {
	var firstErr error
	for _, fr := range r.readers {
		if err := fr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return esmyerr.Wrap(esmyerr.IO, "seg.SegmentReader.Close", firstErr)
}

// DocCount is the segment's total document count, including deleted
// docs (callers combine this with a DeletionSet to get the live count).
func (r *SegmentReader) DocCount() uint64 { return r.Info.DocCount }

// StringIndex returns the non-positional string index reader for field,
// matching by field name and analyzer tag, or ok=false if the schema
// has no such feature. A feature whose files are absent because no
// document produced content for it has no reader here either, so it
// also reports ok=false.
func (r *SegmentReader) StringIndex(field, analyzerTag string) (esmy.StringIndexReader, bool) {
	for _, fr := range r.readers {
		if si, ok := fr.(esmy.StringIndexReader); ok && si.FieldName() == field && si.AnalyzerTag() == analyzerTag {
			return si, true
		}
	}
	return nil, false
}

// StringPosIndex returns the positional string index reader for field.
func (r *SegmentReader) StringPosIndex(field, analyzerTag string) (esmy.StringPosIndexReader, bool) {
	for _, fr := range r.readers {
		if si, ok := fr.(esmy.StringPosIndexReader); ok && si.FieldName() == field && si.AnalyzerTag() == analyzerTag {
			return si, true
		}
	}
	return nil, false
}

// FullDoc returns the segment's full-document store reader, if any.
func (r *SegmentReader) FullDoc() (esmy.FullDocReader, bool) {
	for _, fr := range r.readers {
		if fd, ok := fr.(esmy.FullDocReader); ok {
			return fd, true
		}
	}
	return nil, false
}
