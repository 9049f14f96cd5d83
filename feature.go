package esmy

import "io"

// SegAddress names a segment's files on disk: a directory and a random
// 10-char alphanumeric name shared by every file belonging to it. It is
// declared here (rather than in package seg) so that Feature
// implementations, which must not import seg to avoid a cycle through
// the feature registry, can still accept one.
type SegAddress struct {
	Dir  string
	Name string
}

// WithEnding returns the path for one of this segment's files, e.g.
// WithEnding("fdo") -> "<dir>/<name>.fdo".
func (a SegAddress) WithEnding(suffix string) string {
	return a.Dir + "/" + a.Name + "." + suffix
}

// FeatureReader is the marker interface every per-field feature reader
// satisfies. Concrete readers additionally satisfy one of
// StringIndexReader, StringPosIndexReader, or FullDocReader; callers
// type-assert to the capability they need.
type FeatureReader interface {
	io.Closer

	// FieldName is the schema field this reader was built for.
	FieldName() string
}

// StringIndexReader is satisfied by feature/stringindex readers.
type StringIndexReader interface {
	FeatureReader

	// AnalyzerTag is the tag of the analyzer used to build this index;
	// schema matching requires field name AND analyzer tag to agree.
	AnalyzerTag() string

	// Lookup returns a DocIter over the term's postings, or ok=false if
	// the term is absent from the dictionary.
	Lookup(term []byte) (it DocIter, ok bool, err error)
}

// StringPosIndexReader is satisfied by feature/stringposindex readers.
type StringPosIndexReader interface {
	FeatureReader

	AnalyzerTag() string

	// Lookup returns a DocSpansIter over the term's positional
	// postings, or ok=false if the term is absent.
	Lookup(term []byte) (it DocSpansIter, ok bool, err error)
}

// FullDocReader is satisfied by feature/fulldoc readers.
type FullDocReader interface {
	FeatureReader

	// Read retrieves the document stored at id. Callers must read
	// ascending DocIds within a block; see feature/fulldoc for the
	// precise precondition.
	Read(id DocId) (Document, error)
}

// MergeInput describes one source segment contributing to a merge: its
// address (for opening its feature files), its already-open feature
// reader for this key (nil if the feature was absent in that segment),
// the segment's total doc count, and the set of DocIds to drop.
type MergeInput struct {
	Address  SegAddress
	Reader   FeatureReader
	DocCount uint64
	Deletes  DeletionLookup
}

// DeletionLookup reports whether a given DocId within a specific source
// segment has been deleted. It is satisfied by *seg.DeletionSet; declared
// here as an interface so Feature implementations don't need to import
// seg to consume it.
type DeletionLookup interface {
	// Contains reports whether id is marked deleted. A nil
	// *seg.DeletionSet (or one with no bits set) means nothing in this
	// segment was deleted; the interface value itself must be non-nil,
	// since merge implementations call its methods unconditionally.
	Contains(id DocId) bool

	// Cardinality returns the number of deleted docs.
	Cardinality() uint64
}

// Feature is a pluggable per-field on-disk structure: a full-doc store,
// a non-positional string index, or a positional string index. Every
// feature self-describes via (type tag, config) so a segment is
// self-contained: reopening it requires nothing but the meta file plus
// the registry of known feature type tags (see package seg).
type Feature interface {
	// TypeTag is a stable identifier for this feature's on-disk format,
	// e.g. "full_doc", "string_index", "string_pos_index".
	TypeTag() string

	// Key is the schema key (usually the field name) this instance was
	// constructed for.
	Key() string

	// ToConfig serializes this feature's settings (field name, analyzer
	// tag, chunk sizes, ...) for storage in the segment meta.
	ToConfig() Config

	// WriteSegment writes this feature's files for addr from docs. Must
	// be idempotent w.r.t. filesystem state: if no document produced
	// content for this feature, no files are written at all.
	WriteSegment(addr SegAddress, docs []Document) error

	// Reader opens this feature's files for addr. Returns (nil, nil)
	// when the feature's files are legitimately absent because no
	// document produced content for it; no empty reader is built in
	// that case. seg.SegmentReader leaves such a feature out of its
	// lookups, so queries against it find no match in that segment.
	Reader(addr SegAddress) (FeatureReader, error)

	// MergeSegments merges this feature's files across sources,
	// applying each source's deletions and remapping surviving DocIds
	// densely, writing the result under newAddr. Merging only empty
	// inputs must produce no files.
	MergeSegments(sources []MergeInput, newAddr SegAddress) error
}

// FeatureFactory reconstructs a Feature instance from its on-disk
// descriptor. Concrete feature packages register one per type tag with
// package seg's registry (see seg.RegisterFeature).
type FeatureFactory func(key string, cfg Config) (Feature, error)
