package seg

import (
	"os"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/esmyerr"
	"github.com/hashicorp/go-msgpack/codec"
)

var mpHandle = &codec.MsgpackHandle{}

// wireConfig mirrors esmy.Config in a form MessagePack can round-trip
// without depending on esmy.Config having exported-but-opaque internals;
// the recursive Map case serializes naturally since codec handles
// self-referential struct types.
type wireConfig struct {
	Kind  int
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Map   map[string]wireConfig
}

func toWire(c esmy.Config) wireConfig {
	w := wireConfig{Kind: int(c.Kind), Bool: c.Bool, Int: c.Int, Float: c.Float, Str: c.Str}
	if c.Kind == esmy.ConfigMap {
		w.Map = make(map[string]wireConfig, len(c.Map))
		for k, v := range c.Map {
			w.Map[k] = toWire(v)
		}
	}
	return w
}

func fromWire(w wireConfig) esmy.Config {
	c := esmy.Config{Kind: esmy.ConfigKind(w.Kind), Bool: w.Bool, Int: w.Int, Float: w.Float, Str: w.Str}
	if c.Kind == esmy.ConfigMap {
		c.Map = make(map[string]esmy.Config, len(w.Map))
		for k, v := range w.Map {
			c.Map[k] = fromWire(v)
		}
	}
	return c
}

type wireFeatureDescriptor struct {
	Key     string
	TypeTag string
	Config  wireConfig
}

// wireSegmentMeta is the exact shape persisted to a segment's `.seg`
// file: the ordered feature descriptor list plus the document count.
// Its presence on disk is the segment's durability/commit marker — it
// is always written last (spec.md §3, §7).
type wireSegmentMeta struct {
	Features []wireFeatureDescriptor
	DocCount uint64
}

// SegmentMeta is the in-memory form of a segment's committed metadata.
type SegmentMeta struct {
	Features []esmy.FeatureDescriptor
	DocCount uint64
}

func writeMeta(addr esmy.SegAddress, m SegmentMeta) error {
	f, err := CreateFile(addr, "seg")
	if err != nil {
		return err
	}
	defer f.Close()

	wire := wireSegmentMeta{DocCount: m.DocCount}
	for _, d := range m.Features {
		wire.Features = append(wire.Features, wireFeatureDescriptor{
			Key: d.Key, TypeTag: d.TypeTag, Config: toWire(d.Config),
		})
	}

	enc := codec.NewEncoder(f, mpHandle)
	if err := enc.Encode(&wire); err != nil {
		return esmyerr.Wrap(esmyerr.Serialization, "seg.writeMeta", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "seg.writeMeta", f.Sync())
}

// readMeta loads a segment's committed metadata. A missing `.seg` file
// means the segment was never durably committed and must not be
// surfaced to readers.
func readMeta(addr esmy.SegAddress) (SegmentMeta, error) {
	f, err := OpenFile(addr, "seg")
	if err != nil {
		return SegmentMeta{}, err
	}
	defer f.Close()

	var wire wireSegmentMeta
	dec := codec.NewDecoder(f, mpHandle)
	if err := dec.Decode(&wire); err != nil {
		return SegmentMeta{}, esmyerr.Wrap(esmyerr.Serialization, "seg.readMeta", err)
	}

	m := SegmentMeta{DocCount: wire.DocCount}
	for _, d := range wire.Features {
		m.Features = append(m.Features, esmy.FeatureDescriptor{
			Key: d.Key, TypeTag: d.TypeTag, Config: fromWire(d.Config),
		})
	}
	return m, nil
}

// IndexMeta is the whole-index template file (`index_meta`): the set of
// named feature templates new segments are written with, independent of
// any one segment. It is what the write-template/read-template CLI
// subcommands manipulate.
type IndexMeta struct {
	Templates map[string]esmy.FeatureDescriptor
}

func indexMetaPath(dir string) string { return dir + "/index_meta" }

// WriteIndexMeta persists the index-level feature template set.
func WriteIndexMeta(dir string, m IndexMeta) error {
	f, err := os.Create(indexMetaPath(dir))
	if err != nil {
		return esmyerr.Wrap(esmyerr.IO, "seg.WriteIndexMeta", err)
	}
	defer f.Close()

	wire := struct {
		Templates map[string]wireFeatureDescriptor
	}{Templates: make(map[string]wireFeatureDescriptor, len(m.Templates))}
	for k, d := range m.Templates {
		wire.Templates[k] = wireFeatureDescriptor{Key: d.Key, TypeTag: d.TypeTag, Config: toWire(d.Config)}
	}

	enc := codec.NewEncoder(f, mpHandle)
	if err := enc.Encode(&wire); err != nil {
		return esmyerr.Wrap(esmyerr.Serialization, "seg.WriteIndexMeta", err)
	}
	return esmyerr.Wrap(esmyerr.IO, "seg.WriteIndexMeta", f.Sync())
}

// ReadIndexMeta loads the index-level feature template set.
func ReadIndexMeta(dir string) (IndexMeta, error) {
	f, err := os.Open(indexMetaPath(dir))
	if err != nil {
		return IndexMeta{}, esmyerr.Wrap(esmyerr.IO, "seg.ReadIndexMeta", err)
	}
	defer f.Close()

	var wire struct {
		Templates map[string]wireFeatureDescriptor
	}
	dec := codec.NewDecoder(f, mpHandle)
	if err := dec.Decode(&wire); err != nil {
		return IndexMeta{}, esmyerr.Wrap(esmyerr.Serialization, "seg.ReadIndexMeta", err)
	}

	out := IndexMeta{Templates: make(map[string]esmy.FeatureDescriptor, len(wire.Templates))}
	for k, d := range wire.Templates {
		out.Templates[k] = esmy.FeatureDescriptor{Key: d.Key, TypeTag: d.TypeTag, Config: fromWire(d.Config)}
	}
	return out, nil
}
