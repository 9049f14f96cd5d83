package seg

import (
	"sort"

	"github.com/doublemo/esmy"
)

// SchemaEntry pairs a feature key with the live Feature instance that
// handles it. Order matters: features are written and merged in schema
// order (spec.md §4.7).
type SchemaEntry struct {
	Key     string
	Feature esmy.Feature
}

// Schema is an ordered set of (feature_key, feature) pairs. Two schemas
// are equal iff every key maps to a feature of the same type with equal
// config, regardless of declaration order.
type Schema []SchemaEntry

// Descriptors returns the on-disk descriptor form of the schema, in
// declaration order, for persisting in a segment's meta file.
func (s Schema) Descriptors() []esmy.FeatureDescriptor {
	out := make([]esmy.FeatureDescriptor, len(s))
	for i, e := range s {
		out[i] = esmy.FeatureDescriptor{
			Key:     e.Key,
			TypeTag: e.Feature.TypeTag(),
			Config:  e.Feature.ToConfig(),
		}
	}
	return out
}

// Equal reports whether s and o describe the same set of features,
// independent of declaration order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	byKey := make(map[string]esmy.FeatureDescriptor, len(o))
	for _, e := range o {
		byKey[e.Key] = esmy.FeatureDescriptor{TypeTag: e.Feature.TypeTag(), Config: e.Feature.ToConfig()}
	}
	for _, e := range s {
		od, ok := byKey[e.Key]
		if !ok {
			return false
		}
		if od.TypeTag != e.Feature.TypeTag() || !od.Config.Equal(e.Feature.ToConfig()) {
			return false
		}
	}
	return true
}

// SchemaFromTemplates builds a live Schema from an index-level template
// set (the IndexMeta.Templates the write-template/read-template CLI
// subcommands manage), resolving each descriptor's type tag through the
// feature registry. Templates are sorted by key so the resulting schema
// order, and therefore feature write/merge order, is deterministic
// across runs of the same index.
func SchemaFromTemplates(templates map[string]esmy.FeatureDescriptor) (Schema, error) {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	descs := make([]esmy.FeatureDescriptor, len(keys))
	for i, k := range keys {
		descs[i] = templates[k]
	}
	return schemaFromDescriptors(descs)
}

// schemaFromDescriptors reconstructs the live Schema behind a segment's
// meta file by resolving each descriptor's type tag through the feature
// registry.
func schemaFromDescriptors(descs []esmy.FeatureDescriptor) (Schema, error) {
	out := make(Schema, len(descs))
	for i, d := range descs {
		f, err := newFeature(d)
		if err != nil {
			return nil, err
		}
		out[i] = SchemaEntry{Key: d.Key, Feature: f}
	}
	return out, nil
}
