package esmy

import "fmt"

// ConfigKind identifies which variant of Config is populated.
type ConfigKind int

const (
	ConfigNone ConfigKind = iota
	ConfigBool
	ConfigInt
	ConfigFloat
	ConfigString
	ConfigMap
)

// Config is the recursive sum type features use to self-describe their
// settings (field name, analyzer tag, chunk size, ...) so a segment's
// meta file is a complete, self-contained record of how to read it back.
// Exactly one of the typed accessors is meaningful, selected by Kind.
type Config struct {
	Kind   ConfigKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Map    map[string]Config
}

func ConfigFromBool(v bool) Config       { return Config{Kind: ConfigBool, Bool: v} }
func ConfigFromInt(v int64) Config       { return Config{Kind: ConfigInt, Int: v} }
func ConfigFromFloat(v float64) Config   { return Config{Kind: ConfigFloat, Float: v} }
func ConfigFromString(v string) Config   { return Config{Kind: ConfigString, Str: v} }
func ConfigFromMap(v map[string]Config) Config {
	return Config{Kind: ConfigMap, Map: v}
}

// Field fetches a child of a ConfigMap, returning ok=false if this Config
// is not a map or the key is absent.
func (c Config) Field(key string) (Config, bool) {
	if c.Kind != ConfigMap {
		return Config{}, false
	}
	v, ok := c.Map[key]
	return v, ok
}

// StringField is used by callers reading a ConfigMap entry for a required
// string field; it panics with a descriptive message if absent, since a
// segment meta missing a required feature config field is corrupt.
func (c Config) StringField(key string) string {
	v, ok := c.Field(key)
	if !ok || v.Kind != ConfigString {
		panic(fmt.Sprintf("esmy: config missing required string field %q", key))
	}
	return v.Str
}

// Equal reports deep equality between two configs, used by Schema.Equal.
func (c Config) Equal(o Config) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConfigBool:
		return c.Bool == o.Bool
	case ConfigInt:
		return c.Int == o.Int
	case ConfigFloat:
		return c.Float == o.Float
	case ConfigString:
		return c.Str == o.Str
	case ConfigMap:
		if len(c.Map) != len(o.Map) {
			return false
		}
		for k, v := range c.Map {
			ov, ok := o.Map[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// FeatureDescriptor is the on-disk, self-describing record of a single
// feature instance within a segment: a stable type tag plus its config.
type FeatureDescriptor struct {
	Key      string
	TypeTag  string
	Config   Config
}
