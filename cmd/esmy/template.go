package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/feature/fulldoc"
	"github.com/doublemo/esmy/feature/stringindex"
	"github.com/doublemo/esmy/feature/stringposindex"
	"github.com/doublemo/esmy/seg"
	"go.uber.org/zap"
)

// templateField is the JSON shape write-template reads per field, kept
// deliberately simpler than the on-disk FeatureDescriptor/Config it
// expands into: esmy_cli's write_template.rs took the wire FeatureMeta
// map directly from stdin, but that format only has fields worth
// hand-authoring via this intermediate one.
type templateField struct {
	Type     string `json:"type"`
	Analyzer string `json:"analyzer,omitempty"`
}

func (f templateField) toFeature(key string) (esmy.Feature, error) {
	switch f.Type {
	case fulldoc.TypeTag:
		return fulldoc.New(key), nil
	case stringindex.TypeTag:
		if f.Analyzer == "" {
			return nil, fmt.Errorf("esmy: field %q needs an \"analyzer\"", key)
		}
		return stringindex.New(key, f.Analyzer), nil
	case stringposindex.TypeTag:
		if f.Analyzer == "" {
			return nil, fmt.Errorf("esmy: field %q needs an \"analyzer\"", key)
		}
		return stringposindex.New(key, f.Analyzer), nil
	default:
		return nil, fmt.Errorf("esmy: unknown feature type %q for field %q", f.Type, key)
	}
}

// runWriteTemplate reads a JSON object of field -> {type, analyzer} from
// stdin and persists it as the index's feature template set
// (esmy_cli's cmd/write_template.rs).
func runWriteTemplate(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("write-template", flag.ExitOnError)
	path := fs.String("path", "", "path to the index to write to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fs.Usage()
		os.Exit(2)
	}

	var fields map[string]templateField
	if err := json.NewDecoder(bufio.NewReader(os.Stdin)).Decode(&fields); err != nil {
		return err
	}

	templates := make(map[string]esmy.FeatureDescriptor, len(fields))
	for key, tf := range fields {
		feat, err := tf.toFeature(key)
		if err != nil {
			return err
		}
		templates[key] = esmy.FeatureDescriptor{Key: key, TypeTag: feat.TypeTag(), Config: feat.ToConfig()}
	}

	if err := os.MkdirAll(*path, 0o755); err != nil {
		return err
	}
	if err := seg.WriteIndexMeta(*path, seg.IndexMeta{Templates: templates}); err != nil {
		return err
	}
	logger.Info("esmy: wrote template", zap.String("path", *path), zap.Int("fields", len(templates)))
	return nil
}

// runReadTemplate prints an index's feature templates as JSON
// (esmy_cli's cmd/read_template.rs).
func runReadTemplate(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("read-template", flag.ExitOnError)
	path := fs.String("path", "", "path to the index to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fs.Usage()
		os.Exit(2)
	}

	meta, err := seg.ReadIndexMeta(*path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	return json.NewEncoder(w).Encode(meta.Templates)
}
