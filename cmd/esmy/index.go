package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/indexmgr"
	"github.com/doublemo/esmy/seg"
	"go.uber.org/zap"
)

// openManager loads an index's on-disk feature templates and opens its
// manager, mirroring esmy_cli's `IndexBuilder::new().open(path)` — the
// template set must already exist (written by write-template) before
// any documents can be indexed.
func openManager(dir string, logger *zap.Logger, opts ...indexmgr.Option) (*indexmgr.Manager, error) {
	meta, err := seg.ReadIndexMeta(dir)
	if err != nil {
		return nil, err
	}
	schema, err := seg.SchemaFromTemplates(meta.Templates)
	if err != nil {
		return nil, err
	}
	return indexmgr.Open(dir, schema, append(opts, indexmgr.WithLogger(logger))...)
}

// runIndex reads newline-delimited JSON documents from stdin and adds
// each to the index at -path, committing once the stream is exhausted
// (esmy_cli's cmd/index.rs).
func runIndex(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	path := fs.String("path", "", "path to the index to write to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fs.Usage()
		os.Exit(2)
	}

	mgr, err := openManager(*path, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	dec := json.NewDecoder(bufio.NewReader(os.Stdin))
	var count int
	for {
		var doc esmy.Document
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if err := mgr.AddDoc(doc); err != nil {
			return err
		}
		count++
	}

	if err := mgr.Commit(); err != nil {
		return err
	}
	logger.Info("esmy: indexed documents", zap.Int("count", count), zap.String("path", *path))
	return nil
}
