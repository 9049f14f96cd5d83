package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// searchTopN bounds how many hits `search` prints; `list` prints every
// hit. The original's TopDocsCollector scored hits by a tf-idf-like
// weight, but that scorer's source was not among the files carried
// forward into this rewrite, so ranking here is first-found order —
// an intentional simplification, not a reimplementation of the
// original's ranking.
const searchTopN = 10

// runList implements both `list` (every match) and `search` (first
// searchTopN matches), which differ only in that cutoff (esmy_cli's
// cmd/list.rs and cmd/search.rs).
func runList(args []string, logger *zap.Logger, topOnly bool) error {
	name := "list"
	if topOnly {
		name = "search"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("path", "", "path to the index to read")
	analyzerTag := fs.String("analyzer", "simple", "analyzer tag the field's index was built with")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *path == "" {
		fmt.Fprintf(os.Stderr, "usage: esmy %s <field:text> -path <dir> [-analyzer <tag>]\n", name)
		os.Exit(2)
	}

	q, err := parseQuery(fs.Arg(0), *analyzerTag)
	if err != nil {
		return err
	}

	mgr, err := openManager(*path, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	reader, err := mgr.OpenReader()
	if err != nil {
		return err
	}
	defer reader.Close()

	hits, err := reader.Search(q)
	if err != nil {
		return err
	}
	if topOnly && len(hits) > searchTopN {
		hits = hits[:searchTopN]
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	for _, h := range hits {
		full, ok := h.Segment.FullDoc()
		if !ok {
			continue
		}
		doc, err := full.Read(h.Doc)
		if err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}
