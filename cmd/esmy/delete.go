package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// runDelete marks every document matching a query as deleted and
// commits the result (esmy_cli's cmd/delete.rs).
func runDelete(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	path := fs.String("path", "", "path to the index to modify")
	analyzerTag := fs.String("analyzer", "simple", "analyzer tag the field's index was built with")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *path == "" {
		fmt.Fprintln(os.Stderr, "usage: esmy delete <field:text> -path <dir> [-analyzer <tag>]")
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

	if err := mgr.Delete(q); err != nil {
		return err
	}
	return mgr.Commit()
}
