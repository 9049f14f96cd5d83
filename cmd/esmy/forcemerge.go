package main

import (
	"flag"
	"os"

	"github.com/doublemo/esmy/indexmgr"
	"go.uber.org/zap"
)

// runForceMerge collapses every live segment in an index into one,
// ignoring the tiered merge policy (esmy_cli's cmd/force_merge.rs).
func runForceMerge(args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("force-merge", flag.ExitOnError)
	path := fs.String("path", "", "path to the index to merge")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		fs.Usage()
		os.Exit(2)
	}

	mgr, err := openManager(*path, logger, indexmgr.WithAutoMerge(false))
	if err != nil {
		return err
	}
	defer mgr.Close()

	return mgr.ForceMerge()
}
