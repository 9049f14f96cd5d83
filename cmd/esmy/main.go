// Copyright 2024 The esmy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command esmy is a small command-line front end over package indexmgr:
// index NDJSON documents from stdin, list or search them back out, and
// manage an index's on-disk feature templates.
package main

import (
	"fmt"
	"os"

	_ "github.com/doublemo/esmy/analysis"
	"go.uber.org/zap"
)

const usage = `esmy <command> [<args>...]

Commands:
    index           Index NDJSON documents read from stdin
    list            List every document matching a query
    search          List the top documents matching a query
    delete          Delete every document matching a query
    force-merge     Collapse every segment in an index into one
    write-template  Write an index's feature templates, read as JSON from stdin
    read-template   Print an index's feature templates as JSON

Run 'esmy <command> -h' for a command's own flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	var runErr error
	switch os.Args[1] {
	case "index":
		runErr = runIndex(os.Args[2:], logger)
	case "list":
		runErr = runList(os.Args[2:], logger, false)
	case "search":
		runErr = runList(os.Args[2:], logger, true)
	case "delete":
		runErr = runDelete(os.Args[2:], logger)
	case "force-merge":
		runErr = runForceMerge(os.Args[2:], logger)
	case "write-template":
		runErr = runWriteTemplate(os.Args[2:], logger)
	case "read-template":
		runErr = runReadTemplate(os.Args[2:], logger)
	case "-h", "--help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "esmy: unrecognized command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if runErr != nil {
		logger.Error("esmy: command failed", zap.String("command", os.Args[1]), zap.Error(runErr))
		os.Exit(1)
	}
}
