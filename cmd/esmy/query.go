package main

import (
	"fmt"
	"strings"

	"github.com/doublemo/esmy/query"
)

// parseQuery parses the CLI's "field:text" query syntax into a
// TextQuery (esmy_cli's cmd/list.rs, cmd/search.rs, cmd/delete.rs all
// share this parse_query helper). analyzerTag selects the analyzer the
// field's index was built with.
func parseQuery(raw, analyzerTag string) (query.TextQuery, error) {
	field, text, ok := strings.Cut(raw, ":")
	if !ok {
		return query.TextQuery{}, fmt.Errorf("esmy: query must be of the form field:text, got %q", raw)
	}
	return query.TextQuery{Field: field, Text: text, AnalyzerTag: analyzerTag}, nil
}
