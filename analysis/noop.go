package analysis

import "github.com/doublemo/esmy"

// Noop treats the entire field value as a single token, unmodified. It
// is what ValueQuery uses for exact-match lookups.
type Noop struct{}

func (Noop) Tag() string { return "noop" }

func (Noop) Analyze(value string) esmy.TokenStream {
	return esmy.NewSliceTokenStream([]esmy.Token{{Text: value, Pos: 0}})
}
