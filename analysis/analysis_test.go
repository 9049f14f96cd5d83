package analysis

import (
	"testing"

	"github.com/doublemo/esmy"
	"github.com/stretchr/testify/require"
)

func drain(ts esmy.TokenStream) []esmy.Token {
	var out []esmy.Token
	for {
		tok, ok := ts.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

func TestNoopSingleToken(t *testing.T) {
	toks := drain(Noop{}.Analyze("Cat Dog"))
	require.Equal(t, []esmy.Token{{Text: "Cat Dog", Pos: 0}}, toks)
}

func TestSimpleTokenizesAndLowercases(t *testing.T) {
	toks := drain(Simple{}.Analyze("Anton the Great!"))
	require.Equal(t, []esmy.Token{
		{Text: "anton", Pos: 0},
		{Text: "the", Pos: 1},
		{Text: "great", Pos: 2},
	}, toks)
}

func TestSimpleEmptyInput(t *testing.T) {
	require.Empty(t, drain(Simple{}.Analyze("   ")))
}

func TestRegistryRoundTrip(t *testing.T) {
	a, ok := Get("simple")
	require.True(t, ok)
	require.Equal(t, "simple", a.Tag())

	_, ok = Get("does-not-exist")
	require.False(t, ok)
}
