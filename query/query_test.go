package query

import (
	"testing"

	"github.com/doublemo/esmy"
	_ "github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/feature/fulldoc"
	"github.com/doublemo/esmy/feature/stringindex"
	"github.com/doublemo/esmy/feature/stringposindex"
	"github.com/doublemo/esmy/seg"
	"github.com/stretchr/testify/require"
)

func drainAll(it esmy.DocIter) []esmy.DocId {
	var out []esmy.DocId
	for {
		d, ok := it.NextDoc()
		if !ok {
			return out
		}
		out = append(out, d)
	}
}

func writeSeg(t *testing.T, dir string, docs []esmy.Document, sc seg.Schema) *seg.SegmentReader {
	t.Helper()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)
	require.NoError(t, seg.WriteSegment(sc, addr, docs))
	r, err := seg.Open(addr)
	require.NoError(t, err)
	return r
}

func TestMatchAllDocsQuery(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "a", Feature: fulldoc.New("a")}}
	docs := []esmy.Document{{"a": "x"}, {"a": "y"}, {"a": "z"}}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	it, err := MatchAllDocsQuery{}.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0, 1, 2}, drainAll(it))
}

func TestValueQueryExactMatch(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "f", Feature: stringindex.New("f", "noop")}}
	docs := []esmy.Document{{"f": "cat"}, {"f": "dog"}, {"f": "cat"}}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	it, err := ValueQuery{Field: "f", Value: "cat"}.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0, 2}, drainAll(it))

	it, err = ValueQuery{Field: "f", Value: "bird"}.SegmentMatches(r)
	require.NoError(t, err)
	require.Nil(t, it)
}

func TestAllQueryConjunction(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{
		{Key: "a", Feature: stringindex.New("a", "noop")},
		{Key: "b", Feature: stringindex.New("b", "noop")},
	}
	docs := []esmy.Document{
		{"a": "x", "b": "p"},
		{"a": "x", "b": "q"},
		{"a": "y", "b": "p"},
	}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	q := AllQuery{Subs: []Query{
		ValueQuery{Field: "a", Value: "x"},
		ValueQuery{Field: "b", Value: "p"},
	}}
	it, err := q.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0}, drainAll(it))
}

func TestOrQueryUnion(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "f", Feature: stringindex.New("f", "noop")}}
	docs := []esmy.Document{{"f": "cat"}, {"f": "dog"}, {"f": "bird"}}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	q := OrQuery{Subs: []Query{
		ValueQuery{Field: "f", Value: "cat"},
		ValueQuery{Field: "f", Value: "bird"},
	}}
	it, err := q.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0, 2}, drainAll(it))
}

func TestTextQueryPhraseRequiresPositionalIndex(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "t", Feature: stringposindex.New("t", "simple")}}
	docs := []esmy.Document{
		{"t": "anton the great"},
		{"t": "the anton"},
		{"t": "anton"},
	}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	q := TextQuery{Field: "t", Text: "anton the", AnalyzerTag: "simple"}
	it, err := q.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0}, drainAll(it))
}

func TestTextQueryWithoutPositionsIsUnordered(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "t", Feature: stringindex.New("t", "simple")}}
	docs := []esmy.Document{
		{"t": "anton the great"},
		{"t": "the anton"},
	}
	r := writeSeg(t, dir, docs, sc)
	defer r.Close()

	q := TextQuery{Field: "t", Text: "anton the", AnalyzerTag: "simple"}
	it, err := q.SegmentMatches(r)
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0, 1}, drainAll(it))
}

func TestTextQueryMatchesInMemoryBuffer(t *testing.T) {
	q := TextQuery{Field: "t", Text: "anton the", AnalyzerTag: "simple"}
	require.True(t, q.Matches(esmy.Document{"t": "anton the great"}))
	require.False(t, q.Matches(esmy.Document{"t": "the anton"}))
}
