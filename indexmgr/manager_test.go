package indexmgr

import (
	"sort"
	"testing"

	"github.com/doublemo/esmy"
	_ "github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/feature/fulldoc"
	"github.com/doublemo/esmy/feature/stringindex"
	"github.com/doublemo/esmy/feature/stringposindex"
	"github.com/doublemo/esmy/query"
	"github.com/doublemo/esmy/seg"
	"github.com/stretchr/testify/require"
)

func hitDocs(hits []Hit) []esmy.DocId {
	out := make([]esmy.DocId, len(hits))
	for i, h := range hits {
		out[i] = h.Doc
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestAddDocCommitAndMatchAllDocs(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "a", Feature: fulldoc.New("a")}}
	mgr, err := Open(dir, sc)
	require.NoError(t, err)
	defer mgr.Close()

	for _, v := range []string{"x", "y", "z"} {
		require.NoError(t, mgr.AddDoc(esmy.Document{"a": v}))
	}
	require.NoError(t, mgr.Commit())

	reader, err := mgr.OpenReader()
	require.NoError(t, err)
	defer reader.Close()

	hits, err := reader.Search(query.MatchAllDocsQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	full, ok := hits[0].Segment.FullDoc()
	require.True(t, ok)
	doc, err := full.Read(esmy.DocId(0))
	require.NoError(t, err)
	require.Equal(t, "x", doc["a"])
}

func TestValueQueryThenDelete(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{
		{Key: "f", Feature: stringindex.New("f", "noop")},
		{Key: "doc", Feature: fulldoc.New("doc")},
	}
	mgr, err := Open(dir, sc)
	require.NoError(t, err)
	defer mgr.Close()

	for _, v := range []string{"cat", "dog", "cat"} {
		require.NoError(t, mgr.AddDoc(esmy.Document{"f": v}))
	}
	require.NoError(t, mgr.Commit())

	reader, err := mgr.OpenReader()
	require.NoError(t, err)
	hits, err := reader.Search(query.ValueQuery{Field: "f", Value: "cat"})
	require.NoError(t, err)
	require.Equal(t, []esmy.DocId{0, 2}, hitDocs(hits))
	require.NoError(t, reader.Close())

	require.NoError(t, mgr.Delete(query.ValueQuery{Field: "f", Value: "cat"}))
	require.NoError(t, mgr.Commit())

	reader2, err := mgr.OpenReader()
	require.NoError(t, err)
	defer reader2.Close()

	hits, err = reader2.Search(query.ValueQuery{Field: "f", Value: "cat"})
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = reader2.Search(query.ValueQuery{Field: "f", Value: "dog"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestPhraseQueryAcrossSegments(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "t", Feature: stringposindex.New("t", "simple")}}
	mgr, err := Open(dir, sc)
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.AddDoc(esmy.Document{"t": "anton the great"}))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.AddDoc(esmy.Document{"t": "the anton"}))
	require.NoError(t, mgr.AddDoc(esmy.Document{"t": "anton"}))
	require.NoError(t, mgr.Commit())

	reader, err := mgr.OpenReader()
	require.NoError(t, err)
	defer reader.Close()

	hits, err := reader.Search(query.TextQuery{Field: "t", Text: "anton the", AnalyzerTag: "simple"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 2, reader.NumSegments())
}

func TestForceMergeCollapsesSegments(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "a", Feature: fulldoc.New("a")}}
	mgr, err := Open(dir, sc, WithAutoMerge(false))
	require.NoError(t, err)
	defer mgr.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, mgr.AddDoc(esmy.Document{"a": "x"}))
		require.NoError(t, mgr.Commit())
	}
	require.Equal(t, 5, mgr.Stats().NumSegments)

	require.NoError(t, mgr.ForceMerge())
	require.Equal(t, 1, mgr.Stats().NumSegments)
	require.Equal(t, uint64(5), mgr.Stats().NumDocs)

	reader, err := mgr.OpenReader()
	require.NoError(t, err)
	defer reader.Close()
	hits, err := reader.Search(query.MatchAllDocsQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 5)
}

func TestReaderSnapshotStableAcrossMergeAndDelete(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "f", Feature: stringindex.New("f", "noop")}}
	mgr, err := Open(dir, sc, WithAutoMerge(false))
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.AddDoc(esmy.Document{"f": "cat"}))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.AddDoc(esmy.Document{"f": "dog"}))
	require.NoError(t, mgr.Commit())

	reader, err := mgr.OpenReader()
	require.NoError(t, err)

	// Mutate after the snapshot was taken.
	require.NoError(t, mgr.Delete(query.ValueQuery{Field: "f", Value: "cat"}))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.ForceMerge())

	hits, err := reader.Search(query.ValueQuery{Field: "f", Value: "cat"})
	require.NoError(t, err)
	require.Len(t, hits, 1, "reader opened before the delete should still see the old doc")
	require.NoError(t, reader.Close())

	reader2, err := mgr.OpenReader()
	require.NoError(t, err)
	defer reader2.Close()
	hits, err = reader2.Search(query.ValueQuery{Field: "f", Value: "cat"})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestReopenReloadsSegmentsAndDeletions(t *testing.T) {
	dir := t.TempDir()
	sc := seg.Schema{{Key: "f", Feature: stringindex.New("f", "noop")}}
	mgr, err := Open(dir, sc)
	require.NoError(t, err)

	require.NoError(t, mgr.AddDoc(esmy.Document{"f": "cat"}))
	require.NoError(t, mgr.AddDoc(esmy.Document{"f": "dog"}))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.Delete(query.ValueQuery{Field: "f", Value: "cat"}))
	require.NoError(t, mgr.Commit())
	mgr.Close()

	reopened, err := Open(dir, sc)
	require.NoError(t, err)
	defer reopened.Close()

	reader, err := reopened.OpenReader()
	require.NoError(t, err)
	defer reader.Close()

	hits, err := reader.Search(query.ValueQuery{Field: "f", Value: "cat"})
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = reader.Search(query.ValueQuery{Field: "f", Value: "dog"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
