package stringindex

import (
	"testing"

	"github.com/doublemo/esmy"
	_ "github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/seg"
	"github.com/stretchr/testify/require"
)

func drainIDs(it esmy.DocIter) []esmy.DocId {
	var out []esmy.DocId
	for {
		id, ok := it.NextDoc()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}

func TestWriteReadValueLookup(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("f", "noop")
	docs := []esmy.Document{{"f": "cat"}, {"f": "dog"}, {"f": "cat"}}
	require.NoError(t, f.WriteSegment(addr, docs))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	require.NotNil(t, rd)
	reader := rd.(*Reader)
	defer reader.Close()

	it, ok, err := reader.Lookup([]byte("cat"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{0, 2}, drainIDs(it))

	it, ok, err = reader.Lookup([]byte("dog"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{1}, drainIDs(it))

	_, ok, err = reader.Lookup([]byte("bird"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriteEmptyFieldWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("f", "noop")
	require.NoError(t, f.WriteSegment(addr, []esmy.Document{{"other": "x"}}))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	require.Nil(t, rd)
}

func TestSimpleAnalyzerTokenizes(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("body", "simple")
	docs := []esmy.Document{{"body": "Anton the Great"}, {"body": "the great wall"}}
	require.NoError(t, f.WriteSegment(addr, docs))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	reader := rd.(*Reader)
	defer reader.Close()

	it, ok, err := reader.Lookup([]byte("the"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{0, 1}, drainIDs(it))

	it, ok, err = reader.Lookup([]byte("anton"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{0}, drainIDs(it))
}

func TestMergeUnionsDictionariesAndAppliesDeletions(t *testing.T) {
	dir := t.TempDir()
	f := New("f", "noop")

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs1 := []esmy.Document{{"f": "cat"}, {"f": "dog"}, {"f": "cat"}}
	require.NoError(t, f.WriteSegment(addr1, docs1))

	addr2, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs2 := []esmy.Document{{"f": "dog"}, {"f": "bird"}}
	require.NoError(t, f.WriteSegment(addr2, docs2))

	del1 := seg.NewDeletionSet()
	del1.Delete(0) // drop first "cat"

	fr1, err := f.Reader(addr1)
	require.NoError(t, err)
	fr2, err := f.Reader(addr2)
	require.NoError(t, err)

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: fr1, DocCount: uint64(len(docs1)), Deletes: del1},
		{Address: addr2, Reader: fr2, DocCount: uint64(len(docs2)), Deletes: seg.NewDeletionSet()},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))
	require.NoError(t, fr1.(*Reader).Close())
	require.NoError(t, fr2.(*Reader).Close())

	mrd, err := f.Reader(newAddr)
	require.NoError(t, err)
	reader := mrd.(*Reader)
	defer reader.Close()

	// docs1 surviving: index 1 ("dog") -> new id 0, index 2 ("cat") -> new id 1.
	// docs2 base offset = 2: index 0 ("dog") -> new id 2, index 1 ("bird") -> new id 3.
	it, ok, err := reader.Lookup([]byte("cat"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{1}, drainIDs(it))

	it, ok, err = reader.Lookup([]byte("dog"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{0, 2}, drainIDs(it))

	it, ok, err = reader.Lookup([]byte("bird"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []esmy.DocId{3}, drainIDs(it))
}

func TestMergeOfAllEmptySegmentsWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	f := New("f", "noop")

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	require.NoError(t, f.WriteSegment(addr1, []esmy.Document{{"other": "x"}}))

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: nil, DocCount: 1, Deletes: seg.NewDeletionSet()},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))

	require.False(t, seg.FileExists(newAddr, "tid"))
	require.False(t, seg.FileExists(newAddr, "iddoc"))
}
