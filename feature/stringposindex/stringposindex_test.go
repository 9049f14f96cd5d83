package stringposindex

import (
	"testing"

	"github.com/doublemo/esmy"
	_ "github.com/doublemo/esmy/analysis"
	"github.com/doublemo/esmy/seg"
	"github.com/stretchr/testify/require"
)

func drainDoc(it esmy.DocSpansIter) (esmy.DocId, bool) {
	return it.NextDoc()
}

func drainStarts(it esmy.DocSpansIter) []uint64 {
	var out []uint64
	for {
		p, ok := it.NextStartPos()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

func TestWriteReadPositionLookup(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("t", "simple")
	docs := []esmy.Document{
		{"t": "anton the great"},
		{"t": "the anton"},
		{"t": "anton"},
	}
	require.NoError(t, f.WriteSegment(addr, docs))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	require.NotNil(t, rd)
	reader := rd.(*Reader)
	defer reader.Close()

	it, ok, err := reader.Lookup([]byte("anton"))
	require.NoError(t, err)
	require.True(t, ok)

	d, ok := drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(0), d)
	require.Equal(t, []uint64{0}, drainStarts(it))

	d, ok = drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(1), d)
	require.Equal(t, []uint64{1}, drainStarts(it))

	d, ok = drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(2), d)
	require.Equal(t, []uint64{0}, drainStarts(it))

	_, ok = drainDoc(it)
	require.False(t, ok)
}

func TestWriteEmptyFieldWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("t", "simple")
	require.NoError(t, f.WriteSegment(addr, []esmy.Document{{"other": "x"}}))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	require.Nil(t, rd)
}

func TestRepeatedTokenAccumulatesPositions(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("t", "simple")
	docs := []esmy.Document{{"t": "a b a"}}
	require.NoError(t, f.WriteSegment(addr, docs))

	rd, err := f.Reader(addr)
	require.NoError(t, err)
	reader := rd.(*Reader)
	defer reader.Close()

	it, ok, err := reader.Lookup([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)

	d, ok := drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(0), d)
	require.Equal(t, []uint64{0, 2}, drainStarts(it))
}

func TestMergeUnionsDictionariesAndAppliesDeletions(t *testing.T) {
	dir := t.TempDir()
	f := New("t", "simple")

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs1 := []esmy.Document{{"t": "anton the great"}, {"t": "the anton"}}
	require.NoError(t, f.WriteSegment(addr1, docs1))

	addr2, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs2 := []esmy.Document{{"t": "anton"}}
	require.NoError(t, f.WriteSegment(addr2, docs2))

	del1 := seg.NewDeletionSet()
	del1.Delete(0) // drop "anton the great"

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

	// docs1 surviving: index 1 ("the anton") -> new id 0.
	// docs2 base offset = 1: index 0 ("anton") -> new id 1.
	it, ok, err := reader.Lookup([]byte("anton"))
	require.NoError(t, err)
	require.True(t, ok)

	d, ok := drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(0), d)
	require.Equal(t, []uint64{1}, drainStarts(it))

	d, ok = drainDoc(it)
	require.True(t, ok)
	require.Equal(t, esmy.DocId(1), d)
	require.Equal(t, []uint64{0}, drainStarts(it))
}

func TestMergeOfAllEmptySegmentsWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	f := New("t", "simple")

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
	require.False(t, seg.FileExists(newAddr, "pos"))
}
