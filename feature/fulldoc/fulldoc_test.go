package fulldoc

import (
	"testing"

	"github.com/doublemo/esmy"
	"github.com/doublemo/esmy/seg"
	"github.com/stretchr/testify/require"
)

func docs(n int) []esmy.Document {
	out := make([]esmy.Document, n)
	for i := range out {
		out[i] = esmy.Document{
			"title": "doc",
			"n":     string(rune('a' + i%26)),
		}
	}
	return out
}

func readAll(t *testing.T, r esmy.FullDocReader, n int) []esmy.Document {
	t.Helper()
	out := make([]esmy.Document, n)
	for i := 0; i < n; i++ {
		d, err := r.Read(esmy.DocId(i))
		require.NoError(t, err)
		out[i] = d
	}
	return out
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("body")
	want := docs(10)
	require.NoError(t, f.WriteSegment(addr, want))

	fr, err := f.Reader(addr)
	require.NoError(t, err)
	require.NotNil(t, fr)
	reader := fr.(*Reader)
	defer reader.Close()

	got := readAll(t, reader, len(want))
	require.Equal(t, want, got)
}

func TestWriteReadAcrossBlockBoundary(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := &Feature{key: "body", maxBlockDocs: 4}
	want := docs(13)
	require.NoError(t, f.WriteSegment(addr, want))

	fr, err := f.Reader(addr)
	require.NoError(t, err)
	reader := fr.(*Reader)
	defer reader.Close()

	got := readAll(t, reader, len(want))
	require.Equal(t, want, got)
}

func TestReaderAbsentWhenNoDocsWritten(t *testing.T) {
	dir := t.TempDir()
	addr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	f := New("body")
	require.NoError(t, f.WriteSegment(addr, nil))

	fr, err := f.Reader(addr)
	require.NoError(t, err)
	require.Nil(t, fr)
}

func TestMergeNoDeletions(t *testing.T) {
	dir := t.TempDir()
	f := &Feature{key: "body", maxBlockDocs: 4}

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs1 := docs(5)
	require.NoError(t, f.WriteSegment(addr1, docs1))

	addr2, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs2 := docs(3)
	require.NoError(t, f.WriteSegment(addr2, docs2))

	fr1, err := f.Reader(addr1)
	require.NoError(t, err)
	fr2, err := f.Reader(addr2)
	require.NoError(t, err)

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: fr1, DocCount: uint64(len(docs1)), Deletes: seg.NewDeletionSet()},
		{Address: addr2, Reader: fr2, DocCount: uint64(len(docs2)), Deletes: seg.NewDeletionSet()},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))
	require.NoError(t, fr1.Close())
	require.NoError(t, fr2.Close())

	mergedReader, err := f.Reader(newAddr)
	require.NoError(t, err)
	require.NotNil(t, mergedReader)
	reader := mergedReader.(*Reader)
	defer reader.Close()

	want := append(append([]esmy.Document{}, docs1...), docs2...)
	got := readAll(t, reader, len(want))
	require.Equal(t, want, got)
}

func TestMergeWithDeletions(t *testing.T) {
	dir := t.TempDir()
	f := &Feature{key: "body", maxBlockDocs: 4}

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs1 := docs(5)
	require.NoError(t, f.WriteSegment(addr1, docs1))

	addr2, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs2 := docs(4)
	require.NoError(t, f.WriteSegment(addr2, docs2))

	del1 := seg.NewDeletionSet()
	del1.Delete(1)
	del1.Delete(3)

	del2 := seg.NewDeletionSet()
	del2.Delete(0)

	fr1, err := f.Reader(addr1)
	require.NoError(t, err)
	fr2, err := f.Reader(addr2)
	require.NoError(t, err)

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: fr1, DocCount: uint64(len(docs1)), Deletes: del1},
		{Address: addr2, Reader: fr2, DocCount: uint64(len(docs2)), Deletes: del2},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))
	require.NoError(t, fr1.Close())
	require.NoError(t, fr2.Close())

	mergedReader, err := f.Reader(newAddr)
	require.NoError(t, err)
	reader := mergedReader.(*Reader)
	defer reader.Close()

	want := []esmy.Document{docs1[0], docs1[2], docs1[4], docs2[1], docs2[2], docs2[3]}
	got := readAll(t, reader, len(want))
	require.Equal(t, want, got)
}

func TestMergeCopyPathThenDeletionPathRebasesBlockStart(t *testing.T) {
	dir := t.TempDir()
	f := &Feature{key: "body", maxBlockDocs: 4}

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs1 := docs(5)
	require.NoError(t, f.WriteSegment(addr1, docs1))

	addr2, err := seg.NewAddress(dir)
	require.NoError(t, err)
	docs2 := docs(4)
	require.NoError(t, f.WriteSegment(addr2, docs2))

	del2 := seg.NewDeletionSet()
	del2.Delete(1)

	fr1, err := f.Reader(addr1)
	require.NoError(t, err)
	fr2, err := f.Reader(addr2)
	require.NoError(t, err)

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: fr1, DocCount: uint64(len(docs1)), Deletes: seg.NewDeletionSet()},
		{Address: addr2, Reader: fr2, DocCount: uint64(len(docs2)), Deletes: del2},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))
	require.NoError(t, fr1.Close())
	require.NoError(t, fr2.Close())

	mergedReader, err := f.Reader(newAddr)
	require.NoError(t, err)
	reader := mergedReader.(*Reader)
	defer reader.Close()

	want := []esmy.Document{docs1[0], docs1[1], docs1[2], docs1[3], docs1[4], docs2[0], docs2[2], docs2[3]}
	got := readAll(t, reader, len(want))
	require.Equal(t, want, got)
}

func TestMergeOfAllEmptySegmentsWritesNoFiles(t *testing.T) {
	dir := t.TempDir()
	f := New("body")

	addr1, err := seg.NewAddress(dir)
	require.NoError(t, err)
	require.NoError(t, f.WriteSegment(addr1, nil))

	newAddr, err := seg.NewAddress(dir)
	require.NoError(t, err)

	inputs := []esmy.MergeInput{
		{Address: addr1, Reader: nil, DocCount: 0, Deletes: seg.NewDeletionSet()},
	}
	require.NoError(t, f.MergeSegments(inputs, newAddr))

	require.False(t, seg.FileExists(newAddr, "fdo"))
	require.False(t, seg.FileExists(newAddr, "fdv"))
}
