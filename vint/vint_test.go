package vint

import (
	"bufio"
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeKnownValues(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, c := range cases {
		buf, n := Encode(nil, c.v)
		require.Equal(t, c.want, buf)
		require.Equal(t, len(c.want), n)
	}
}

func TestRoundTripSlice(t *testing.T) {
	values := []uint64{0, 1, 2, 127, 128, 300, 16383, 16384, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		buf, n := Encode(nil, v)
		got, consumed, ok := Decode(buf)
		require.True(t, ok)
		require.Equal(t, n, consumed)
		require.Equal(t, v, got)
	}
}

func TestRoundTripStream(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16383, 16384, math.MaxUint64, 42, 1 << 40}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, v := range values {
		_, err := Write(w, v)
		require.NoError(t, err)
	}
	require.NoError(t, w.Flush())

	r := bufio.NewReader(&buf)
	for _, want := range values {
		got, _, err := Read(r)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestReadUnexpectedEOF(t *testing.T) {
	// A continuation byte with nothing following is corrupt, not a
	// clean end of stream.
	r := bufio.NewReader(bytes.NewReader([]byte{0x80}))
	_, _, err := Read(r)
	require.Error(t, err)
}

func TestDecodeIncomplete(t *testing.T) {
	_, _, ok := Decode([]byte{0x80, 0x80})
	require.False(t, ok)
}
