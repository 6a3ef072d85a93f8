package ethtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHashRejectsWrongLength(t *testing.T) {
	_, err := NewHash("0xabcd")
	assert.Error(t, err)
}

func TestHashFromBytesLeftPads(t *testing.T) {
	h := HashFromBytes([]byte{0xde, 0xad})
	want := "0x000000000000000000000000000000000000000000000000000000000000dead"
	assert.Equal(t, want, h.String())
}

func TestHashFromBytesTruncatesOverlong(t *testing.T) {
	b := make([]byte, 40)
	for i := range b {
		b[i] = byte(i)
	}
	h := HashFromBytes(b)
	assert.Equal(t, b[8:], h.Bytes())
}

func TestHashJSONRoundTrip(t *testing.T) {
	h := MustHash("0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef")
	raw, err := h.MarshalJSON()
	require.NoError(t, err)

	var decoded Hash
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, h, decoded)
}
