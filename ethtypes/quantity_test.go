package ethtypes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexUint64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xc350, 0xffffffffffffffff}
	for _, v := range values {
		encoded := EncodeUint64(v)
		decoded, err := HexUint64(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestHexBigRoundTripUpTo256Bits(t *testing.T) {
	max256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(4290000000000000),
		max256,
	}
	for _, v := range values {
		encoded := EncodeBig(v)
		decoded, err := HexBig(encoded)
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(decoded), "round trip of %s through %s", v, encoded)
	}
}

func TestHexBytesRoundTrip(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, "0xdeadbeef", EncodeBytes(b))

	decoded, err := HexBytes("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestHexUint64EmptyIsError(t *testing.T) {
	_, err := HexUint64("")
	assert.Error(t, err)
}
