package ethtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddressLowercaseNormalizes(t *testing.T) {
	mixed := "0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d"

	a, err := NewAddress(mixed)
	require.NoError(t, err)

	assert.Equal(t, "0x18c2ccd3e937bb5b1560a6f70de9bdb1340d849d", a.String())
}

func TestNewAddressRejectsWrongLength(t *testing.T) {
	_, err := NewAddress("0x1234")
	assert.Error(t, err)
}

func TestAddressChecksumMatchesEIP55(t *testing.T) {
	// Official EIP-55 test vectors.
	tests := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FC",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}

	for _, checksum := range tests {
		a := MustAddress(checksum)
		assert.Equal(t, checksum, a.Checksum())
	}
}

func TestAddressToEventTopic(t *testing.T) {
	a := MustAddress("0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d")
	assert.Equal(t, "0x00000000000000000000000018c2ccd3e937bb5b1560a6f70de9bdb1340d849d", a.ToEventTopic())
}

func TestAddressJSONRoundTrip(t *testing.T) {
	a := MustAddress("0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d")

	raw, err := a.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"0x18c2ccd3e937bb5b1560a6f70de9bdb1340d849d"`, string(raw))

	var decoded Address
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, a, decoded)
}

func TestAddressIsZero(t *testing.T) {
	var a Address
	assert.True(t, a.IsZero())

	a = MustAddress("0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d")
	assert.False(t, a.IsZero())
}
