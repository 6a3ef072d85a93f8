package abi

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desktable/aioweb3/ethtypes"
)

func transferSpec(t *testing.T) EventSpec {
	t.Helper()
	spec, err := NewEventSpec("Transfer", []FieldDesc{
		{Name: "from", Type: "address", Indexed: true},
		{Name: "to", Type: "address", Indexed: true},
		{Name: "value", Type: "uint256", Indexed: false},
	})
	require.NoError(t, err)
	return spec
}

func TestEventSpecSignatureAndSigHash(t *testing.T) {
	spec := transferSpec(t)
	assert.Equal(t, "Transfer(address,address,uint256)", spec.Signature)
	assert.Equal(t, 2, spec.NumIndexed())
	assert.False(t, spec.SigHash.IsZero())
}

func weiTopic(v *big.Int) []byte {
	return padLeft32(v.Bytes())
}

func padLeft32(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func TestParseLogDecodesIndexedAndDataFields(t *testing.T) {
	spec := transferSpec(t)

	from := ethtypes.MustAddress("0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d")
	to := ethtypes.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	value := new(big.Int).SetUint64(9674758874794323778)

	log := ethtypes.LogData{
		Topics: []ethtypes.Hash{
			spec.SigHash,
			ethtypes.MustHash(from.ToEventTopic()),
			ethtypes.MustHash(to.ToEventTopic()),
		},
		Data: weiTopic(value),
	}

	fields, err := ParseLog(spec, log)
	require.NoError(t, err)

	assert.Equal(t, value, fields["value"])
	gotFrom, ok := fields["from"].(common.Address)
	require.True(t, ok)
	assert.Equal(t, from.Bytes(), gotFrom[:])
}

func TestParseLogRejectsWrongSignature(t *testing.T) {
	spec := transferSpec(t)
	log := ethtypes.LogData{
		Topics: []ethtypes.Hash{ethtypes.MustHash("0x0000000000000000000000000000000000000000000000000000000000000001")},
	}
	_, err := ParseLog(spec, log)
	assert.Error(t, err)
}

func TestParseLogRejectsMismatchedTopicCount(t *testing.T) {
	spec := transferSpec(t)
	log := ethtypes.LogData{
		Topics: []ethtypes.Hash{spec.SigHash}, // missing the two indexed topics
	}
	_, err := ParseLog(spec, log)
	assert.Error(t, err)
}

func TestEventParserSkipsUnknownAndMismatchedLogs(t *testing.T) {
	spec := transferSpec(t)
	parser := NewEventParser(spec)

	from := ethtypes.MustAddress("0x18C2ccD3e937bb5b1560A6f70DE9bDB1340D849d")
	to := ethtypes.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	value := big.NewInt(42)

	matching := ethtypes.LogData{
		Topics: []ethtypes.Hash{spec.SigHash, ethtypes.MustHash(from.ToEventTopic()), ethtypes.MustHash(to.ToEventTopic())},
		Data:   weiTopic(value),
	}
	unknownSig := ethtypes.LogData{
		Topics: []ethtypes.Hash{ethtypes.MustHash("0x0000000000000000000000000000000000000000000000000000000000000099")},
	}
	noTopics := ethtypes.LogData{}
	wrongTopicCount := ethtypes.LogData{
		Topics: []ethtypes.Hash{spec.SigHash, ethtypes.MustHash(from.ToEventTopic())},
	}

	parsed := parser.Parse([]ethtypes.LogData{matching, unknownSig, noTopics, wrongTopicCount})
	require.Len(t, parsed, 1)
	assert.Equal(t, "Transfer", parsed[0].Spec.Name)
	assert.Equal(t, value, parsed[0].Fields["value"])
}
