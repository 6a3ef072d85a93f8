package ethtypes

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxDataDecodesHexQuantities(t *testing.T) {
	raw := []byte(`{
		"hash": "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef",
		"from": "0x18c2ccd3e937bb5b1560a6f70de9bdb1340d849d",
		"to": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"gas": "0xc350",
		"gasPrice": "0x3b9aca00",
		"nonce": "0x15",
		"value": "0xf3dbb76162000",
		"input": "0x"
	}`)

	var tx TxData
	require.NoError(t, json.Unmarshal(raw, &tx))

	assert.Equal(t, uint64(50000), tx.Gas)
	assert.Equal(t, uint64(21), tx.Nonce)
	require.NotNil(t, tx.Value)
	assert.Equal(t, "4290000000000000", tx.Value.String())
}

func TestTxParamsMarshalOmitsUnsetFields(t *testing.T) {
	p := TxParams{}
	raw, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestTxParamsMarshalRejectsMixedFeeKinds(t *testing.T) {
	p := TxParams{}
	p.GasPrice = big.NewInt(1)
	p.MaxFeePerGas = big.NewInt(2)

	_, err := p.MarshalJSON()
	assert.Error(t, err)
}

func TestTxParamsCloneIsIndependent(t *testing.T) {
	nonce := uint64(5)
	p := TxParams{Nonce: &nonce, Value: big.NewInt(10)}

	clone := p.Clone()
	*clone.Nonce = 99
	clone.Value.SetInt64(999)

	assert.Equal(t, uint64(5), *p.Nonce)
	assert.Equal(t, "10", p.Value.String())
}
