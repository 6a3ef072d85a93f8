package ethtypes

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Wei is a non-negative arbitrary-precision integer. On the wire it is
// carried as a 0x-prefixed, leading-zero-suppressed hex quantity (see
// go-ethereum's hexutil.Big, which this type wraps rather than
// reimplements).
type Wei struct {
	big.Int
}

// NewWei wraps an existing *big.Int as a Wei value.
func NewWei(v *big.Int) Wei {
	if v == nil {
		return Wei{}
	}
	var w Wei
	w.Set(v)
	return w
}

// WeiFromUint64 builds a Wei value from a uint64.
func WeiFromUint64(v uint64) Wei {
	var w Wei
	w.SetUint64(v)
	return w
}

// MarshalJSON encodes the value as a 0x-prefixed hex quantity.
func (w Wei) MarshalJSON() ([]byte, error) {
	return json.Marshal((*hexutil.Big)(&w.Int))
}

// UnmarshalJSON decodes a 0x-prefixed hex quantity into the value.
func (w *Wei) UnmarshalJSON(data []byte) error {
	var hb hexutil.Big
	if err := json.Unmarshal(data, &hb); err != nil {
		return fmt.Errorf("ethtypes: invalid wei quantity: %w", err)
	}
	w.Int = *(*big.Int)(&hb)
	if w.Sign() < 0 {
		return fmt.Errorf("ethtypes: wei quantity must be non-negative, got %s", w.String())
	}
	return nil
}

// HexUint64 decodes a 0x-prefixed hex quantity string into a uint64,
// the coercion every integer-valued wire field (gas, nonce, block
// number, ...) goes through on parse.
func HexUint64(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("ethtypes: empty hex quantity")
	}
	return hexutil.DecodeUint64(s)
}

// EncodeUint64 renders v as a 0x-prefixed, leading-zero-suppressed hex
// quantity.
func EncodeUint64(v uint64) string {
	return hexutil.EncodeUint64(v)
}

// HexBig decodes a 0x-prefixed hex quantity string into a *big.Int.
func HexBig(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("ethtypes: empty hex quantity")
	}
	return hexutil.DecodeBig(s)
}

// EncodeBig renders v as a 0x-prefixed hex quantity.
func EncodeBig(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(v)
}

// HexBytes decodes a 0x-prefixed hex byte string (e.g. call data,
// signed-transaction RLP).
func HexBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

// EncodeBytes renders b as a 0x-prefixed hex string.
func EncodeBytes(b []byte) string {
	return hexutil.Encode(b)
}
