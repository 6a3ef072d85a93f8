package ethtypes

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// TxParams is the configuration map backing a transaction submission or
// an `eth_call`/`eth_estimateGas` request. Fields are optional except
// where noted; EIP-1559 fee fields are mutually exclusive with the
// legacy GasPrice field. Every integer-valued field serializes as a hex
// quantity; omitted fields are left out of the wire object entirely
// rather than sent as null.
type TxParams struct {
	From                 *Address `json:"from,omitempty"`
	To                   *Address `json:"to,omitempty"`
	Gas                  *uint64  `json:"-"`
	GasPrice             *big.Int `json:"-"`
	MaxFeePerGas         *big.Int `json:"-"`
	MaxPriorityFeePerGas *big.Int `json:"-"`
	Value                *big.Int `json:"-"`
	Data                 []byte   `json:"-"`
	Nonce                *uint64  `json:"-"`
	ChainID              *big.Int `json:"-"`
}

// Clone returns a deep-enough copy safe to mutate independently (used
// by txn.Transaction, which fills defaults into a private copy of the
// caller-supplied TxParams).
func (p TxParams) Clone() TxParams {
	cp := p
	if p.Gas != nil {
		g := *p.Gas
		cp.Gas = &g
	}
	if p.Nonce != nil {
		n := *p.Nonce
		cp.Nonce = &n
	}
	if p.GasPrice != nil {
		cp.GasPrice = new(big.Int).Set(p.GasPrice)
	}
	if p.MaxFeePerGas != nil {
		cp.MaxFeePerGas = new(big.Int).Set(p.MaxFeePerGas)
	}
	if p.MaxPriorityFeePerGas != nil {
		cp.MaxPriorityFeePerGas = new(big.Int).Set(p.MaxPriorityFeePerGas)
	}
	if p.Value != nil {
		cp.Value = new(big.Int).Set(p.Value)
	}
	if p.ChainID != nil {
		cp.ChainID = new(big.Int).Set(p.ChainID)
	}
	if p.Data != nil {
		cp.Data = append([]byte(nil), p.Data...)
	}
	return cp
}

// IsEIP1559 reports whether the fee is expressed as EIP-1559
// max-fee/max-priority-fee rather than a legacy GasPrice.
func (p TxParams) IsEIP1559() bool {
	return p.MaxFeePerGas != nil || p.MaxPriorityFeePerGas != nil
}

// MarshalJSON renders the wire object, hex-encoding integers and
// omitting unset fields.
func (p TxParams) MarshalJSON() ([]byte, error) {
	if p.GasPrice != nil && p.IsEIP1559() {
		return nil, fmt.Errorf("ethtypes: TxParams has both gasPrice and EIP-1559 fee fields set")
	}
	m := map[string]interface{}{}
	if p.From != nil {
		m["from"] = p.From.String()
	}
	if p.To != nil {
		m["to"] = p.To.String()
	}
	if p.Gas != nil {
		m["gas"] = EncodeUint64(*p.Gas)
	}
	if p.GasPrice != nil {
		m["gasPrice"] = EncodeBig(p.GasPrice)
	}
	if p.MaxFeePerGas != nil {
		m["maxFeePerGas"] = EncodeBig(p.MaxFeePerGas)
	}
	if p.MaxPriorityFeePerGas != nil {
		m["maxPriorityFeePerGas"] = EncodeBig(p.MaxPriorityFeePerGas)
	}
	if p.Value != nil {
		m["value"] = EncodeBig(p.Value)
	}
	if p.Data != nil {
		m["data"] = EncodeBytes(p.Data)
	}
	if p.Nonce != nil {
		m["nonce"] = EncodeUint64(*p.Nonce)
	}
	if p.ChainID != nil {
		m["chainId"] = EncodeBig(p.ChainID)
	}
	return json.Marshal(m)
}

// TxHash is the wire shape of a transaction item in a block fetched
// with full_transactions=false.
type TxHash Hash

func (h TxHash) String() string { return Hash(h).String() }

func (h TxHash) MarshalJSON() ([]byte, error) { return Hash(h).MarshalJSON() }

func (h *TxHash) UnmarshalJSON(data []byte) error { return (*Hash)(h).UnmarshalJSON(data) }

// TxData mirrors `eth_getTransactionByHash` / a full-transaction block
// item. Every integer field is coerced from its wire hex quantity on
// parse.
type TxData struct {
	Hash                 Hash     `json:"hash"`
	BlockHash            *Hash    `json:"blockHash"`
	BlockNumber          *uint64  `json:"-"`
	BlockNumberHex       *string  `json:"blockNumber"`
	From                 Address  `json:"from"`
	To                   *Address `json:"to"`
	Gas                  uint64   `json:"-"`
	GasHex               string   `json:"gas"`
	GasPrice             *big.Int `json:"-"`
	GasPriceHex          string   `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"-"`
	MaxFeePerGasHex      string   `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"-"`
	MaxPriorityFeeHex    string   `json:"maxPriorityFeePerGas,omitempty"`
	Value                *big.Int `json:"-"`
	ValueHex             string   `json:"value"`
	Nonce                uint64   `json:"-"`
	NonceHex             string   `json:"nonce"`
	Input                []byte   `json:"-"`
	InputHex             string   `json:"input"`
}

// UnmarshalJSON coerces every hex-quantity field to its integer form.
func (t *TxData) UnmarshalJSON(data []byte) error {
	type alias TxData
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = TxData(a)

	var err error
	if t.Gas, err = HexUint64(t.GasHex); err != nil {
		return fmt.Errorf("ethtypes: TxData.gas: %w", err)
	}
	if t.Nonce, err = HexUint64(t.NonceHex); err != nil {
		return fmt.Errorf("ethtypes: TxData.nonce: %w", err)
	}
	if t.ValueHex != "" {
		if t.Value, err = HexBig(t.ValueHex); err != nil {
			return fmt.Errorf("ethtypes: TxData.value: %w", err)
		}
	}
	if t.GasPriceHex != "" {
		if t.GasPrice, err = HexBig(t.GasPriceHex); err != nil {
			return fmt.Errorf("ethtypes: TxData.gasPrice: %w", err)
		}
	}
	if t.MaxFeePerGasHex != "" {
		if t.MaxFeePerGas, err = HexBig(t.MaxFeePerGasHex); err != nil {
			return fmt.Errorf("ethtypes: TxData.maxFeePerGas: %w", err)
		}
	}
	if t.MaxPriorityFeeHex != "" {
		if t.MaxPriorityFeePerGas, err = HexBig(t.MaxPriorityFeeHex); err != nil {
			return fmt.Errorf("ethtypes: TxData.maxPriorityFeePerGas: %w", err)
		}
	}
	if t.InputHex != "" {
		if t.Input, err = HexBytes(t.InputHex); err != nil {
			return fmt.Errorf("ethtypes: TxData.input: %w", err)
		}
	}
	if t.BlockNumberHex != nil {
		n, err := HexUint64(*t.BlockNumberHex)
		if err != nil {
			return fmt.Errorf("ethtypes: TxData.blockNumber: %w", err)
		}
		t.BlockNumber = &n
	}
	return nil
}
