package ethtypes

import (
	"encoding/json"
	"fmt"
)

// TxReceipt mirrors `eth_getTransactionReceipt`. Status is strictly 0
// or 1; ContractAddress is present only for contract-creation
// receipts.
type TxReceipt struct {
	TransactionHash   Hash      `json:"transactionHash"`
	BlockHash         Hash      `json:"blockHash"`
	BlockNumber       uint64    `json:"-"`
	BlockNumberHex    string    `json:"blockNumber"`
	From              Address   `json:"from"`
	To                *Address  `json:"to"`
	ContractAddress   *Address  `json:"contractAddress"`
	GasUsed           uint64    `json:"-"`
	GasUsedHex        string    `json:"gasUsed"`
	CumulativeGasUsed uint64    `json:"-"`
	CumulativeGasHex  string    `json:"cumulativeGasUsed"`
	EffectiveGasPrice *uint64   `json:"-"`
	EffectiveGasHex   string    `json:"effectiveGasPrice,omitempty"`
	Status            int       `json:"-"`
	StatusHex         string    `json:"status"`
	Logs              []LogData `json:"logs"`
}

// UnmarshalJSON coerces hex-quantity fields and validates that Status
// decodes to strictly 0 or 1.
func (r *TxReceipt) UnmarshalJSON(data []byte) error {
	type alias TxReceipt
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = TxReceipt(a)

	var err error
	if r.BlockNumber, err = HexUint64(r.BlockNumberHex); err != nil {
		return fmt.Errorf("ethtypes: TxReceipt.blockNumber: %w", err)
	}
	if r.GasUsed, err = HexUint64(r.GasUsedHex); err != nil {
		return fmt.Errorf("ethtypes: TxReceipt.gasUsed: %w", err)
	}
	if r.CumulativeGasUsed, err = HexUint64(r.CumulativeGasHex); err != nil {
		return fmt.Errorf("ethtypes: TxReceipt.cumulativeGasUsed: %w", err)
	}
	if r.EffectiveGasHex != "" {
		g, err := HexUint64(r.EffectiveGasHex)
		if err != nil {
			return fmt.Errorf("ethtypes: TxReceipt.effectiveGasPrice: %w", err)
		}
		r.EffectiveGasPrice = &g
	}
	status, err := HexUint64(r.StatusHex)
	if err != nil {
		return fmt.Errorf("ethtypes: TxReceipt.status: %w", err)
	}
	if status != 0 && status != 1 {
		return fmt.Errorf("ethtypes: TxReceipt.status must be 0 or 1, got %d", status)
	}
	r.Status = int(status)
	return nil
}

// Succeeded reports whether the transaction's receipt status is 1.
func (r TxReceipt) Succeeded() bool {
	return r.Status == 1
}
