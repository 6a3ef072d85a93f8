package ethtypes

import (
	"encoding/json"
	"fmt"
)

// LogData mirrors a single entry from `eth_getLogs` / a receipt's
// `logs` array / an `eth_subscribe("logs")` notification. Topics[0],
// when present, is the event signature hash; Topics[1:] are the
// indexed argument values (see abi.ParseLog).
type LogData struct {
	Address          Address `json:"address"`
	Topics           []Hash  `json:"topics"`
	Data             []byte  `json:"-"`
	DataHex          string  `json:"data"`
	BlockNumber      uint64  `json:"-"`
	BlockNumberHex   string  `json:"blockNumber"`
	TransactionHash  Hash    `json:"transactionHash"`
	TransactionIndex uint64  `json:"-"`
	TxIndexHex       string  `json:"transactionIndex"`
	BlockHash        Hash    `json:"blockHash"`
	LogIndex         uint64  `json:"-"`
	LogIndexHex      string  `json:"logIndex"`
	Removed          bool    `json:"removed"`
}

// UnmarshalJSON coerces hex-quantity and hex-bytes fields.
func (l *LogData) UnmarshalJSON(data []byte) error {
	type alias LogData
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = LogData(a)

	var err error
	if l.Data, err = HexBytes(l.DataHex); err != nil {
		return fmt.Errorf("ethtypes: LogData.data: %w", err)
	}
	if l.BlockNumber, err = HexUint64(l.BlockNumberHex); err != nil {
		return fmt.Errorf("ethtypes: LogData.blockNumber: %w", err)
	}
	if l.TransactionIndex, err = HexUint64(l.TxIndexHex); err != nil {
		return fmt.Errorf("ethtypes: LogData.transactionIndex: %w", err)
	}
	if l.LogIndex, err = HexUint64(l.LogIndexHex); err != nil {
		return fmt.Errorf("ethtypes: LogData.logIndex: %w", err)
	}
	return nil
}

// FilterSpec is the parameter object for `eth_newFilter` /
// `eth_getLogs`. Null/unset fields are omitted from the wire object
// entirely.
type FilterSpec struct {
	FromBlock *BlockParameter `json:"fromBlock,omitempty"`
	ToBlock   *BlockParameter `json:"toBlock,omitempty"`
	Address   []Address       `json:"address,omitempty"`
	Topics    []*Hash         `json:"topics,omitempty"`
	BlockHash *Hash           `json:"blockHash,omitempty"`
}
