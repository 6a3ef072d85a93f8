package ethtypes

import (
	"encoding/json"
	"fmt"
)

// BlockParameter selects a block by one of the well-known tags
// ("earliest", "latest", "pending") or by a non-negative height. On
// the wire, a height is serialized as a 0x-prefixed hex quantity; a
// tag is serialized as the bare string.
type BlockParameter struct {
	tag    string
	height uint64
	isTag  bool
}

// Well-known block tags.
const (
	BlockEarliest = "earliest"
	BlockLatest   = "latest"
	BlockPending  = "pending"
)

// BlockTag constructs a BlockParameter from one of the well-known tags.
func BlockTag(tag string) BlockParameter {
	return BlockParameter{tag: tag, isTag: true}
}

// BlockHeight constructs a BlockParameter from a non-negative block
// height.
func BlockHeight(height uint64) BlockParameter {
	return BlockParameter{height: height}
}

// Latest is shorthand for BlockTag(BlockLatest), the default used
// throughout the Facade where the caller does not specify a tag.
func Latest() BlockParameter { return BlockTag(BlockLatest) }

// MarshalJSON renders the tag verbatim or the height as a hex quantity.
func (b BlockParameter) MarshalJSON() ([]byte, error) {
	if b.isTag {
		return json.Marshal(b.tag)
	}
	return json.Marshal(EncodeUint64(b.height))
}

// UnmarshalJSON accepts either a tag string or a hex quantity string.
func (b *BlockParameter) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case BlockEarliest, BlockLatest, BlockPending:
		*b = BlockTag(s)
		return nil
	default:
		h, err := HexUint64(s)
		if err != nil {
			return fmt.Errorf("ethtypes: invalid block parameter %q: %w", s, err)
		}
		*b = BlockHeight(h)
		return nil
	}
}

// String implements fmt.Stringer for debug output.
func (b BlockParameter) String() string {
	if b.isTag {
		return b.tag
	}
	return EncodeUint64(b.height)
}

// NewHead mirrors the payload of an `eth_subscribe("newHeads")`
// notification.
type NewHead struct {
	Hash         Hash   `json:"hash"`
	ParentHash   Hash   `json:"parentHash"`
	Number       uint64 `json:"-"`
	NumberHex    string `json:"number"`
	Timestamp    uint64 `json:"-"`
	TimestampHex string `json:"timestamp"`
	GasLimit     uint64 `json:"-"`
	GasLimitHex  string `json:"gasLimit"`
	GasUsed      uint64 `json:"-"`
	GasUsedHex   string `json:"gasUsed"`
	Miner        Address `json:"miner"`
}

// UnmarshalJSON coerces the hex-quantity fields to integers after the
// default struct decode fills the raw hex strings.
func (h *NewHead) UnmarshalJSON(data []byte) error {
	type alias NewHead
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*h = NewHead(a)
	var err error
	if h.Number, err = HexUint64(h.NumberHex); err != nil {
		return fmt.Errorf("ethtypes: NewHead.number: %w", err)
	}
	if h.Timestamp, err = HexUint64(h.TimestampHex); err != nil {
		return fmt.Errorf("ethtypes: NewHead.timestamp: %w", err)
	}
	if h.GasLimit, err = HexUint64(h.GasLimitHex); err != nil {
		return fmt.Errorf("ethtypes: NewHead.gasLimit: %w", err)
	}
	if h.GasUsed, err = HexUint64(h.GasUsedHex); err != nil {
		return fmt.Errorf("ethtypes: NewHead.gasUsed: %w", err)
	}
	return nil
}

// BlockData mirrors `eth_getBlockByNumber`/`eth_getBlockByHash`
// results. It is generic over the transaction item: TxHash when the
// caller requests hashes-only, TxData when full transactions are
// requested.
type BlockData[T any] struct {
	Hash             Hash   `json:"hash"`
	ParentHash       Hash   `json:"parentHash"`
	Number           uint64 `json:"-"`
	NumberHex        string `json:"number"`
	Timestamp        uint64 `json:"-"`
	TimestampHex     string `json:"timestamp"`
	GasLimit         uint64 `json:"-"`
	GasLimitHex      string `json:"gasLimit"`
	GasUsed          uint64 `json:"-"`
	GasUsedHex       string `json:"gasUsed"`
	Miner            Address `json:"miner"`
	BaseFeePerGas    *Wei    `json:"baseFeePerGas,omitempty"`
	Transactions     []T     `json:"transactions"`
}

// UnmarshalJSON coerces the block's hex-quantity fields to integers.
func (b *BlockData[T]) UnmarshalJSON(data []byte) error {
	type alias BlockData[T]
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = BlockData[T](a)
	var err error
	if b.Number, err = HexUint64(b.NumberHex); err != nil {
		return fmt.Errorf("ethtypes: BlockData.number: %w", err)
	}
	if b.Timestamp, err = HexUint64(b.TimestampHex); err != nil {
		return fmt.Errorf("ethtypes: BlockData.timestamp: %w", err)
	}
	if b.GasLimit, err = HexUint64(b.GasLimitHex); err != nil {
		return fmt.Errorf("ethtypes: BlockData.gasLimit: %w", err)
	}
	if b.GasUsed, err = HexUint64(b.GasUsedHex); err != nil {
		return fmt.Errorf("ethtypes: BlockData.gasUsed: %w", err)
	}
	return nil
}
