package rpcclient

import (
	"context"
	"encoding/json"
	"math/big"
	"sort"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
)

// BaseFee returns the base fee per gas of the latest block, or zero for
// a pre-London chain with no EIP-1559 base fee. Grounded on
// RPCHelper.GetBaseFee (ethereum/rpc.go).
func (c *Client) BaseFee(ctx context.Context) (*big.Int, error) {
	raw, err := c.call(ctx, "eth_getBlockByNumber", ethtypes.BlockLatest, false)
	if err != nil {
		return nil, err
	}
	var block struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, ethrpc.ParseError(err, "decode block for base fee")
	}
	if block.BaseFeePerGas == "" {
		return big.NewInt(0), nil
	}
	fee, err := ethtypes.HexBig(block.BaseFeePerGas)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode baseFeePerGas")
	}
	return fee, nil
}

// defaultPriorityFee is returned when eth_feeHistory carries no reward
// data to take the median of, matching the 2 Gwei fallback used in
// ethereum/fee.go.
var defaultPriorityFee = big.NewInt(2_000_000_000)

// SuggestedPriorityFee returns the median of the 50th-percentile
// priority fee over the last ten blocks via eth_feeHistory, grounded on
// RPCHelper.GetFeeHistory (ethereum/rpc.go).
func (c *Client) SuggestedPriorityFee(ctx context.Context) (*big.Int, error) {
	raw, err := c.call(ctx, "eth_feeHistory", ethtypes.EncodeUint64(10), ethtypes.BlockLatest, []int{50})
	if err != nil {
		return nil, err
	}
	var history struct {
		Reward [][]string `json:"reward"`
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, ethrpc.ParseError(err, "decode fee history")
	}
	var fees []*big.Int
	for _, rewards := range history.Reward {
		if len(rewards) == 0 {
			continue
		}
		fee, err := ethtypes.HexBig(rewards[0])
		if err != nil {
			continue
		}
		fees = append(fees, fee)
	}
	if len(fees) == 0 {
		return new(big.Int).Set(defaultPriorityFee), nil
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Cmp(fees[j]) < 0 })
	mid := len(fees) / 2
	if len(fees)%2 == 1 {
		return fees[mid], nil
	}
	sum := new(big.Int).Add(fees[mid-1], fees[mid])
	return sum.Div(sum, big.NewInt(2)), nil
}
