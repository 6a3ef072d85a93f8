package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
)

// BlockByNumber calls eth_getBlockByNumber with full_transactions set
// to false, returning transaction hashes only.
func (c *Client) BlockByNumber(ctx context.Context, block ethtypes.BlockParameter) (*ethtypes.BlockData[ethtypes.TxHash], error) {
	raw, err := c.call(ctx, "eth_getBlockByNumber", block.String(), false)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var b ethtypes.BlockData[ethtypes.TxHash]
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getBlockByNumber result")
	}
	return &b, nil
}

// BlockByNumberFull calls eth_getBlockByNumber with full_transactions
// set to true, returning complete transaction objects.
func (c *Client) BlockByNumberFull(ctx context.Context, block ethtypes.BlockParameter) (*ethtypes.BlockData[ethtypes.TxData], error) {
	raw, err := c.call(ctx, "eth_getBlockByNumber", block.String(), true)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var b ethtypes.BlockData[ethtypes.TxData]
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getBlockByNumber (full) result")
	}
	return &b, nil
}

// BlockByHash calls eth_getBlockByHash with full_transactions set to
// false, the by-hash counterpart to the by-number variants above.
func (c *Client) BlockByHash(ctx context.Context, hash ethtypes.Hash) (*ethtypes.BlockData[ethtypes.TxHash], error) {
	raw, err := c.call(ctx, "eth_getBlockByHash", hash.String(), false)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var b ethtypes.BlockData[ethtypes.TxHash]
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getBlockByHash result")
	}
	return &b, nil
}

// BlockByHashFull calls eth_getBlockByHash with full_transactions set
// to true.
func (c *Client) BlockByHashFull(ctx context.Context, hash ethtypes.Hash) (*ethtypes.BlockData[ethtypes.TxData], error) {
	raw, err := c.call(ctx, "eth_getBlockByHash", hash.String(), true)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var b ethtypes.BlockData[ethtypes.TxData]
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getBlockByHash (full) result")
	}
	return &b, nil
}
