package rpcclient

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/abi"
	"github.com/desktable/aioweb3/ethtypes"
)

// AccountOverride is one entry of a StateOverride set, the geth
// extension to eth_call that lets a caller simulate against a modified
// account state without touching the chain.
type AccountOverride struct {
	Balance   *big.Int
	Nonce     *uint64
	Code      []byte
	State     map[ethtypes.Hash]ethtypes.Hash
	StateDiff map[ethtypes.Hash]ethtypes.Hash
}

func (o AccountOverride) wireObject() map[string]interface{} {
	m := map[string]interface{}{}
	if o.Balance != nil {
		m["balance"] = ethtypes.EncodeBig(o.Balance)
	}
	if o.Nonce != nil {
		m["nonce"] = ethtypes.EncodeUint64(*o.Nonce)
	}
	if o.Code != nil {
		m["code"] = ethtypes.EncodeBytes(o.Code)
	}
	if len(o.State) > 0 {
		state := make(map[string]string, len(o.State))
		for k, v := range o.State {
			state[k.String()] = v.String()
		}
		m["state"] = state
	}
	if len(o.StateDiff) > 0 {
		diff := make(map[string]string, len(o.StateDiff))
		for k, v := range o.StateDiff {
			diff[k.String()] = v.String()
		}
		m["stateDiff"] = diff
	}
	return m
}

// StateOverride maps account address to the override applied to it.
type StateOverride map[ethtypes.Address]AccountOverride

func (s StateOverride) wireObject() map[string]interface{} {
	m := make(map[string]interface{}, len(s))
	for addr, o := range s {
		m[addr.String()] = o.wireObject()
	}
	return m
}

// Call invokes eth_call against params at block, with an optional
// state override set. Pass a nil override to omit the third parameter
// entirely.
func (c *Client) Call(ctx context.Context, params ethtypes.TxParams, block ethtypes.BlockParameter, override StateOverride) (json.RawMessage, error) {
	args := []interface{}{params, block.String()}
	if override != nil {
		args = append(args, override.wireObject())
	}
	raw, err := c.call(ctx, "eth_call", args...)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// EstimateGas invokes eth_estimateGas against params, returning the raw
// gas estimate with no multiplier or overhead applied — policy around
// padding that estimate lives in txn.Transaction.Sign, not here.
func (c *Client) EstimateGas(ctx context.Context, params ethtypes.TxParams) (uint64, error) {
	raw, err := c.call(ctx, "eth_estimateGas", params)
	if err != nil {
		return 0, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return 0, err
	}
	n, err := ethtypes.HexUint64(hex)
	if err != nil {
		return 0, ethrpc.ParseError(err, "decode eth_estimateGas result")
	}
	return n, nil
}

// CallMethod composes the convenience pipeline for invoking a contract
// method directly: build selector + ABI-encoded input, invoke eth_call,
// decode the output. A single-output tuple is unwrapped to that one
// value.
func (c *Client) CallMethod(ctx context.Context, to ethtypes.Address, call abi.MethodCall, block ethtypes.BlockParameter, args ...interface{}) (interface{}, error) {
	input, err := call.EncodeInput(args...)
	if err != nil {
		return nil, err
	}
	params := ethtypes.TxParams{To: &to, Data: input}
	raw, err := c.Call(ctx, params, block, nil)
	if err != nil {
		return nil, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return nil, err
	}
	data, err := ethtypes.HexBytes(hex)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_call result for %s", call.Name)
	}
	return call.DecodeOutputUnwrapped(data)
}
