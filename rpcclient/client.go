// Package rpcclient is the thin typed facade over a transport.Transport:
// every method hex-encodes its parameters, issues the request, and
// parses the raw result into its strongly typed Go form, mirroring
// RPCHelper (ethereum/rpc.go) generalized from a handful of
// signer-support calls into the full Ethereum JSON-RPC surface this
// client exposes.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/transport"
)

// Client wraps a transport.Transport with typed Ethereum JSON-RPC
// methods. It is safe for concurrent use; ChainID caches its result
// after the first successful fetch, the way a connection-scoped
// adapter caches config derived once per connection.
type Client struct {
	t transport.Transport

	chainIDMu sync.Mutex
	chainID   *big.Int
}

// New wraps an already-dialed transport in a Client.
func New(t transport.Transport) *Client {
	return &Client{t: t}
}

// Transport returns the underlying transport, for callers that need
// Close or a Subscriber type-assertion directly.
func (c *Client) Transport() transport.Transport {
	return c.t
}

// Close releases the underlying transport's resources.
func (c *Client) Close() error {
	return c.t.Close()
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}
	return c.t.SendRequest(ctx, method, params)
}

func decodeString(raw json.RawMessage, dst *string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return ethrpc.ParseError(err, "decode string result")
	}
	return nil
}

// ClientVersion calls web3_clientVersion.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "web3_clientVersion")
	if err != nil {
		return "", err
	}
	var v string
	if err := decodeString(raw, &v); err != nil {
		return "", err
	}
	return v, nil
}

// ChainID calls eth_chainId, caching the result after the first
// successful fetch.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDMu.Lock()
	defer c.chainIDMu.Unlock()
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}

	raw, err := c.call(ctx, "eth_chainId")
	if err != nil {
		return nil, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return nil, err
	}
	id, err := ethtypes.HexBig(hex)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_chainId result")
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// Accounts calls eth_accounts.
func (c *Client) Accounts(ctx context.Context) ([]ethtypes.Address, error) {
	raw, err := c.call(ctx, "eth_accounts")
	if err != nil {
		return nil, err
	}
	var addrs []ethtypes.Address
	if err := json.Unmarshal(raw, &addrs); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_accounts result")
	}
	return addrs, nil
}

// BlockNumber calls eth_blockNumber.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return 0, err
	}
	n, err := ethtypes.HexUint64(hex)
	if err != nil {
		return 0, ethrpc.ParseError(err, "decode eth_blockNumber result")
	}
	return n, nil
}

// GasPrice calls eth_gasPrice.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	raw, err := c.call(ctx, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return nil, err
	}
	v, err := ethtypes.HexBig(hex)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_gasPrice result")
	}
	return v, nil
}

// TransactionCount calls eth_getTransactionCount for address at block.
func (c *Client) TransactionCount(ctx context.Context, address ethtypes.Address, block ethtypes.BlockParameter) (uint64, error) {
	raw, err := c.call(ctx, "eth_getTransactionCount", address.String(), block.String())
	if err != nil {
		return 0, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return 0, err
	}
	n, err := ethtypes.HexUint64(hex)
	if err != nil {
		return 0, ethrpc.ParseError(err, "decode eth_getTransactionCount result")
	}
	return n, nil
}

// Balance calls eth_getBalance for address at block.
func (c *Client) Balance(ctx context.Context, address ethtypes.Address, block ethtypes.BlockParameter) (*big.Int, error) {
	raw, err := c.call(ctx, "eth_getBalance", address.String(), block.String())
	if err != nil {
		return nil, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return nil, err
	}
	v, err := ethtypes.HexBig(hex)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getBalance result")
	}
	return v, nil
}

// Code calls eth_getCode for address at block. An account with no
// contract code returns an empty slice rather than an error.
func (c *Client) Code(ctx context.Context, address ethtypes.Address, block ethtypes.BlockParameter) ([]byte, error) {
	raw, err := c.call(ctx, "eth_getCode", address.String(), block.String())
	if err != nil {
		return nil, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return nil, err
	}
	if hex == "" || hex == "0x" {
		return nil, nil
	}
	b, err := ethtypes.HexBytes(hex)
	if err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getCode result")
	}
	return b, nil
}

// SendRawTransaction calls eth_sendRawTransaction with the RLP-encoded
// signed transaction bytes.
func (c *Client) SendRawTransaction(ctx context.Context, signed []byte) (ethtypes.Hash, error) {
	raw, err := c.call(ctx, "eth_sendRawTransaction", ethtypes.EncodeBytes(signed))
	if err != nil {
		return ethtypes.Hash{}, err
	}
	var hex string
	if err := decodeString(raw, &hex); err != nil {
		return ethtypes.Hash{}, err
	}
	h, err := ethtypes.NewHash(hex)
	if err != nil {
		return ethtypes.Hash{}, ethrpc.ParseError(err, "decode eth_sendRawTransaction result")
	}
	return h, nil
}

// TransactionByHash calls eth_getTransactionByHash. Returns (nil, nil)
// when the node reports no such transaction (a null result).
func (c *Client) TransactionByHash(ctx context.Context, hash ethtypes.Hash) (*ethtypes.TxData, error) {
	raw, err := c.call(ctx, "eth_getTransactionByHash", hash.String())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var tx ethtypes.TxData
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getTransactionByHash result")
	}
	return &tx, nil
}

// TransactionReceipt calls eth_getTransactionReceipt. Returns (nil,
// nil) while the transaction is still pending (a null result).
func (c *Client) TransactionReceipt(ctx context.Context, hash ethtypes.Hash) (*ethtypes.TxReceipt, error) {
	raw, err := c.call(ctx, "eth_getTransactionReceipt", hash.String())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var r ethtypes.TxReceipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getTransactionReceipt result")
	}
	return &r, nil
}

// WaitForTransactionReceiptInterval is the poll period used by
// WaitForTransactionReceipt, matching the Signer's own receipt-wait
// cadence.
const WaitForTransactionReceiptInterval = 3 * time.Second

// WaitForTransactionReceipt polls TransactionReceipt every
// WaitForTransactionReceiptInterval until a receipt appears or ctx is
// done.
func (c *Client) WaitForTransactionReceipt(ctx context.Context, hash ethtypes.Hash) (*ethtypes.TxReceipt, error) {
	ticker := time.NewTicker(WaitForTransactionReceiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ethrpc.TimeoutError(ctx.Err(), "wait_for_transaction_receipt: deadline exceeded for %s", hash)
		case <-ticker.C:
		}
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
