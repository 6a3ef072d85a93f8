package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/rpcclient"
	"github.com/desktable/aioweb3/txn"
)

// facadeTransport is a hand-rolled transport.Transport fake tailored to
// the Signer tests: constant replies for chain id / gas estimate / gas
// price, a counting eth_getTransactionCount that flips from the wallet's
// starting nonce to a bumped one, deterministic send hashes, and
// receipts looked up by hash so the test can wire each hash to a
// specific outcome once it learns which nonce it was sent under.
type facadeTransport struct {
	mu            sync.Mutex
	receiptByHash map[string]json.RawMessage

	sendCounter atomic.Uint64
	countCalls  atomic.Uint64

	startingCount uint64
	bumpedCount   uint64
}

func newFacadeTransport(startingCount, bumpedCount uint64) *facadeTransport {
	return &facadeTransport{
		receiptByHash: make(map[string]json.RawMessage),
		startingCount: startingCount,
		bumpedCount:   bumpedCount,
	}
}

func (f *facadeTransport) setReceipt(hash string, raw json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptByHash[hash] = raw
}

func (f *facadeTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	switch method {
	case "eth_chainId":
		return json.Marshal("0x1")
	case "eth_estimateGas":
		return json.Marshal("0x5208")
	case "eth_gasPrice":
		return json.Marshal("0x1")
	case "eth_getTransactionCount":
		n := f.countCalls.Add(1)
		if n == 1 {
			return json.Marshal(ethtypes.EncodeUint64(f.startingCount))
		}
		return json.Marshal(ethtypes.EncodeUint64(f.bumpedCount))
	case "eth_sendRawTransaction":
		n := f.sendCounter.Add(1)
		return json.Marshal(fmt.Sprintf("0x%064x", n))
	case "eth_getTransactionReceipt":
		args, ok := params.([]interface{})
		if !ok || len(args) == 0 {
			return nil, fmt.Errorf("facadeTransport: malformed eth_getTransactionReceipt params")
		}
		hash, _ := args[0].(string)
		f.mu.Lock()
		raw, found := f.receiptByHash[hash]
		f.mu.Unlock()
		if !found {
			return json.RawMessage(`null`), nil
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("facadeTransport: unprogrammed method %s", method)
	}
}

func (f *facadeTransport) Close() error { return nil }

func minedReceiptJSON(hash string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"transactionHash": %q,
		"blockHash": "0xabcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890",
		"blockNumber": "0x1",
		"from": "0x18c2ccd3e937bb5b1560a6f70de9bdb1340d849d",
		"to": "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"status": "0x1",
		"gasUsed": "0x5208",
		"cumulativeGasUsed": "0x5208",
		"logs": []
	}`, hash))
}

func newTestSigner(t *testing.T, ft *facadeTransport) *Signer {
	t.Helper()
	key, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	wallet := ethtypes.Address(crypto.PubkeyToAddress(key.PublicKey))
	client := rpcclient.New(ft)
	return New(client, wallet, key)
}

func newTestTx(t *testing.T) *txn.Transaction {
	t.Helper()
	to := ethtypes.MustAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	return txn.New(ethtypes.TxParams{To: &to})
}

// TestConcurrentSendsAssignDistinctAscendingNonces submits three
// transactions concurrently against a wallet starting at nonce 7 and
// asserts the assigned nonce set is exactly {7, 8, 9} with every
// transaction entered into the pending set.
func TestConcurrentSendsAssignDistinctAscendingNonces(t *testing.T) {
	ft := newFacadeTransport(7, 7)
	s := newTestSigner(t, ft)

	txs := []*txn.Transaction{newTestTx(t), newTestTx(t), newTestTx(t)}
	var wg sync.WaitGroup
	errs := make([]error, len(txs))
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, tx *txn.Transaction) {
			defer wg.Done()
			errs[i] = s.SendTransaction(context.Background(), tx)
		}(i, tx)
	}
	wg.Wait()

	nonces := make(map[uint64]bool, 3)
	for i, err := range errs {
		require.NoError(t, err, "send %d", i)
		require.NotNil(t, txs[i].Params.Nonce)
		nonces[*txs[i].Params.Nonce] = true
	}
	assert.Equal(t, map[uint64]bool{7: true, 8: true, 9: true}, nonces)

	s.mu.Lock()
	assert.Len(t, s.pending, 3)
	s.mu.Unlock()
}

// TestWaitForTransactionDetectsDroppedMiddleNonce reproduces the
// concrete scenario where nonces 7 and 9 mine but nonce 8 is dropped:
// once the mined count advances to 10 with no receipt ever appearing
// for nonce 8, its wait must fail with a dropped-transaction error
// while the other two resolve normally.
func TestWaitForTransactionDetectsDroppedMiddleNonce(t *testing.T) {
	ft := newFacadeTransport(7, 10)
	s := newTestSigner(t, ft)

	txs := []*txn.Transaction{newTestTx(t), newTestTx(t), newTestTx(t)}
	for _, tx := range txs {
		require.NoError(t, s.SendTransaction(context.Background(), tx))
	}

	byNonce := make(map[uint64]*txn.Transaction, 3)
	for _, tx := range txs {
		require.NotNil(t, tx.Params.Nonce)
		byNonce[*tx.Params.Nonce] = tx
	}
	require.Len(t, byNonce, 3)

	for _, nonce := range []uint64{7, 9} {
		hash, ok := byNonce[nonce].Hash()
		require.True(t, ok)
		ft.setReceipt(hash.String(), minedReceiptJSON(hash.String()))
	}
	// nonce 8's hash is deliberately never registered: eth_getTransactionReceipt
	// keeps returning null for it, simulating a dropped transaction.

	var wg sync.WaitGroup
	results := make(map[uint64]error, 3)
	receipts := make(map[uint64]*ethtypes.TxReceipt, 3)
	var resultsMu sync.Mutex
	for nonce, tx := range byNonce {
		wg.Add(1)
		go func(nonce uint64, tx *txn.Transaction) {
			defer wg.Done()
			receipt, err := s.WaitForTransaction(context.Background(), tx, time.Second)
			resultsMu.Lock()
			results[nonce] = err
			receipts[nonce] = receipt
			resultsMu.Unlock()
		}(nonce, tx)
	}
	wg.Wait()

	assert.NoError(t, results[7])
	assert.NoError(t, results[9])
	require.NotNil(t, receipts[7])
	require.NotNil(t, receipts[9])
	assert.True(t, receipts[7].Succeeded())
	assert.True(t, receipts[9].Succeeded())

	require.Error(t, results[8])
	assert.Equal(t, txn.Dropped, byNonce[8].State)

	s.mu.Lock()
	assert.Len(t, s.pending, 0, "every waited transaction must be forgotten regardless of outcome")
	s.mu.Unlock()
}

func TestAllocateNextNonceFetchesFreshWhenPendingEmpty(t *testing.T) {
	ft := newFacadeTransport(42, 42)
	s := newTestSigner(t, ft)

	nonce, err := s.allocateNextNonce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), nonce)
}

func TestWithGasLimitAndWithGasPriceOverrides(t *testing.T) {
	tx := newTestTx(t)
	WithGasLimit(21000)(&tx.Params)
	require.NotNil(t, tx.Params.Gas)
	assert.Equal(t, uint64(21000), *tx.Params.Gas)

	price, err := ethtypes.HexBig("0x3b9aca00")
	require.NoError(t, err)
	WithGasPrice(price)(&tx.Params)
	require.NotNil(t, tx.Params.GasPrice)
	assert.Equal(t, "1000000000", tx.Params.GasPrice.String())
}
