// Package signer implements a wallet-scoped critical section around
// nonce allocation, signing, and submission, plus the
// dropped-transaction detection a bare Transaction cannot do on its own
// because it never sees its siblings. Generalized from EthereumSigner
// (chainadapter/ethereum/signer.go), which signed a single fixed
// payload per call with no notion of a pending set.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/internal/elog"
	"github.com/desktable/aioweb3/rpcclient"
	"github.com/desktable/aioweb3/txn"
)

// Signer serializes nonce allocation and submission for one wallet
// against one client, and tracks the pending set needed to detect a
// dropped transaction without an extra round trip per check.
type Signer struct {
	client *rpcclient.Client
	wallet ethtypes.Address
	key    *ecdsa.PrivateKey

	// sendMu is the single-holder critical section around
	// _send_transaction_lock: nonce allocation, signing, and submission
	// all happen while it is held.
	sendMu sync.Mutex

	// mu guards minedCount and pending, which SendTransaction and any
	// number of concurrent WaitForTransaction calls all touch.
	mu         sync.Mutex
	minedCount uint64
	pending    map[uint64]*txn.Transaction
}

// New returns a Signer for wallet, signing with key over client.
func New(client *rpcclient.Client, wallet ethtypes.Address, key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		client:  client,
		wallet:  wallet,
		key:     key,
		pending: make(map[uint64]*txn.Transaction),
	}
}

// Override mutates a transaction's parameters before nonce allocation,
// for the optional gas_limit/gas_price overrides send_transaction
// accepts.
type Override func(*ethtypes.TxParams)

// WithGasLimit overrides the transaction's gas limit.
func WithGasLimit(gas uint64) Override {
	return func(p *ethtypes.TxParams) { p.Gas = &gas }
}

// WithGasPrice overrides the transaction's legacy gas price.
func WithGasPrice(price *big.Int) Override {
	return func(p *ethtypes.TxParams) { p.GasPrice = price }
}

// SendTransaction applies overrides, then — holding sendMu for the
// entirety of nonce allocation, signing, and submission — allocates
// the next nonce, signs tx, sends it, and records it as pending. Any
// failure inside the critical section leaves the pending set untouched,
// so a retried nonce is allocated cleanly next time.
func (s *Signer) SendTransaction(ctx context.Context, tx *txn.Transaction, overrides ...Override) error {
	for _, o := range overrides {
		o(&tx.Params)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	nonce, err := s.allocateNextNonce(ctx)
	if err != nil {
		return ethrpc.SendError(err, "allocate nonce for %s", s.wallet)
	}
	tx.Params.Nonce = &nonce

	if err := tx.Sign(ctx, s.client, s.wallet, s.key, 0); err != nil {
		return ethrpc.SendError(err, "sign transaction at nonce %d", nonce)
	}
	if err := tx.Send(ctx, s.client); err != nil {
		return ethrpc.SendError(err, "send transaction at nonce %d", nonce)
	}

	s.mu.Lock()
	s.pending[nonce] = tx
	s.mu.Unlock()
	return nil
}

// allocateNextNonce implements _allocate_next_nonce: a fresh RPC-backed
// count when nothing is outstanding, otherwise the larger of the last
// known mined count and one past the highest pending nonce. Must be
// called with sendMu held.
func (s *Signer) allocateNextNonce(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	empty := len(s.pending) == 0
	s.mu.Unlock()

	if empty {
		count, err := s.client.TransactionCount(ctx, s.wallet, ethtypes.Latest())
		if err != nil {
			return 0, err
		}
		s.mu.Lock()
		s.minedCount = count
		s.mu.Unlock()
		return count, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.minedCount
	for nonce := range s.pending {
		if nonce+1 > next {
			next = nonce + 1
		}
	}
	return next, nil
}

func (s *Signer) snapshotMinedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minedCount
}

func (s *Signer) bumpMinedCount(count uint64) {
	s.mu.Lock()
	if count > s.minedCount {
		s.minedCount = count
	}
	s.mu.Unlock()
}

func (s *Signer) forgetPending(nonce uint64) {
	s.mu.Lock()
	delete(s.pending, nonce)
	s.mu.Unlock()
}

// WaitForTransaction polls every rpcclient.WaitForTransactionReceiptInterval
// until tx's receipt appears, its nonce is confirmed dropped, or
// timeout elapses. The pending entry is removed on every exit path.
// Errors refreshing the mined count or checking the receipt are logged
// and the loop continues rather than aborting the wait.
func (s *Signer) WaitForTransaction(ctx context.Context, tx *txn.Transaction, timeout time.Duration) (*ethtypes.TxReceipt, error) {
	hash, ok := tx.Hash()
	if !ok {
		return nil, fmt.Errorf("signer: WaitForTransaction requires a submitted transaction")
	}
	noncePtr := tx.Params.Nonce
	if noncePtr == nil {
		return nil, fmt.Errorf("signer: WaitForTransaction requires a transaction with an assigned nonce")
	}
	nonce := *noncePtr
	defer s.forgetPending(nonce)

	if timeout <= 0 {
		timeout = txn.DefaultWaitTimeout
	}
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(rpcclient.WaitForTransactionReceiptInterval)
	defer ticker.Stop()

	for {
		if count, err := s.client.TransactionCount(ctx, s.wallet, ethtypes.Latest()); err != nil {
			elog.L.Warn().Err(err).Stringer("wallet", s.wallet).Msg("signer: refresh mined transaction count failed, continuing")
		} else {
			s.bumpMinedCount(count)
		}
		noncePassed := nonce < s.snapshotMinedCount()

		if err := tx.CheckReceipt(ctx, s.client); err != nil {
			elog.L.Warn().Err(err).Stringer("hash", hash).Msg("signer: check receipt failed, continuing")
		}

		if receipt, ok := tx.Receipt(); ok {
			s.bumpMinedCount(nonce + 1)
			return receipt, nil
		}

		if noncePassed {
			tx.State = txn.Dropped
			return nil, ethrpc.DroppedTxError("transaction %s (nonce %d): node nonce passed without a receipt", hash, nonce)
		}

		if time.Now().After(deadline) {
			tx.State = txn.TimedOut
			return nil, ethrpc.WaitTimeoutError("transaction %s (nonce %d): wait timeout", hash, nonce)
		}

		select {
		case <-ctx.Done():
			tx.State = txn.TimedOut
			return nil, ethrpc.WaitTimeoutError("transaction %s (nonce %d): %v", hash, nonce, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendInOrderAndWait sends each transaction in slice order — each
// allocating its nonce under sendMu in turn, so submission order and
// nonce order agree — then waits for every receipt concurrently against
// a shared timeout budget. It guarantees nonce order, not mined order.
func (s *Signer) SendInOrderAndWait(ctx context.Context, txs []*txn.Transaction, timeout time.Duration) ([]*ethtypes.TxReceipt, error) {
	for _, tx := range txs {
		if err := s.SendTransaction(ctx, tx); err != nil {
			return nil, err
		}
	}

	if timeout <= 0 {
		timeout = txn.DefaultWaitTimeout
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipts := make([]*ethtypes.TxReceipt, len(txs))
	g, gctx := errgroup.WithContext(deadlineCtx)
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			receipt, err := s.WaitForTransaction(gctx, tx, timeout)
			if err != nil {
				return err
			}
			receipts[i] = receipt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return receipts, err
	}
	return receipts, nil
}

// Wallet returns the address this signer submits transactions for.
func (s *Signer) Wallet() ethtypes.Address {
	return s.wallet
}
