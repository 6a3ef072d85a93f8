// Package txn implements the transaction builder: a mutable parameter
// holder that fills in missing fields against a live node, invokes an
// external ECDSA signer, submits the signed envelope, and polls for its
// receipt — generalized from TransactionBuilder (ethereum/builder.go),
// which performed the same steps against a fixed, already-assembled
// request rather than a caller-mutable TxParams.
package txn

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
	"github.com/desktable/aioweb3/rpcclient"
)

// DefaultGasMultiplier is the factor applied to an estimated gas limit
// when Transaction.Gas is absent. The multiplier is configurable rather
// than a hardcoded constant, defaulting to `gas*2` rather than
// `gas*2+125000`.
const DefaultGasMultiplier = 2.0

// DefaultWaitTimeout bounds Wait's polling loop.
const DefaultWaitTimeout = 120 * time.Second

// Transaction holds a mutable TxParams, the signed envelope once
// produced, the submitted hash once sent, and the receipt once mined.
type Transaction struct {
	Params ethtypes.TxParams
	State  State

	// GasMultiplier scales an estimated (absent) gas limit; GasOverhead
	// adds a flat amount on top. Defaults: 2.0 and 0.
	GasMultiplier float64
	GasOverhead   uint64

	// FeePriceMultiplier scales an estimated (absent) legacy gasPrice.
	FeePriceMultiplier float64

	// PreferEIP1559 opts into the EIP-1559 max-fee/max-priority-fee
	// default-filler instead of the legacy gasPrice default-filler, when
	// neither fee kind is already present on Params.
	PreferEIP1559 bool

	signed    *types.Transaction
	signedRaw []byte
	hash      *ethtypes.Hash
	receipt   *ethtypes.TxReceipt
}

// New wraps params in a fresh, UNSIGNED Transaction with default
// multipliers.
func New(params ethtypes.TxParams) *Transaction {
	return &Transaction{
		Params:             params,
		State:              Unsigned,
		GasMultiplier:      DefaultGasMultiplier,
		FeePriceMultiplier: 1.0,
	}
}

// Hash returns the submitted transaction hash, if any.
func (t *Transaction) Hash() (ethtypes.Hash, bool) {
	if t.hash == nil {
		return ethtypes.Hash{}, false
	}
	return *t.hash, true
}

// Receipt returns the last receipt observed by Wait/CheckReceipt, if
// any.
func (t *Transaction) Receipt() (*ethtypes.TxReceipt, bool) {
	return t.receipt, t.receipt != nil
}

// Sign fills every absent field of Params against client, then invokes
// the external ECDSA signer key over the populated envelope.
// nonceOffset is added to a fetched nonce; it is ignored when
// Params.Nonce is already set. From is filled synchronously first; the
// four RPC-backed default-fillers (chainId, gas, fee, nonce) then run
// concurrently — they write to disjoint fields of Params by
// construction, so no additional synchronization is needed.
func (t *Transaction) Sign(ctx context.Context, client *rpcclient.Client, wallet ethtypes.Address, key *ecdsa.PrivateKey, nonceOffset uint64) error {
	if t.State != Unsigned {
		return fmt.Errorf("txn: Sign called on transaction in state %s, want %s", t.State, Unsigned)
	}

	// from has no RPC dependency; fill it synchronously before spawning
	// the concurrent fillers below so EstimateGas's snapshot (taken
	// next) never races the From field.
	if t.Params.From == nil {
		t.Params.From = &wallet
	}

	// EstimateGas only reads From/To/Value/Data, none of which any
	// other filler mutates — but t.Params itself is passed by value
	// elsewhere in this method, so a concurrently running filler
	// writing e.g. Nonce while this goroutine copies the whole struct
	// would still race on the shared memory. An isolated snapshot of
	// only the fields EstimateGas needs avoids that race.
	estimateParams := ethtypes.TxParams{
		From:  t.Params.From,
		To:    t.Params.To,
		Value: t.Params.Value,
		Data:  t.Params.Data,
	}

	g, gctx := errgroup.WithContext(ctx)

	if t.Params.ChainID == nil {
		g.Go(func() error {
			id, err := client.ChainID(gctx)
			if err != nil {
				return err
			}
			t.Params.ChainID = id
			return nil
		})
	}

	if t.Params.Gas == nil {
		g.Go(func() error {
			estimate, err := client.EstimateGas(gctx, estimateParams)
			if err != nil {
				return err
			}
			multiplier := t.GasMultiplier
			if multiplier <= 0 {
				multiplier = DefaultGasMultiplier
			}
			gas := uint64(math.Ceil(float64(estimate)*multiplier)) + t.GasOverhead
			t.Params.Gas = &gas
			return nil
		})
	}

	if t.Params.GasPrice == nil && !t.Params.IsEIP1559() {
		g.Go(func() error {
			return t.fillFeeFields(gctx, client)
		})
	}

	if t.Params.Nonce == nil {
		g.Go(func() error {
			count, err := client.TransactionCount(gctx, wallet, ethtypes.BlockTag(ethtypes.BlockPending))
			if err != nil {
				return err
			}
			nonce := count + nonceOffset
			t.Params.Nonce = &nonce
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ethrpc.SendError(err, "fill transaction defaults")
	}

	gethTx, err := buildGethTransaction(t.Params)
	if err != nil {
		return ethrpc.SendError(err, "build transaction envelope")
	}

	signer := signerFor(t.Params.ChainID)
	signed, err := types.SignTx(gethTx, signer, key)
	if err != nil {
		return ethrpc.SendError(err, "sign transaction")
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return ethrpc.SendError(err, "encode signed transaction")
	}

	t.signed = signed
	t.signedRaw = raw
	t.State = Signed
	return nil
}

// fillFeeFields fills either the legacy gasPrice field or the EIP-1559
// fee pair, depending on PreferEIP1559.
func (t *Transaction) fillFeeFields(ctx context.Context, client *rpcclient.Client) error {
	multiplier := t.FeePriceMultiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}

	if !t.PreferEIP1559 {
		gasPrice, err := client.GasPrice(ctx)
		if err != nil {
			return err
		}
		t.Params.GasPrice = ceilMul(gasPrice, multiplier)
		return nil
	}

	baseFee, err := client.BaseFee(ctx)
	if err != nil {
		return err
	}
	priorityFee, err := client.SuggestedPriorityFee(ctx)
	if err != nil {
		return err
	}
	priorityFee = ceilMul(priorityFee, multiplier)
	maxFee := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), priorityFee)

	t.Params.MaxPriorityFeePerGas = priorityFee
	t.Params.MaxFeePerGas = maxFee
	return nil
}

func ceilMul(v *big.Int, multiplier float64) *big.Int {
	f := new(big.Float).SetInt(v)
	f.Mul(f, big.NewFloat(multiplier))
	result, acc := f.Int(nil)
	if acc == big.Below {
		result.Add(result, big.NewInt(1))
	}
	return result
}

func signerFor(chainID *big.Int) types.Signer {
	return types.NewLondonSigner(chainID)
}

// buildGethTransaction assembles a go-ethereum types.Transaction from a
// fully populated TxParams: a DynamicFeeTx when EIP-1559 fee fields are
// set, a LegacyTx otherwise.
func buildGethTransaction(p ethtypes.TxParams) (*types.Transaction, error) {
	if p.Nonce == nil || p.Gas == nil || p.ChainID == nil {
		return nil, fmt.Errorf("txn: nonce, gas, and chainId must be set before building")
	}
	value := p.Value
	if value == nil {
		value = big.NewInt(0)
	}

	var toAddr *common.Address
	if p.To != nil {
		a := common.BytesToAddress(p.To.Bytes())
		toAddr = &a
	}

	if p.IsEIP1559() {
		maxFee := p.MaxFeePerGas
		priority := p.MaxPriorityFeePerGas
		if maxFee == nil {
			maxFee = priority
		}
		if priority == nil {
			priority = maxFee
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   p.ChainID,
			Nonce:     *p.Nonce,
			GasFeeCap: maxFee,
			GasTipCap: priority,
			Gas:       *p.Gas,
			To:        toAddr,
			Value:     value,
			Data:      p.Data,
		}), nil
	}

	gasPrice := p.GasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    *p.Nonce,
		GasPrice: gasPrice,
		Gas:      *p.Gas,
		To:       toAddr,
		Value:    value,
		Data:     p.Data,
	}), nil
}

// Send submits the signed envelope via eth_sendRawTransaction and
// records the returned hash.
func (t *Transaction) Send(ctx context.Context, client *rpcclient.Client) error {
	if t.State != Signed {
		return fmt.Errorf("txn: Send called on transaction in state %s, want %s", t.State, Signed)
	}
	hash, err := client.SendRawTransaction(ctx, t.signedRaw)
	if err != nil {
		return ethrpc.SendError(err, "send raw transaction")
	}
	t.hash = &hash
	t.State = Submitted
	return nil
}

// CheckReceipt polls eth_getTransactionReceipt once and records the
// result if present, without blocking for it to appear.
func (t *Transaction) CheckReceipt(ctx context.Context, client *rpcclient.Client) error {
	if t.hash == nil {
		return fmt.Errorf("txn: CheckReceipt called before Send")
	}
	receipt, err := client.TransactionReceipt(ctx, *t.hash)
	if err != nil {
		return err
	}
	if receipt != nil {
		t.receipt = receipt
		t.State = Mined
	}
	return nil
}

// Wait polls eth_getTransactionReceipt every
// rpcclient.WaitForTransactionReceiptInterval until a receipt appears
// or timeout elapses.
func (t *Transaction) Wait(ctx context.Context, client *rpcclient.Client, timeout time.Duration) (*ethtypes.TxReceipt, error) {
	if t.hash == nil {
		return nil, fmt.Errorf("txn: Wait called before Send")
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := client.WaitForTransactionReceipt(deadlineCtx, *t.hash)
	if err != nil {
		t.State = TimedOut
		return nil, ethrpc.WaitTimeoutError("wait for receipt of %s: %v", *t.hash, err)
	}
	t.receipt = receipt
	t.State = Mined
	return receipt, nil
}
