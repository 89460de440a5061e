package main

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// gweiPerEth is the exponent of the Gwei to ETH conversion.
const gweiPerEth = -9

// benchConfig selects what a bench run does at every slot.
type benchConfig struct {
	Validators uint64
	Epochs     uint64
	EmptySlots bool
	Options    transition.Options
}

// epochReport summarizes one processed epoch.
type epochReport struct {
	Epoch         primitives.Epoch
	Version       int
	Elapsed       time.Duration
	Slots         uint64
	Justified     primitives.Epoch
	Finalized     primitives.Epoch
	TotalBalance  decimal.Decimal
	ActiveBalance decimal.Decimal
	StateRoot     string
	Exiting       int
}

// bench owns the chain advanced by a run. Status can be polled concurrently.
type bench struct {
	cfg   *params.BeaconChainConfig
	conf  benchConfig
	st    *cache.CachedBeaconState
	privs []bls.SecretKey

	lock sync.RWMutex
	err  error
}

// interopGenesis builds the genesis state of n interop validators.
func interopGenesis(ctx context.Context, cfg *params.BeaconChainConfig, n uint64) (*cache.CachedBeaconState, []bls.SecretKey, error) {
	deposits, privs, eth1Data, err := interop.DeterministicDeposits(cfg, n)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate interop deposits")
	}
	st, err := transition.GenesisBeaconState(ctx, cfg, deposits, cfg.MinGenesisTime, eth1Data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not build genesis state")
	}
	return st, privs, nil
}

func newBench(ctx context.Context, cfg *params.BeaconChainConfig, conf benchConfig) (*bench, error) {
	if conf.Validators == 0 {
		return nil, errors.New("at least one validator is required")
	}
	st, privs, err := interopGenesis(ctx, cfg, conf.Validators)
	if err != nil {
		return nil, err
	}
	return &bench{cfg: cfg, conf: conf, st: st, privs: privs}, nil
}

// Status returns the error that stopped the run, if any.
func (b *bench) Status() error {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.err
}

func (b *bench) fail(err error) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.err = err
	return err
}

// run advances the chain by the configured number of epochs, calling report after each one.
func (b *bench) run(ctx context.Context, report func(*epochReport)) error {
	blockConf := &util.BlockGenConfig{NumAttestations: b.cfg.MaxCommitteesPerSlot}
	for e := uint64(0); e < b.conf.Epochs; e++ {
		start := b.st.Slot()
		end := primitives.Slot(uint64(b.st.EpochCtx().Epoch()+1) * uint64(b.cfg.SlotsPerEpoch))
		var elapsed time.Duration
		for slot := start + 1; slot <= end; slot++ {
			if ctx.Err() != nil {
				return b.fail(ctx.Err())
			}
			if b.conf.EmptySlots {
				began := time.Now()
				if err := transition.ProcessSlots(ctx, b.st, slot); err != nil {
					return b.fail(errors.Wrapf(err, "could not process slot %d", slot))
				}
				elapsed += time.Since(began)
				continue
			}
			blk, err := util.GenerateFullBlock(b.st, b.privs, blockConf, slot)
			if err != nil {
				return b.fail(errors.Wrapf(err, "could not generate block at slot %d", slot))
			}
			began := time.Now()
			post, err := transition.ExecuteStateTransition(ctx, b.st, blk, b.conf.Options)
			if err != nil {
				return b.fail(errors.Wrapf(err, "could not apply block at slot %d", slot))
			}
			elapsed += time.Since(began)
			b.st = post
		}
		r, err := b.summarize(ctx, elapsed, uint64(end-start))
		if err != nil {
			return b.fail(err)
		}
		report(r)
	}
	return nil
}

func (b *bench) summarize(ctx context.Context, elapsed time.Duration, slots uint64) (*epochReport, error) {
	root, err := b.st.HashTreeRoot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute state root")
	}
	total := uint64(0)
	for _, bal := range b.st.Balances() {
		total += bal
	}
	exiting := 0
	for _, val := range b.st.Validators() {
		if val.Slashed || val.ExitEpoch != b.cfg.FarFutureEpoch {
			exiting++
		}
	}
	return &epochReport{
		Epoch:         b.st.EpochCtx().Epoch() - 1,
		Version:       b.st.Version(),
		Elapsed:       elapsed,
		Slots:         slots,
		Justified:     b.st.CurrentJustifiedCheckpoint().Epoch,
		Finalized:     b.st.FinalizedCheckpoint().Epoch,
		TotalBalance:  gweiToEth(total),
		ActiveBalance: gweiToEth(b.st.EpochCtx().TotalActiveBalance()),
		StateRoot:     hexutil.Encode(root[:]),
		Exiting:       exiting,
	}, nil
}

func gweiToEth(gwei uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(gwei), gweiPerEth)
}

func logReport(r *epochReport) {
	perSlot := time.Duration(0)
	if r.Slots > 0 {
		perSlot = r.Elapsed / time.Duration(r.Slots)
	}
	log.WithFields(logrus.Fields{
		"epoch":         r.Epoch,
		"version":       version.String(r.Version),
		"elapsed":       r.Elapsed,
		"perSlot":       perSlot,
		"justified":     r.Justified,
		"finalized":     r.Finalized,
		"totalETH":      r.TotalBalance.StringFixed(4),
		"activeETH":     r.ActiveBalance.StringFixed(0),
		"exiting":       r.Exiting,
		"postStateRoot": r.StateRoot,
	}).Info("Processed epoch")
}
