package util

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
)

// TestConfig returns the mainnet preset with altair scheduled far in the future. Tests tweak
// the returned copy freely.
func TestConfig() *params.BeaconChainConfig {
	cfg := params.MainnetConfig()
	cfg.AltairForkEpoch = cfg.FarFutureEpoch
	return cfg
}

// TestConfigAltair returns the mainnet preset with altair active from genesis.
func TestConfigAltair() *params.BeaconChainConfig {
	cfg := params.MainnetConfig()
	cfg.AltairForkEpoch = 0
	return cfg
}

// DeterministicGenesisState returns a genesis state built from numValidators interop deposits,
// along with the secret keys of its validators in registry order.
func DeterministicGenesisState(t testing.TB, cfg *params.BeaconChainConfig, numValidators uint64) (*cache.CachedBeaconState, []bls.SecretKey) {
	deposits, privKeys, eth1Data, err := interop.DeterministicDeposits(cfg, numValidators)
	if err != nil {
		t.Fatal(err)
	}
	st, err := transition.GenesisBeaconState(context.Background(), cfg, deposits, cfg.MinGenesisTime, eth1Data)
	if err != nil {
		t.Fatal(err)
	}
	return st, privKeys
}

// DeterministicGenesisStateAltair is DeterministicGenesisState with altair active from genesis.
func DeterministicGenesisStateAltair(t testing.TB, numValidators uint64) (*cache.CachedBeaconState, []bls.SecretKey) {
	return DeterministicGenesisState(t, TestConfigAltair(), numValidators)
}
