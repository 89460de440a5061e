package transition

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/altair"
	b "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// GenesisBeaconState gets called when MinGenesisActiveValidatorCount count of
// full deposits were made to the deposit contract and the ChainStart log gets emitted.
// Every deposit proof is checked against eth1Data.DepositRoot, the root of the full deposit
// trie. When ALTAIR_FORK_EPOCH is 0 the state is upgraded to altair before it is returned.
//
// Spec pseudocode definition:
//
//	def initialize_beacon_state_from_eth1(eth1_block_hash: Bytes32,
//	                                    eth1_timestamp: uint64,
//	                                    deposits: Sequence[Deposit]) -> BeaconState:
//	  fork = Fork(
//	      previous_version=GENESIS_FORK_VERSION,
//	      current_version=GENESIS_FORK_VERSION,
//	      epoch=GENESIS_EPOCH,
//	  )
//	  state = BeaconState(
//	      genesis_time=eth1_timestamp + GENESIS_DELAY,
//	      fork=fork,
//	      eth1_data=Eth1Data(block_hash=eth1_block_hash, deposit_count=uint64(len(deposits))),
//	      latest_block_header=BeaconBlockHeader(body_root=hash_tree_root(BeaconBlockBody())),
//	      randao_mixes=[eth1_block_hash] * EPOCHS_PER_HISTORICAL_VECTOR,  # Seed RANDAO with Eth1 entropy
//	  )
//
//	  # Process deposits
//	  leaves = list(map(lambda deposit: deposit.data, deposits))
//	  for index, deposit in enumerate(deposits):
//	      deposit_data_list = List[DepositData, 2**DEPOSIT_CONTRACT_TREE_DEPTH](*leaves[:index + 1])
//	      state.eth1_data.deposit_root = hash_tree_root(deposit_data_list)
//	      process_deposit(state, deposit)
//
//	  # Process activations
//	  for index, validator in enumerate(state.validators):
//	      balance = state.balances[index]
//	      validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//	      if validator.effective_balance == MAX_EFFECTIVE_BALANCE:
//	          validator.activation_eligibility_epoch = GENESIS_EPOCH
//	          validator.activation_epoch = GENESIS_EPOCH
//
//	  # Set genesis validators root for domain separation and chain versioning
//	  state.genesis_validators_root = hash_tree_root(state.validators)
//
//	  return state
func GenesisBeaconState(
	ctx context.Context,
	cfg *params.BeaconChainConfig,
	deposits []*ethpb.Deposit,
	genesisTime uint64,
	eth1Data *ethpb.Eth1Data,
	opts ...cache.Option,
) (*cache.CachedBeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.GenesisBeaconState")
	defer span.End()

	if eth1Data == nil {
		return nil, errors.New("no eth1data provided for genesis state")
	}
	preState, err := EmptyGenesisState(cfg, genesisTime, eth1Data)
	if err != nil {
		return nil, err
	}
	st, err := cache.CachedStateFromState(cfg, preState, opts...)
	if err != nil {
		return nil, err
	}

	// Process initial deposits.
	for i, deposit := range deposits {
		if deposit == nil || deposit.Data == nil {
			return nil, errors.Errorf("nil deposit at index %d", i)
		}
		if _, err := b.ProcessDeposit(ctx, st, deposit, true /* verifyProof */); err != nil {
			return nil, errors.Wrapf(err, "could not process genesis deposit %d", i)
		}
	}

	// Process activations.
	balances := st.Balances()
	if err := st.ApplyToEveryValidator(func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error) {
		balance := balances[idx]
		val.EffectiveBalance = mathutil.Min(balance-balance%cfg.EffectiveBalanceIncrement, cfg.MaxEffectiveBalance)
		if val.EffectiveBalance == cfg.MaxEffectiveBalance {
			val.ActivationEligibilityEpoch = 0
			val.ActivationEpoch = 0
		}
		return true, val, nil
	}); err != nil {
		return nil, errors.Wrap(err, "could not activate genesis validators")
	}

	genesisValidatorsRoot, err := stateutil.ValidatorRegistryRoot(st.Validators())
	if err != nil {
		return nil, errors.Wrap(err, "could not hash tree root genesis validators")
	}
	if err := st.SetGenesisValidatorsRoot(genesisValidatorsRoot[:]); err != nil {
		return nil, err
	}

	// The context was built before any validator existed, rebuild it on the final registry
	// while keeping the pubkeys learnt from the deposits.
	opts = append([]cache.Option{cache.WithPubkeyCache(st.EpochCtx().PubkeyCache())}, opts...)
	genesis, err := cache.CachedStateFromState(cfg, st.BeaconState, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.AltairForkEpoch == 0 {
		if err := altair.UpgradeToAltair(ctx, genesis); err != nil {
			return nil, errors.Wrap(err, "could not upgrade genesis state to altair")
		}
	}
	log.WithFields(logrus.Fields{
		"validators":     genesis.NumValidators(),
		"genesisTime":    genesisTime,
		"validatorsRoot": fmt.Sprintf("%#x", bytesutil.Trunc(genesisValidatorsRoot[:])),
	}).Debug("Built genesis state")
	return genesis, nil
}

// EmptyGenesisState returns a phase0 genesis state without validators, committing to the
// deposits of eth1Data.
func EmptyGenesisState(cfg *params.BeaconChainConfig, genesisTime uint64, eth1Data *ethpb.Eth1Data) (state.BeaconState, error) {
	if eth1Data == nil {
		return nil, errors.New("no eth1data provided for genesis state")
	}
	zeroHash := cfg.ZeroHash[:]
	randaoMixes := make([][]byte, fieldparams.RandaoMixesLength)
	for i := range randaoMixes {
		randaoMixes[i] = bytesutil.PadTo(bytesutil.SafeCopyBytes(eth1Data.BlockHash), fieldparams.RootLength)
	}
	bodyRoot, err := b.NewGenesisBlock(zeroHash).Block.Body.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not hash tree root empty block body")
	}
	st, err := state_native.InitializeFromProtoUnsafePhase0(&ethpb.BeaconState{
		GenesisTime: genesisTime,
		Slot:        0,
		Fork: &ethpb.Fork{
			PreviousVersion: bytesutil.SafeCopyBytes(cfg.GenesisForkVersion),
			CurrentVersion:  bytesutil.SafeCopyBytes(cfg.GenesisForkVersion),
			Epoch:           0,
		},
		LatestBlockHeader: &ethpb.BeaconBlockHeader{
			ParentRoot: bytesutil.SafeCopyBytes(zeroHash),
			StateRoot:  bytesutil.SafeCopyBytes(zeroHash),
			BodyRoot:   bodyRoot[:],
		},
		HistoricalRoots: [][]byte{},
		Eth1Data:        eth1Data.Copy(),
		Eth1DataVotes:   []*ethpb.Eth1Data{},
		Validators:      []*ethpb.Validator{},
		Balances:        []uint64{},
		RandaoMixes:     randaoMixes,
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{
			Root: bytesutil.SafeCopyBytes(zeroHash),
		},
		CurrentJustifiedCheckpoint: &ethpb.Checkpoint{
			Root: bytesutil.SafeCopyBytes(zeroHash),
		},
		FinalizedCheckpoint: &ethpb.Checkpoint{
			Root: bytesutil.SafeCopyBytes(zeroHash),
		},
		PreviousEpochAttestations: []*ethpb.PendingAttestation{},
		CurrentEpochAttestations:  []*ethpb.PendingAttestation{},
		GenesisValidatorsRoot:     bytesutil.SafeCopyBytes(zeroHash),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize genesis state")
	}
	return st, nil
}
