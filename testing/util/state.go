package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// FillRootsNaturalOpt is meant to be used as an option when calling NewBeaconState.
// It fills state and block roots with hex representations of natural numbers starting with 0.
// Example: 16 becomes 0x00...0f.
func FillRootsNaturalOpt(state *ethpb.BeaconState) error {
	roots, err := prepareRoots()
	if err != nil {
		return err
	}
	state.StateRoots = roots
	state.BlockRoots = roots
	return nil
}

// FillRootsNaturalOptAltair is meant to be used as an option when calling NewBeaconStateAltair.
// It fills state and block roots with hex representations of natural numbers starting with 0.
// Example: 16 becomes 0x00...0f.
func FillRootsNaturalOptAltair(state *ethpb.BeaconStateAltair) error {
	roots, err := prepareRoots()
	if err != nil {
		return err
	}
	state.StateRoots = roots
	state.BlockRoots = roots
	return nil
}

// RegistryOpt returns an option filling a phase0 state with n active validators of maximum
// effective balance. Public keys are deterministic placeholders, not BLS keys.
func RegistryOpt(n uint64) func(state *ethpb.BeaconState) error {
	return func(state *ethpb.BeaconState) error {
		state.Validators, state.Balances = registry(n)
		return nil
	}
}

// RegistryOptAltair is RegistryOpt for altair states, also sizing the participation and
// inactivity lists. Both sync committees cycle through the registry.
func RegistryOptAltair(n uint64) func(state *ethpb.BeaconStateAltair) error {
	return func(state *ethpb.BeaconStateAltair) error {
		state.Validators, state.Balances = registry(n)
		state.PreviousEpochParticipation = make([]byte, n)
		state.CurrentEpochParticipation = make([]byte, n)
		state.InactivityScores = make([]uint64, n)
		if n == 0 {
			return nil
		}
		pubkeys := make([][]byte, fieldparams.SyncCommitteeLength)
		for i := range pubkeys {
			pubkeys[i] = state.Validators[uint64(i)%n].PublicKey
		}
		state.CurrentSyncCommittee = &ethpb.SyncCommittee{Pubkeys: pubkeys, AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength)}
		state.NextSyncCommittee = &ethpb.SyncCommittee{Pubkeys: pubkeys, AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength)}
		return nil
	}
}

func registry(n uint64) ([]*ethpb.Validator, []uint64) {
	cfg := params.MainnetConfig()
	vals := make([]*ethpb.Validator, n)
	bals := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		vals[i] = &ethpb.Validator{
			PublicKey:                  bytesutil.PadTo(bytesutil.Bytes8(i+1), fieldparams.BLSPubkeyLength),
			WithdrawalCredentials:      make([]byte, 32),
			EffectiveBalance:           cfg.MaxEffectiveBalance,
			ActivationEligibilityEpoch: 0,
			ActivationEpoch:            0,
			ExitEpoch:                  cfg.FarFutureEpoch,
			WithdrawableEpoch:          cfg.FarFutureEpoch,
		}
		bals[i] = cfg.MaxEffectiveBalance
	}
	return vals, bals
}

// NewBeaconState creates a beacon state with minimum marshalable fields.
func NewBeaconState(options ...func(state *ethpb.BeaconState) error) (state.BeaconState, error) {
	seed := &ethpb.BeaconState{
		GenesisTime:           0,
		GenesisValidatorsRoot: make([]byte, 32),
		Slot:                  0,
		Fork: &ethpb.Fork{
			PreviousVersion: make([]byte, 4),
			CurrentVersion:  make([]byte, 4),
		},
		LatestBlockHeader: HydrateBeaconHeader(&ethpb.BeaconBlockHeader{}),
		BlockRoots:        filledByteSlice2D(fieldparams.BlockRootsLength, 32),
		StateRoots:        filledByteSlice2D(fieldparams.StateRootsLength, 32),
		HistoricalRoots:   make([][]byte, 0),
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, fieldparams.RootLength),
			BlockHash:   make([]byte, 32),
		},
		Eth1DataVotes:               make([]*ethpb.Eth1Data, 0),
		Eth1DepositIndex:            0,
		Validators:                  make([]*ethpb.Validator, 0),
		Balances:                    make([]uint64, 0),
		RandaoMixes:                 filledByteSlice2D(fieldparams.RandaoMixesLength, 32),
		Slashings:                   make([]uint64, fieldparams.SlashingsLength),
		PreviousEpochAttestations:   make([]*ethpb.PendingAttestation, 0),
		CurrentEpochAttestations:    make([]*ethpb.PendingAttestation, 0),
		JustificationBits:           bitfield.Bitvector4{0x0},
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		CurrentJustifiedCheckpoint:  &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		FinalizedCheckpoint:         &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
	}

	for _, opt := range options {
		err := opt(seed)
		if err != nil {
			return nil, err
		}
	}

	return state_native.InitializeFromProtoUnsafePhase0(seed)
}

// NewBeaconStateAltair creates a beacon state with minimum marshalable fields.
func NewBeaconStateAltair(options ...func(state *ethpb.BeaconStateAltair) error) (state.BeaconState, error) {
	seed := &ethpb.BeaconStateAltair{
		GenesisTime:           0,
		GenesisValidatorsRoot: make([]byte, 32),
		Slot:                  0,
		Fork: &ethpb.Fork{
			PreviousVersion: make([]byte, 4),
			CurrentVersion:  make([]byte, 4),
		},
		LatestBlockHeader: HydrateBeaconHeader(&ethpb.BeaconBlockHeader{}),
		BlockRoots:        filledByteSlice2D(fieldparams.BlockRootsLength, 32),
		StateRoots:        filledByteSlice2D(fieldparams.StateRootsLength, 32),
		HistoricalRoots:   make([][]byte, 0),
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, fieldparams.RootLength),
			BlockHash:   make([]byte, 32),
		},
		Eth1DataVotes:               make([]*ethpb.Eth1Data, 0),
		Eth1DepositIndex:            0,
		Validators:                  make([]*ethpb.Validator, 0),
		Balances:                    make([]uint64, 0),
		RandaoMixes:                 filledByteSlice2D(fieldparams.RandaoMixesLength, 32),
		Slashings:                   make([]uint64, fieldparams.SlashingsLength),
		PreviousEpochParticipation:  make([]byte, 0),
		CurrentEpochParticipation:   make([]byte, 0),
		JustificationBits:           bitfield.Bitvector4{0x0},
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		CurrentJustifiedCheckpoint:  &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		FinalizedCheckpoint:         &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		InactivityScores:            make([]uint64, 0),
		CurrentSyncCommittee: &ethpb.SyncCommittee{
			Pubkeys:         filledByteSlice2D(fieldparams.SyncCommitteeLength, fieldparams.BLSPubkeyLength),
			AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength),
		},
		NextSyncCommittee: &ethpb.SyncCommittee{
			Pubkeys:         filledByteSlice2D(fieldparams.SyncCommitteeLength, fieldparams.BLSPubkeyLength),
			AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength),
		},
	}

	for _, opt := range options {
		err := opt(seed)
		if err != nil {
			return nil, err
		}
	}

	return state_native.InitializeFromProtoUnsafeAltair(seed)
}

// NewCachedBeaconState wraps st with a fresh epoch context over the mainnet config.
func NewCachedBeaconState(st state.BeaconState) (*cache.CachedBeaconState, error) {
	return cache.CachedStateFromState(params.MainnetConfig(), st)
}

// SSZ will fill 2D byte slices with their respective values, so we must fill these in too for round
// trip testing.
func filledByteSlice2D(length, innerLen uint64) [][]byte {
	b := make([][]byte, length)
	for i := uint64(0); i < length; i++ {
		b[i] = make([]byte, innerLen)
	}
	return b
}

func prepareRoots() ([][]byte, error) {
	roots := make([][]byte, fieldparams.BlockRootsLength)
	for j := 0; j < len(roots); j++ {
		// Remove '0x' prefix and left-pad '0' to have 64 chars in total.
		s := fmt.Sprintf("%064s", hexutil.EncodeUint64(uint64(j))[2:])
		h, err := hexutil.Decode("0x" + s)
		if err != nil {
			return nil, err
		}
		roots[j] = h
	}
	return roots, nil
}
