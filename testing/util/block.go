package util

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/blocks"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
)

// BlockGenConfig is used to define the requested conditions
// for block generation.
type BlockGenConfig struct {
	NumProposerSlashings uint64
	NumAttesterSlashings uint64
	// NumAttestations is the number of committees of the previous slot that attest.
	NumAttestations   uint64
	NumVoluntaryExits uint64
	// SkipSyncAggregate leaves the sync aggregate of altair blocks empty.
	SkipSyncAggregate bool
}

// DefaultBlockGenConfig returns a config producing blocks with a single attestation.
func DefaultBlockGenConfig() *BlockGenConfig {
	return &BlockGenConfig{
		NumAttestations: 1,
	}
}

// NewBeaconBlock creates a beacon block with minimum marshalable fields.
func NewBeaconBlock() *ethpb.SignedBeaconBlock {
	return HydrateSignedBeaconBlock(&ethpb.SignedBeaconBlock{})
}

// NewBeaconBlockAltair creates a beacon block with minimum marshalable fields.
func NewBeaconBlockAltair() *ethpb.SignedBeaconBlockAltair {
	return HydrateSignedBeaconBlockAltair(&ethpb.SignedBeaconBlockAltair{})
}

// GenerateFullBlock generates a fully valid block with the requested parameters.
// Use BlockGenConfig to declare the conditions you would like the block generated under.
// The block is of the fork active at slot, signed by its proposer and committing to the
// post-state root. Slashed and exiting validators are taken from the end of the registry.
func GenerateFullBlock(
	st *cache.CachedBeaconState,
	privs []bls.SecretKey,
	conf *BlockGenConfig,
	slot primitives.Slot,
) (interfaces.SignedBeaconBlock, error) {
	ctx := context.Background()
	currentSlot := st.Slot()
	if currentSlot > slot {
		return nil, fmt.Errorf("current slot in state is larger than given slot. %d > %d", currentSlot, slot)
	}
	if slot == currentSlot {
		slot = currentSlot + 1
	}
	if conf == nil {
		conf = &BlockGenConfig{}
	}

	// Operations are built against the state at the block's slot.
	pre := st.Clone()
	if err := transition.ProcessSlots(ctx, pre, slot); err != nil {
		return nil, errors.Wrap(err, "could not advance state to block slot")
	}
	proposerIdx, err := pre.EpochCtx().BeaconProposer(slot)
	if err != nil {
		return nil, err
	}
	picker := newValidatorPicker(pre, proposerIdx)

	pSlashings := make([]*ethpb.ProposerSlashing, 0, conf.NumProposerSlashings)
	for i := uint64(0); i < conf.NumProposerSlashings; i++ {
		idx, err := picker.next()
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d proposer slashings", conf.NumProposerSlashings)
		}
		slashing, err := GenerateProposerSlashingForValidator(pre, privs[idx], idx)
		if err != nil {
			return nil, err
		}
		pSlashings = append(pSlashings, slashing)
	}

	aSlashings := make([]*ethpb.AttesterSlashing, 0, conf.NumAttesterSlashings)
	for i := uint64(0); i < conf.NumAttesterSlashings; i++ {
		idx, err := picker.next()
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d attester slashings", conf.NumAttesterSlashings)
		}
		slashing, err := GenerateAttesterSlashingForValidator(pre, privs[idx], idx)
		if err != nil {
			return nil, err
		}
		aSlashings = append(aSlashings, slashing)
	}

	var atts []*ethpb.Attestation
	if conf.NumAttestations > 0 {
		atts, err = GenerateAttestations(pre, privs, slot-1, conf.NumAttestations)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d attestations", conf.NumAttestations)
		}
	}

	exits := make([]*ethpb.SignedVoluntaryExit, 0, conf.NumVoluntaryExits)
	for i := uint64(0); i < conf.NumVoluntaryExits; i++ {
		idx, err := picker.next()
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d voluntary exits", conf.NumVoluntaryExits)
		}
		exit, err := GenerateVoluntaryExit(pre, privs[idx], idx)
		if err != nil {
			return nil, err
		}
		exits = append(exits, exit)
	}

	reveal, err := RandaoReveal(pre, time.CurrentEpoch(pre.Config(), pre), privs)
	if err != nil {
		return nil, err
	}
	header := pre.LatestBlockHeader()
	parentRoot, err := header.HashTreeRoot()
	if err != nil {
		return nil, err
	}

	var pb interface{}
	switch pre.Version() {
	case version.Phase0:
		pb = &ethpb.SignedBeaconBlock{
			Block: &ethpb.BeaconBlock{
				Slot:          slot,
				ProposerIndex: proposerIdx,
				ParentRoot:    parentRoot[:],
				StateRoot:     make([]byte, fieldparams.RootLength),
				Body: &ethpb.BeaconBlockBody{
					RandaoReveal:      reveal,
					Eth1Data:          pre.Eth1Data(),
					Graffiti:          make([]byte, fieldparams.RootLength),
					ProposerSlashings: pSlashings,
					AttesterSlashings: aSlashings,
					Attestations:      atts,
					Deposits:          []*ethpb.Deposit{},
					VoluntaryExits:    exits,
				},
			},
			Signature: make([]byte, fieldparams.BLSSignatureLength),
		}
	case version.Altair:
		syncAgg := EmptySyncAggregate()
		if !conf.SkipSyncAggregate {
			syncAgg, err = GenerateSyncAggregate(pre, privs)
			if err != nil {
				return nil, errors.Wrap(err, "failed generating sync aggregate")
			}
		}
		pb = &ethpb.SignedBeaconBlockAltair{
			Block: &ethpb.BeaconBlockAltair{
				Slot:          slot,
				ProposerIndex: proposerIdx,
				ParentRoot:    parentRoot[:],
				StateRoot:     make([]byte, fieldparams.RootLength),
				Body: &ethpb.BeaconBlockBodyAltair{
					RandaoReveal:      reveal,
					Eth1Data:          pre.Eth1Data(),
					Graffiti:          make([]byte, fieldparams.RootLength),
					ProposerSlashings: pSlashings,
					AttesterSlashings: aSlashings,
					Attestations:      atts,
					Deposits:          []*ethpb.Deposit{},
					VoluntaryExits:    exits,
					SyncAggregate:     syncAgg,
				},
			},
			Signature: make([]byte, fieldparams.BLSSignatureLength),
		}
	default:
		return nil, errors.Errorf("unsupported state version %s", version.String(pre.Version()))
	}
	blk, err := blocks.NewSignedBeaconBlock(pb)
	if err != nil {
		return nil, err
	}
	if err := SignBlock(st, blk, privs); err != nil {
		return nil, err
	}
	return blk, nil
}

// SignBlock fills in the post-state root of blk applied on st, then signs it with the key of
// its proposer.
func SignBlock(st *cache.CachedBeaconState, blk interfaces.SignedBeaconBlock, privs []bls.SecretKey) error {
	ctx := context.Background()
	root, err := transition.CalculateStateRoot(ctx, st, blk)
	if err != nil {
		return errors.Wrap(err, "could not calculate state root")
	}
	blk.SetStateRoot(root[:])
	pre := st.Clone()
	if err := transition.ProcessSlotsIfPossible(ctx, pre, blk.Block().Slot()); err != nil {
		return err
	}
	sig, err := BlockSignature(pre, blk.Block(), privs)
	if err != nil {
		return err
	}
	blk.SetSignature(sig.Marshal())
	return nil
}

// BlockSignature returns the proposer signature of block. st must be at the block's slot, so
// that its fork gives the proposer domain.
func BlockSignature(st *cache.CachedBeaconState, block interfaces.ReadOnlyBeaconBlock, privKeys []bls.SecretKey) (bls.Signature, error) {
	idx := block.ProposerIndex()
	if uint64(idx) >= uint64(len(privKeys)) {
		return nil, errors.Errorf("no secret key for proposer %d", idx)
	}
	cfg := st.Config()
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(cfg, block.Slot()), cfg.DomainBeaconProposer, st.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRoot(block, domain)
	if err != nil {
		return nil, err
	}
	return privKeys[idx].Sign(root[:]), nil
}

// RandaoReveal returns the signature of the proposer of st's slot over epoch.
func RandaoReveal(st *cache.CachedBeaconState, epoch primitives.Epoch, privKeys []bls.SecretKey) ([]byte, error) {
	idx, err := st.EpochCtx().BeaconProposer(st.Slot())
	if err != nil {
		return nil, errors.Wrap(err, "could not get beacon proposer index")
	}
	if uint64(idx) >= uint64(len(privKeys)) {
		return nil, errors.Errorf("no secret key for proposer %d", idx)
	}
	domain, err := signing.Domain(st.Fork(), epoch, st.Config().DomainRandao, st.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	// An SSZ uint64 hashes to its little endian encoding.
	root, err := signing.ComputeSigningRootForRoot(bytesutil.ToBytes32(bytesutil.Bytes8(uint64(epoch))), domain)
	if err != nil {
		return nil, err
	}
	return privKeys[idx].Sign(root[:]).Marshal(), nil
}

// GenerateProposerSlashingForValidator for a specific validator index.
func GenerateProposerSlashingForValidator(
	st *cache.CachedBeaconState,
	priv bls.SecretKey,
	idx primitives.ValidatorIndex,
) (*ethpb.ProposerSlashing, error) {
	currentEpoch := time.CurrentEpoch(st.Config(), st)
	headers := make([]*ethpb.SignedBeaconBlockHeader, 2)
	for i := range headers {
		headers[i] = HydrateSignedBeaconHeader(&ethpb.SignedBeaconBlockHeader{
			Header: &ethpb.BeaconBlockHeader{
				ProposerIndex: idx,
				Slot:          st.Slot(),
				BodyRoot:      bytesutil.PadTo([]byte{0, byte(i + 1), 0}, fieldparams.RootLength),
			},
		})
		sig, err := signing.ComputeDomainAndSign(st, currentEpoch, headers[i].Header, st.Config().DomainBeaconProposer, priv)
		if err != nil {
			return nil, err
		}
		headers[i].Signature = sig
	}
	return &ethpb.ProposerSlashing{
		Header_1: headers[0],
		Header_2: headers[1],
	}, nil
}

// GenerateAttesterSlashingForValidator returns a double vote of a specific validator index.
func GenerateAttesterSlashingForValidator(
	st *cache.CachedBeaconState,
	priv bls.SecretKey,
	idx primitives.ValidatorIndex,
) (*ethpb.AttesterSlashing, error) {
	currentEpoch := time.CurrentEpoch(st.Config(), st)
	atts := make([]*ethpb.IndexedAttestation, 2)
	for i := range atts {
		atts[i] = HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			Data: &ethpb.AttestationData{
				Slot:            st.Slot(),
				BeaconBlockRoot: bytesutil.PadTo([]byte{byte(i + 1)}, fieldparams.RootLength),
				Target:          &ethpb.Checkpoint{Epoch: currentEpoch},
				Source:          &ethpb.Checkpoint{Epoch: 0},
			},
			AttestingIndices: []uint64{uint64(idx)},
		})
		sig, err := signing.ComputeDomainAndSign(st, currentEpoch, atts[i].Data, st.Config().DomainBeaconAttester, priv)
		if err != nil {
			return nil, err
		}
		atts[i].Signature = sig
	}
	return &ethpb.AttesterSlashing{
		Attestation_1: atts[0],
		Attestation_2: atts[1],
	}, nil
}

// GenerateVoluntaryExit returns a signed exit of a specific validator index, valid from the
// current epoch of st.
func GenerateVoluntaryExit(
	st *cache.CachedBeaconState,
	priv bls.SecretKey,
	idx primitives.ValidatorIndex,
) (*ethpb.SignedVoluntaryExit, error) {
	currentEpoch := time.CurrentEpoch(st.Config(), st)
	exit := &ethpb.SignedVoluntaryExit{
		Exit: &ethpb.VoluntaryExit{
			Epoch:          currentEpoch,
			ValidatorIndex: idx,
		},
	}
	sig, err := signing.ComputeDomainAndSign(st, currentEpoch, exit.Exit, st.Config().DomainVoluntaryExit, priv)
	if err != nil {
		return nil, err
	}
	exit.Signature = sig
	return exit, nil
}

// validatorPicker hands out distinct validators for operations, from the end of the registry,
// skipping the proposer and any validator already slashed or exiting.
type validatorPicker struct {
	st       *cache.CachedBeaconState
	proposer primitives.ValidatorIndex
	cursor   int
}

func newValidatorPicker(st *cache.CachedBeaconState, proposer primitives.ValidatorIndex) *validatorPicker {
	return &validatorPicker{st: st, proposer: proposer, cursor: st.NumValidators()}
}

func (p *validatorPicker) next() (primitives.ValidatorIndex, error) {
	far := p.st.Config().FarFutureEpoch
	for p.cursor > 0 {
		p.cursor--
		idx := primitives.ValidatorIndex(p.cursor)
		if idx == p.proposer {
			continue
		}
		val, err := p.st.ValidatorAtIndexReadOnly(idx)
		if err != nil {
			return 0, err
		}
		if val.Slashed() || val.ExitEpoch() != far {
			continue
		}
		return idx, nil
	}
	return 0, errors.New("ran out of eligible validators")
}

// HydrateSignedBeaconHeader hydrates a signed beacon block header with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateSignedBeaconHeader(h *ethpb.SignedBeaconBlockHeader) *ethpb.SignedBeaconBlockHeader {
	if h.Signature == nil {
		h.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	h.Header = HydrateBeaconHeader(h.Header)
	return h
}

// HydrateBeaconHeader hydrates a beacon block header with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateBeaconHeader(h *ethpb.BeaconBlockHeader) *ethpb.BeaconBlockHeader {
	if h == nil {
		h = &ethpb.BeaconBlockHeader{}
	}
	if h.BodyRoot == nil {
		h.BodyRoot = make([]byte, fieldparams.RootLength)
	}
	if h.StateRoot == nil {
		h.StateRoot = make([]byte, fieldparams.RootLength)
	}
	if h.ParentRoot == nil {
		h.ParentRoot = make([]byte, fieldparams.RootLength)
	}
	return h
}

// HydrateSignedBeaconBlock hydrates a signed beacon block with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateSignedBeaconBlock(b *ethpb.SignedBeaconBlock) *ethpb.SignedBeaconBlock {
	if b.Signature == nil {
		b.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	b.Block = HydrateBeaconBlock(b.Block)
	return b
}

// HydrateBeaconBlock hydrates a beacon block with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateBeaconBlock(b *ethpb.BeaconBlock) *ethpb.BeaconBlock {
	if b == nil {
		b = &ethpb.BeaconBlock{}
	}
	if b.ParentRoot == nil {
		b.ParentRoot = make([]byte, fieldparams.RootLength)
	}
	if b.StateRoot == nil {
		b.StateRoot = make([]byte, fieldparams.RootLength)
	}
	b.Body = HydrateBeaconBlockBody(b.Body)
	return b
}

// HydrateBeaconBlockBody hydrates a beacon block body with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateBeaconBlockBody(b *ethpb.BeaconBlockBody) *ethpb.BeaconBlockBody {
	if b == nil {
		b = &ethpb.BeaconBlockBody{}
	}
	if b.RandaoReveal == nil {
		b.RandaoReveal = make([]byte, fieldparams.BLSSignatureLength)
	}
	if b.Graffiti == nil {
		b.Graffiti = make([]byte, fieldparams.RootLength)
	}
	if b.Eth1Data == nil {
		b.Eth1Data = &ethpb.Eth1Data{
			DepositRoot: make([]byte, fieldparams.RootLength),
			BlockHash:   make([]byte, fieldparams.RootLength),
		}
	}
	return b
}

// HydrateSignedBeaconBlockAltair hydrates a signed beacon block with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateSignedBeaconBlockAltair(b *ethpb.SignedBeaconBlockAltair) *ethpb.SignedBeaconBlockAltair {
	if b.Signature == nil {
		b.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	b.Block = HydrateBeaconBlockAltair(b.Block)
	return b
}

// HydrateBeaconBlockAltair hydrates a beacon block with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateBeaconBlockAltair(b *ethpb.BeaconBlockAltair) *ethpb.BeaconBlockAltair {
	if b == nil {
		b = &ethpb.BeaconBlockAltair{}
	}
	if b.ParentRoot == nil {
		b.ParentRoot = make([]byte, fieldparams.RootLength)
	}
	if b.StateRoot == nil {
		b.StateRoot = make([]byte, fieldparams.RootLength)
	}
	b.Body = HydrateBeaconBlockBodyAltair(b.Body)
	return b
}

// HydrateBeaconBlockBodyAltair hydrates a beacon block body with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateBeaconBlockBodyAltair(b *ethpb.BeaconBlockBodyAltair) *ethpb.BeaconBlockBodyAltair {
	if b == nil {
		b = &ethpb.BeaconBlockBodyAltair{}
	}
	if b.RandaoReveal == nil {
		b.RandaoReveal = make([]byte, fieldparams.BLSSignatureLength)
	}
	if b.Graffiti == nil {
		b.Graffiti = make([]byte, fieldparams.RootLength)
	}
	if b.Eth1Data == nil {
		b.Eth1Data = &ethpb.Eth1Data{
			DepositRoot: make([]byte, fieldparams.RootLength),
			BlockHash:   make([]byte, fieldparams.RootLength),
		}
	}
	if b.SyncAggregate == nil {
		b.SyncAggregate = EmptySyncAggregate()
	}
	return b
}
