package blocks

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls/common"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
	"go.opencensus.io/trace"
)

// Signature sets are built against the epoch context of the state at the block's slot.
// Public keys, committees and the fork do not change while a block is applied, so the
// sets are the same whether they are collected before or after the operations run.

// retrieves the domain of domainType at epoch from the state's fork.
func stateDomain(st *cache.CachedBeaconState, epoch primitives.Epoch, domainType [4]byte) ([]byte, error) {
	return signing.Domain(st.Fork(), epoch, domainType, st.GenesisValidatorsRoot())
}

func blockSignatureSet(
	st *cache.CachedBeaconState,
	proposerIndex primitives.ValidatorIndex,
	sig []byte,
	rootFunc func() ([32]byte, error),
) (*bls.SignatureSet, error) {
	pub, err := st.EpochCtx().Pubkey(proposerIndex)
	if err != nil {
		return nil, errors.Wrap(err, "could not get proposer public key")
	}
	domain, err := stateDomain(st, time.CurrentEpoch(st.Config(), st), st.Config().DomainBeaconProposer)
	if err != nil {
		return nil, err
	}
	objRoot, err := rootFunc()
	if err != nil {
		return nil, errors.Wrap(err, "could not compute block root")
	}
	root, err := signing.ComputeSigningRootForRoot(objRoot, domain)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute signing root")
	}
	return bls.NewSingleSet(pub, root, sig, "block signature"), nil
}

// BlockSignatureSet retrieves the block signature set from the provided block and its corresponding state.
func BlockSignatureSet(st *cache.CachedBeaconState, block interfaces.ReadOnlySignedBeaconBlock) (*bls.SignatureSet, error) {
	if err := VerifyNilBeaconBlock(block); err != nil {
		return nil, err
	}
	sig := block.Signature()
	return blockSignatureSet(st, block.Block().ProposerIndex(), sig[:], block.Block().HashTreeRoot)
}

// RandaoSignatureSet retrieves the relevant randao specific signature set object
// from a block and its corresponding state.
func RandaoSignatureSet(ctx context.Context, st *cache.CachedBeaconState, reveal []byte) (*bls.SignatureSet, error) {
	_, span := trace.StartSpan(ctx, "core.RandaoSignatureSet")
	defer span.End()

	proposerIdx, err := st.EpochCtx().BeaconProposer(st.Slot())
	if err != nil {
		return nil, errors.Wrap(err, "could not get beacon proposer index")
	}
	pub, err := st.EpochCtx().Pubkey(proposerIdx)
	if err != nil {
		return nil, errors.Wrap(err, "could not get proposer public key")
	}
	currentEpoch := time.CurrentEpoch(st.Config(), st)
	domain, err := stateDomain(st, currentEpoch, st.Config().DomainRandao)
	if err != nil {
		return nil, err
	}
	// The epoch is signed as an SSZ uint64, whose root is its little endian encoding.
	root, err := signing.ComputeSigningRootForRoot(bytesutil.ToBytes32(bytesutil.Bytes8(uint64(currentEpoch))), domain)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute signing root")
	}
	return bls.NewSingleSet(pub, root, reveal, "randao signature"), nil
}

// ProposerSlashingSignatureSets collects the two header signatures of every proposer slashing.
func ProposerSlashingSignatureSets(st *cache.CachedBeaconState, slashings []*ethpb.ProposerSlashing) ([]*bls.SignatureSet, error) {
	sets := make([]*bls.SignatureSet, 0, 2*len(slashings))
	for _, slashing := range slashings {
		if slashing == nil {
			return nil, errors.New("nil proposer slashing")
		}
		for _, signed := range []*ethpb.SignedBeaconBlockHeader{slashing.Header_1, slashing.Header_2} {
			if signed == nil || signed.Header == nil {
				return nil, errors.New("nil header cannot be verified")
			}
			pub, err := st.EpochCtx().Pubkey(signed.Header.ProposerIndex)
			if err != nil {
				return nil, err
			}
			domain, err := stateDomain(st, slots.ToEpoch(st.Config(), signed.Header.Slot), st.Config().DomainBeaconProposer)
			if err != nil {
				return nil, err
			}
			root, err := signing.ComputeSigningRoot(signed.Header, domain)
			if err != nil {
				return nil, errors.Wrap(err, "could not compute signing root")
			}
			sets = append(sets, bls.NewSingleSet(pub, root, signed.Signature, "proposer slashing signature"))
		}
	}
	return sets, nil
}

// indexedAttestationSignatureSet builds the aggregate set of an indexed attestation, signed by
// every attester over the attestation data under the attester domain of the target epoch.
func indexedAttestationSignatureSet(
	st *cache.CachedBeaconState,
	att *ethpb.IndexedAttestation,
	description string,
) (*bls.SignatureSet, error) {
	if att == nil || att.Data == nil || att.Data.Target == nil {
		return nil, errors.New("nil or missing indexed attestation data")
	}
	if len(att.AttestingIndices) == 0 {
		return nil, errors.New("expected non-empty attesting indices")
	}
	pubs, err := st.EpochCtx().Pubkeys(att.AttestingIndices)
	if err != nil {
		return nil, err
	}
	domain, err := stateDomain(st, att.Data.Target.Epoch, st.Config().DomainBeaconAttester)
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRoot(att.Data, domain)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute signing root")
	}
	return bls.NewAggregateSet(pubs, root, att.Signature, description), nil
}

// AttesterSlashingSignatureSets collects the aggregate signatures of both attestations of
// every attester slashing.
func AttesterSlashingSignatureSets(st *cache.CachedBeaconState, slashings []*ethpb.AttesterSlashing) ([]*bls.SignatureSet, error) {
	sets := make([]*bls.SignatureSet, 0, 2*len(slashings))
	for _, slashing := range slashings {
		if slashing == nil {
			return nil, errors.New("nil attester slashing")
		}
		for _, att := range []*ethpb.IndexedAttestation{slashing.Attestation_1, slashing.Attestation_2} {
			set, err := indexedAttestationSignatureSet(st, att, "attester slashing signature")
			if err != nil {
				return nil, err
			}
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// AttestationSignatureSets retrieves all the related attestation signature data such as the relevant public keys,
// signatures and attestation signing data and collate it into signature set objects, one per attestation.
func AttestationSignatureSets(ctx context.Context, st *cache.CachedBeaconState, atts []*ethpb.Attestation) ([]*bls.SignatureSet, error) {
	_, span := trace.StartSpan(ctx, "core.AttestationSignatureSets")
	defer span.End()

	sets := make([]*bls.SignatureSet, 0, len(atts))
	for i, att := range atts {
		if err := ValidateNilAttestation(att); err != nil {
			return nil, err
		}
		indexed, err := st.EpochCtx().IndexedAttestation(att)
		if err != nil {
			return nil, errors.Wrapf(err, "could not convert attestation %d to indexed form", i)
		}
		set, err := indexedAttestationSignatureSet(st, indexed, "attestation signature")
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// VoluntaryExitSignatureSets collects the signature of every voluntary exit, under the
// exit domain of the epoch the exit names.
func VoluntaryExitSignatureSets(st *cache.CachedBeaconState, exits []*ethpb.SignedVoluntaryExit) ([]*bls.SignatureSet, error) {
	sets := make([]*bls.SignatureSet, 0, len(exits))
	for _, exit := range exits {
		if exit == nil || exit.Exit == nil {
			return nil, errors.New("nil voluntary exit")
		}
		pub, err := st.EpochCtx().Pubkey(exit.Exit.ValidatorIndex)
		if err != nil {
			return nil, err
		}
		domain, err := stateDomain(st, exit.Exit.Epoch, st.Config().DomainVoluntaryExit)
		if err != nil {
			return nil, err
		}
		root, err := signing.ComputeSigningRoot(exit.Exit, domain)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute signing root")
		}
		sets = append(sets, bls.NewSingleSet(pub, root, exit.Signature, "voluntary exit signature"))
	}
	return sets, nil
}

// SyncAggregateSignatureSet builds the set of the sync committee signature over the block root
// of the previous slot. An aggregate without participants must carry the point at infinity and
// yields a nil set, since there is nothing to verify.
func SyncAggregateSignatureSet(st *cache.CachedBeaconState, sync *ethpb.SyncAggregate) (*bls.SignatureSet, error) {
	if sync == nil {
		return nil, errors.New("nil sync aggregate")
	}
	cfg := st.Config()
	committee, err := st.EpochCtx().SyncCommitteeAtEpoch(time.CurrentEpoch(cfg, st))
	if err != nil {
		return nil, err
	}
	if sync.SyncCommitteeBits.Len() != uint64(len(committee.ValidatorIndices)) {
		return nil, errors.Errorf("sync committee bits length %d does not match committee size %d", sync.SyncCommitteeBits.Len(), len(committee.ValidatorIndices))
	}
	participants := make([]uint64, 0, len(committee.ValidatorIndices))
	for i, idx := range committee.ValidatorIndices {
		if sync.SyncCommitteeBits.BitAt(uint64(i)) {
			participants = append(participants, uint64(idx))
		}
	}
	if len(participants) == 0 {
		if !bytes.Equal(sync.SyncCommitteeSignature, common.InfiniteSignature[:]) {
			return nil, errors.Wrap(signing.ErrSigFailedToVerify, "sync aggregate without participants must carry the infinity signature")
		}
		return nil, nil
	}
	pubs, err := st.EpochCtx().Pubkeys(participants)
	if err != nil {
		return nil, err
	}

	previousSlot := st.Slot()
	if previousSlot > 0 {
		previousSlot--
	}
	blockRoot, err := helpers.BlockRootAtSlot(cfg, st, previousSlot)
	if err != nil {
		return nil, errors.Wrap(err, "could not get block root of the previous slot")
	}
	domain, err := stateDomain(st, slots.ToEpoch(cfg, previousSlot), cfg.DomainSyncCommittee)
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRootForRoot(bytesutil.ToBytes32(blockRoot), domain)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute signing root")
	}
	return bls.NewAggregateSet(pubs, root, sync.SyncCommitteeSignature, "sync committee signature"), nil
}
