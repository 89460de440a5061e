package util

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls/common"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
	"github.com/prysmaticlabs/go-bitfield"
)

// ConvertToCommittee takes a list of pubkeys and returns a SyncCommittee with
// these keys as members. Some keys may appear repeated
func ConvertToCommittee(inputKeys [][]byte) *ethpb.SyncCommittee {
	pubKeys := make([][]byte, 0, fieldparams.SyncCommitteeLength)
	for i := 0; i < fieldparams.SyncCommitteeLength; i++ {
		if i < len(inputKeys) {
			pubKeys = append(pubKeys, bytesutil.PadTo(inputKeys[i], fieldparams.BLSPubkeyLength))
		} else {
			pubKeys = append(pubKeys, make([]byte, fieldparams.BLSPubkeyLength))
		}
	}
	return &ethpb.SyncCommittee{
		Pubkeys:         pubKeys,
		AggregatePubkey: make([]byte, fieldparams.BLSPubkeyLength),
	}
}

// EmptySyncAggregate returns a sync aggregate without participants, which carries the
// signature at infinity.
func EmptySyncAggregate() *ethpb.SyncAggregate {
	return &ethpb.SyncAggregate{
		SyncCommitteeBits:      bitfield.NewBitvector512(),
		SyncCommitteeSignature: bytesutil.SafeCopyBytes(common.InfiniteSignature[:]),
	}
}

// GenerateSyncAggregate returns the aggregate of the full sync committee of st's epoch over
// the block root of the slot before st's. st must be at the slot of the block carrying it.
func GenerateSyncAggregate(st *cache.CachedBeaconState, privs []bls.SecretKey) (*ethpb.SyncAggregate, error) {
	cfg := st.Config()
	committee, err := st.EpochCtx().SyncCommitteeAtEpoch(time.CurrentEpoch(cfg, st))
	if err != nil {
		return nil, err
	}
	previousSlot := st.Slot()
	if previousSlot > 0 {
		previousSlot--
	}
	blockRoot, err := helpers.BlockRootAtSlot(cfg, st, previousSlot)
	if err != nil {
		return nil, err
	}
	domain, err := signing.Domain(st.Fork(), slots.ToEpoch(cfg, previousSlot), cfg.DomainSyncCommittee, st.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRootForRoot(bytesutil.ToBytes32(blockRoot), domain)
	if err != nil {
		return nil, err
	}
	bits := bitfield.NewBitvector512()
	sigs := make([]bls.Signature, 0, len(committee.ValidatorIndices))
	for i, idx := range committee.ValidatorIndices {
		if uint64(idx) >= uint64(len(privs)) {
			return nil, errors.Errorf("no secret key for validator %d", idx)
		}
		bits.SetBitAt(uint64(i), true)
		sigs = append(sigs, privs[idx].Sign(root[:]))
	}
	if len(sigs) == 0 {
		return EmptySyncAggregate(), nil
	}
	return &ethpb.SyncAggregate{
		SyncCommitteeBits:      bits,
		SyncCommitteeSignature: bls.AggregateSignatures(sigs).Marshal(),
	}, nil
}
