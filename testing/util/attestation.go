package util

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
	"github.com/prysmaticlabs/go-bitfield"
)

// HydrateAttestation hydrates an attestation object with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateAttestation(a *ethpb.Attestation) *ethpb.Attestation {
	if a.Signature == nil {
		a.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	if a.AggregationBits == nil {
		a.AggregationBits = make([]byte, 1)
	}
	if a.Data == nil {
		a.Data = &ethpb.AttestationData{}
	}
	a.Data = HydrateAttestationData(a.Data)
	return a
}

// HydrateAttestationData hydrates an attestation data object with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateAttestationData(d *ethpb.AttestationData) *ethpb.AttestationData {
	if d.BeaconBlockRoot == nil {
		d.BeaconBlockRoot = make([]byte, fieldparams.RootLength)
	}
	if d.Target == nil {
		d.Target = &ethpb.Checkpoint{}
	}
	if d.Target.Root == nil {
		d.Target.Root = make([]byte, fieldparams.RootLength)
	}
	if d.Source == nil {
		d.Source = &ethpb.Checkpoint{}
	}
	if d.Source.Root == nil {
		d.Source.Root = make([]byte, fieldparams.RootLength)
	}
	return d
}

// HydrateIndexedAttestation hydrates an indexed attestation with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateIndexedAttestation(a *ethpb.IndexedAttestation) *ethpb.IndexedAttestation {
	if a.Signature == nil {
		a.Signature = make([]byte, fieldparams.BLSSignatureLength)
	}
	if a.Data == nil {
		a.Data = &ethpb.AttestationData{}
	}
	a.Data = HydrateAttestationData(a.Data)
	return a
}

// AttestationData returns the data every honest attester of committee index in slot would sign
// when viewed from st, which must be past slot.
func AttestationData(st *cache.CachedBeaconState, slot primitives.Slot, index primitives.CommitteeIndex) (*ethpb.AttestationData, error) {
	cfg := st.Config()
	if slot >= st.Slot() {
		return nil, errors.Errorf("attestation slot %d must be before state slot %d", slot, st.Slot())
	}
	epoch := slots.ToEpoch(cfg, slot)
	blockRoot, err := helpers.BlockRootAtSlot(cfg, st, slot)
	if err != nil {
		return nil, err
	}
	targetRoot, err := helpers.BlockRoot(cfg, st, epoch)
	if err != nil {
		return nil, err
	}
	source := st.PreviousJustifiedCheckpoint()
	if epoch == time.CurrentEpoch(cfg, st) {
		source = st.CurrentJustifiedCheckpoint()
	}
	return &ethpb.AttestationData{
		Slot:            slot,
		CommitteeIndex:  index,
		BeaconBlockRoot: blockRoot,
		Source:          source,
		Target:          &ethpb.Checkpoint{Epoch: epoch, Root: targetRoot},
	}, nil
}

// GenerateAttestations returns fully aggregated attestations of the first numCommittees
// committees of slot, signed by every committee member. Fewer are returned when the slot has
// fewer committees.
func GenerateAttestations(
	st *cache.CachedBeaconState,
	privs []bls.SecretKey,
	slot primitives.Slot,
	numCommittees uint64,
) ([]*ethpb.Attestation, error) {
	cfg := st.Config()
	epoch := slots.ToEpoch(cfg, slot)
	count, err := st.EpochCtx().CommitteeCountPerSlot(epoch)
	if err != nil {
		return nil, err
	}
	if numCommittees > count {
		numCommittees = count
	}
	atts := make([]*ethpb.Attestation, 0, numCommittees)
	for i := uint64(0); i < numCommittees; i++ {
		index := primitives.CommitteeIndex(i)
		data, err := AttestationData(st, slot, index)
		if err != nil {
			return nil, err
		}
		committee, err := st.EpochCtx().BeaconCommittee(slot, index)
		if err != nil {
			return nil, err
		}
		domain, err := signing.Domain(st.Fork(), epoch, cfg.DomainBeaconAttester, st.GenesisValidatorsRoot())
		if err != nil {
			return nil, err
		}
		root, err := signing.ComputeSigningRoot(data, domain)
		if err != nil {
			return nil, err
		}
		bits := bitfield.NewBitlist(uint64(len(committee)))
		sigs := make([]bls.Signature, len(committee))
		for j, idx := range committee {
			if uint64(idx) >= uint64(len(privs)) {
				return nil, errors.Errorf("no secret key for validator %d", idx)
			}
			bits.SetBitAt(uint64(j), true)
			sigs[j] = privs[idx].Sign(root[:])
		}
		atts = append(atts, &ethpb.Attestation{
			AggregationBits: bits,
			Data:            data,
			Signature:       bls.AggregateSignatures(sigs).Marshal(),
		})
	}
	return atts, nil
}
