package eth

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/go-bitfield"
)

// Att defines common functionality for attestation records carried in blocks and state.
type Att interface {
	ssz.HashRoot
	Version() int
	GetAggregationBits() bitfield.Bitlist
	GetData() *AttestationData
	GetSignature() []byte
	GetCommitteeIndex() (primitives.CommitteeIndex, error)
}

var errNilAttData = errors.New("nil attestation data")

// Copy --
func (cp *Checkpoint) Copy() *Checkpoint {
	if cp == nil {
		return nil
	}
	return &Checkpoint{
		Epoch: cp.Epoch,
		Root:  bytesutil.SafeCopyBytes(cp.Root),
	}
}

// Equal reports whether two checkpoints share epoch and root.
func (cp *Checkpoint) Equal(other *Checkpoint) bool {
	if cp == nil || other == nil {
		return cp == other
	}
	return cp.Epoch == other.Epoch && bytesutil.ToBytes32(cp.Root) == bytesutil.ToBytes32(other.Root)
}

// Copy --
func (attData *AttestationData) Copy() *AttestationData {
	if attData == nil {
		return nil
	}
	return &AttestationData{
		Slot:            attData.Slot,
		CommitteeIndex:  attData.CommitteeIndex,
		BeaconBlockRoot: bytesutil.SafeCopyBytes(attData.BeaconBlockRoot),
		Source:          attData.Source.Copy(),
		Target:          attData.Target.Copy(),
	}
}

// Version --
func (att *Attestation) Version() int {
	return version.Phase0
}

// GetAggregationBits --
func (att *Attestation) GetAggregationBits() bitfield.Bitlist {
	if att == nil {
		return nil
	}
	return att.AggregationBits
}

// GetData --
func (att *Attestation) GetData() *AttestationData {
	if att == nil {
		return nil
	}
	return att.Data
}

// GetSignature --
func (att *Attestation) GetSignature() []byte {
	if att == nil {
		return nil
	}
	return att.Signature
}

// GetCommitteeIndex --
func (att *Attestation) GetCommitteeIndex() (primitives.CommitteeIndex, error) {
	if att == nil || att.Data == nil {
		return 0, errNilAttData
	}
	return att.Data.CommitteeIndex, nil
}

// Copy --
func (att *Attestation) Copy() *Attestation {
	if att == nil {
		return nil
	}
	return &Attestation{
		AggregationBits: bytesutil.SafeCopyBytes(att.AggregationBits),
		Data:            att.Data.Copy(),
		Signature:       bytesutil.SafeCopyBytes(att.Signature),
	}
}

// Version --
func (a *PendingAttestation) Version() int {
	return version.Phase0
}

// GetAggregationBits --
func (a *PendingAttestation) GetAggregationBits() bitfield.Bitlist {
	if a == nil {
		return nil
	}
	return a.AggregationBits
}

// GetData --
func (a *PendingAttestation) GetData() *AttestationData {
	if a == nil {
		return nil
	}
	return a.Data
}

// GetSignature --
func (a *PendingAttestation) GetSignature() []byte {
	return nil
}

// GetCommitteeIndex --
func (a *PendingAttestation) GetCommitteeIndex() (primitives.CommitteeIndex, error) {
	if a == nil || a.Data == nil {
		return 0, errNilAttData
	}
	return a.Data.CommitteeIndex, nil
}

// Copy --
func (a *PendingAttestation) Copy() *PendingAttestation {
	if a == nil {
		return nil
	}
	return &PendingAttestation{
		AggregationBits: bytesutil.SafeCopyBytes(a.AggregationBits),
		Data:            a.Data.Copy(),
		InclusionDelay:  a.InclusionDelay,
		ProposerIndex:   a.ProposerIndex,
	}
}

// Copy --
func (indexedAtt *IndexedAttestation) Copy() *IndexedAttestation {
	var indices []uint64
	if indexedAtt == nil {
		return nil
	} else if indexedAtt.AttestingIndices != nil {
		indices = make([]uint64, len(indexedAtt.AttestingIndices))
		copy(indices, indexedAtt.AttestingIndices)
	}
	return &IndexedAttestation{
		AttestingIndices: indices,
		Data:             indexedAtt.Data.Copy(),
		Signature:        bytesutil.SafeCopyBytes(indexedAtt.Signature),
	}
}

// Copy --
func (a *AttesterSlashing) Copy() *AttesterSlashing {
	if a == nil {
		return nil
	}
	return &AttesterSlashing{
		Attestation_1: a.Attestation_1.Copy(),
		Attestation_2: a.Attestation_2.Copy(),
	}
}
