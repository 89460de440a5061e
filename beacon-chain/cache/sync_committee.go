package cache

import (
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SyncCommitteeCache is a sync committee resolved to validator indices.
type SyncCommitteeCache struct {
	// ValidatorIndices holds one entry per committee position. A validator may appear more
	// than once.
	ValidatorIndices []primitives.ValidatorIndex
	// IndexMap lists the committee positions of every member.
	IndexMap map[primitives.ValidatorIndex][]uint64
}

// NewSyncCommitteeCache builds the cache from committee member indices.
func NewSyncCommitteeCache(indices []primitives.ValidatorIndex) *SyncCommitteeCache {
	m := make(map[primitives.ValidatorIndex][]uint64, len(indices))
	for pos, idx := range indices {
		m[idx] = append(m[idx], uint64(pos))
	}
	return &SyncCommitteeCache{ValidatorIndices: indices, IndexMap: m}
}

// ValidatorIndexer resolves public keys to registry indices.
type ValidatorIndexer interface {
	ValidatorIndex(pubkey [fieldparams.BLSPubkeyLength]byte) (primitives.ValidatorIndex, bool)
}

// SyncCommitteeCacheFromState resolves every public key of committee through pubkeys.
func SyncCommitteeCacheFromState(committee *ethpb.SyncCommittee, pubkeys ValidatorIndexer) (*SyncCommitteeCache, error) {
	if committee == nil {
		return nil, errors.New("nil sync committee")
	}
	indices := make([]primitives.ValidatorIndex, len(committee.Pubkeys))
	for i, pk := range committee.Pubkeys {
		idx, ok := pubkeys.ValidatorIndex(bytesutil.ToBytes48(pk))
		if !ok {
			return nil, errors.Wrapf(ErrUnknownPubkey, "sync committee position %d", i)
		}
		indices[i] = idx
	}
	return NewSyncCommitteeCache(indices), nil
}

// Positions returns the committee positions held by idx, nil when idx is not a member.
func (s *SyncCommitteeCache) Positions(idx primitives.ValidatorIndex) []uint64 {
	return s.IndexMap[idx]
}
