package cache

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
)

const (
	// maxShufflingCacheSize holds the previous, current and next shufflings of a few forks.
	maxShufflingCacheSize = 16
)

var (
	// Metrics
	shufflingCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epoch_shuffling_cache_hit",
		Help: "The number of epoch shuffling requests that are present in the cache.",
	})
	shufflingCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epoch_shuffling_cache_miss",
		Help: "The number of epoch shuffling requests that aren't present in the cache.",
	})
)

// EpochShuffling is the committee assignment of one epoch. It is immutable once computed and
// may be shared by any number of epoch contexts.
type EpochShuffling struct {
	Epoch primitives.Epoch
	// ActiveIndices are the validators active at Epoch, in registry order.
	ActiveIndices []primitives.ValidatorIndex
	// Shuffling is ActiveIndices permuted by the epoch's attester seed.
	Shuffling []primitives.ValidatorIndex
	// Committees is indexed by slot within the epoch and then by committee index.
	Committees        [][][]primitives.ValidatorIndex
	CommitteesPerSlot uint64
}

// ComputeEpochShuffling shuffles activeIndices with the attester seed of epoch and splits the
// result into the epoch's committees.
//
// Spec pseudocode definition:
//
//	def get_beacon_committee(state: BeaconState, slot: Slot, index: CommitteeIndex) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the beacon committee at ``slot`` for ``index``.
//	  """
//	  epoch = compute_epoch_at_slot(slot)
//	  committees_per_slot = get_committee_count_per_slot(state, epoch)
//	  return compute_committee(
//	      indices=get_active_validator_indices(state, epoch),
//	      seed=get_seed(state, epoch, DOMAIN_BEACON_ATTESTER),
//	      index=(slot % SLOTS_PER_EPOCH) * committees_per_slot + index,
//	      count=committees_per_slot * SLOTS_PER_EPOCH,
//	  )
func ComputeEpochShuffling(
	cfg *params.BeaconChainConfig,
	st state.ReadOnlyRandaoMixes,
	activeIndices []primitives.ValidatorIndex,
	epoch primitives.Epoch,
) (*EpochShuffling, error) {
	seed, err := helpers.Seed(cfg, st, epoch, cfg.DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attester seed")
	}
	return computeShufflingFromSeed(cfg, seed, activeIndices, epoch)
}

func computeShufflingFromSeed(
	cfg *params.BeaconChainConfig,
	seed [32]byte,
	activeIndices []primitives.ValidatorIndex,
	epoch primitives.Epoch,
) (*EpochShuffling, error) {
	shuffled := make([]primitives.ValidatorIndex, len(activeIndices))
	copy(shuffled, activeIndices)
	shuffled, err := helpers.UnshuffleList(shuffled, seed, cfg.ShuffleRoundCount)
	if err != nil {
		return nil, errors.Wrap(err, "could not shuffle active indices")
	}

	perSlot := helpers.SlotCommitteeCount(cfg, uint64(len(activeIndices)))
	slotsPerEpoch := uint64(cfg.SlotsPerEpoch)
	count := perSlot * slotsPerEpoch
	committees := make([][][]primitives.ValidatorIndex, slotsPerEpoch)
	for s := uint64(0); s < slotsPerEpoch; s++ {
		committees[s] = make([][]primitives.ValidatorIndex, perSlot)
		for i := uint64(0); i < perSlot; i++ {
			committees[s][i], err = helpers.CommitteeFromShuffling(shuffled, s*perSlot+i, count)
			if err != nil {
				return nil, err
			}
		}
	}
	return &EpochShuffling{
		Epoch:             epoch,
		ActiveIndices:     activeIndices,
		Shuffling:         shuffled,
		Committees:        committees,
		CommitteesPerSlot: perSlot,
	}, nil
}

// ShufflingCache keeps recently computed epoch shufflings so that sibling states, and states
// replayed from the same ancestor, do not shuffle the same validator set twice.
type ShufflingCache struct {
	lru *lru.Cache
}

// NewShufflingCache creates a shuffling cache holding up to maxShufflingCacheSize entries.
func NewShufflingCache() (*ShufflingCache, error) {
	c, err := lru.New(maxShufflingCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create shuffling cache")
	}
	return &ShufflingCache{lru: c}, nil
}

// shufflingKey identifies a shuffling by its seed and by the active set it permutes. The seed
// alone is not enough: two forks can share a RANDAO mix and still differ in their registry.
func shufflingKey(seed [32]byte, epoch primitives.Epoch, activeIndices []primitives.ValidatorIndex) [32]byte {
	buf := make([]byte, 0, 40+8*len(activeIndices))
	buf = append(buf, seed[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(epoch))
	for _, idx := range activeIndices {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(idx))
	}
	return hash.Hash(buf)
}

// Get returns the shuffling of epoch for activeIndices, computing and storing it on a miss.
func (c *ShufflingCache) Get(
	cfg *params.BeaconChainConfig,
	st state.ReadOnlyRandaoMixes,
	activeIndices []primitives.ValidatorIndex,
	epoch primitives.Epoch,
) (*EpochShuffling, error) {
	seed, err := helpers.Seed(cfg, st, epoch, cfg.DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attester seed")
	}
	key := shufflingKey(seed, epoch, activeIndices)
	if item, ok := c.lru.Get(key); ok {
		s, ok := item.(*EpochShuffling)
		if !ok {
			return nil, ErrCastingFailed
		}
		shufflingCacheHit.Inc()
		return s, nil
	}
	shufflingCacheMiss.Inc()
	s, err := computeShufflingFromSeed(cfg, seed, activeIndices, epoch)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, s)
	return s, nil
}

// Len is the number of cached shufflings.
func (c *ShufflingCache) Len() int {
	return c.lru.Len()
}
