package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// SlotCommitteeCount returns the number of beacon committees of a slot. The
// active validator count is provided as an argument rather than an imported implementation
// from the spec definition. Having the active validator count as an argument allows for
// cheaper computation, instead of retrieving head state, one can retrieve the validator
// count.
//
// Spec pseudocode definition:
//
//	def get_committee_count_per_slot(state: BeaconState, epoch: Epoch) -> uint64:
//	  """
//	  Return the number of committees in each slot for the given ``epoch``.
//	  """
//	  return max(uint64(1), min(
//	      MAX_COMMITTEES_PER_SLOT,
//	      uint64(len(get_active_validator_indices(state, epoch))) // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//	  ))
func SlotCommitteeCount(cfg *params.BeaconChainConfig, activeValidatorCount uint64) uint64 {
	var committeesPerSlot = activeValidatorCount / uint64(cfg.SlotsPerEpoch) / cfg.TargetCommitteeSize

	if committeesPerSlot > cfg.MaxCommitteesPerSlot {
		return cfg.MaxCommitteesPerSlot
	}
	if committeesPerSlot == 0 {
		return 1
	}

	return committeesPerSlot
}

// ComputeCommittee returns the requested shuffled committee out of the total committees using
// validator indices and seed.
//
// Spec pseudocode definition:
//
//	def compute_committee(indices: Sequence[ValidatorIndex],
//	                    seed: Bytes32,
//	                    index: uint64,
//	                    count: uint64) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the committee corresponding to ``indices``, ``seed``, ``index``, and committee ``count``.
//	  """
//	  start = (len(indices) * index) // count
//	  end = (len(indices) * uint64(index + 1)) // count
//	  return [indices[compute_shuffled_index(uint64(i), uint64(len(indices)), seed)] for i in range(start, end)]
func ComputeCommittee(
	indices []primitives.ValidatorIndex,
	seed [32]byte,
	index, count, rounds uint64,
) ([]primitives.ValidatorIndex, error) {
	validatorCount := uint64(len(indices))
	start, err := SplitOffset(validatorCount, count, index)
	if err != nil {
		return nil, err
	}
	end, err := SplitOffset(validatorCount, count, index+1)
	if err != nil {
		return nil, err
	}

	if start > validatorCount || end > validatorCount {
		return nil, errors.New("index out of range")
	}

	shuffledList := make([]primitives.ValidatorIndex, end-start)
	for i := start; i < end; i++ {
		permutedIndex, err := ShuffledIndex(primitives.ValidatorIndex(i), validatorCount, seed, rounds)
		if err != nil {
			return []primitives.ValidatorIndex{}, errors.Wrapf(err, "could not get shuffled index at index %d", i)
		}
		shuffledList[i-start] = indices[permutedIndex]
	}
	return shuffledList, nil
}

// CommitteeFromShuffling slices committee `index` of `count` out of a list already produced by
// UnshuffleList, which equals ComputeCommittee over the unshuffled input.
func CommitteeFromShuffling(shuffled []primitives.ValidatorIndex, index, count uint64) ([]primitives.ValidatorIndex, error) {
	validatorCount := uint64(len(shuffled))
	start, err := SplitOffset(validatorCount, count, index)
	if err != nil {
		return nil, err
	}
	end, err := SplitOffset(validatorCount, count, index+1)
	if err != nil {
		return nil, err
	}
	if start > validatorCount || end > validatorCount {
		return nil, errors.New("index out of range")
	}
	return shuffled[start:end:end], nil
}

// SplitOffset returns (listsize * index) / chunks
//
// Spec pseudocode definition:
// def get_split_offset(list_size: int, chunks: int, index: int) -> int:
//
//	"""
//	Returns a value such that for a list L, chunk count k and index i,
//	split(L, k)[i] == L[get_split_offset(len(L), k, i): get_split_offset(len(L), k, i+1)]
//	"""
//	return (list_size * index) // chunks
func SplitOffset(listSize, chunks, index uint64) (uint64, error) {
	if chunks == 0 {
		return 0, errors.New("committee count is zero")
	}
	return (listSize * index) / chunks, nil
}
