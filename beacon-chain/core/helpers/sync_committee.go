package helpers

import (
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// ComputeSyncCommitteeIndices returns SYNC_COMMITTEE_SIZE validator indices sampled by effective
// balance from activeIndices. A validator may be selected more than once. Sampling is capped the
// same way proposer selection is.
//
// Spec pseudocode definition:
//
//	def get_next_sync_committee_indices(state: BeaconState) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the sync committee indices, with possible duplicates, for the next sync committee.
//	  """
//	  epoch = Epoch(get_current_epoch(state) + 1)
//
//	  MAX_RANDOM_BYTE = 2**8 - 1
//	  active_validator_indices = get_active_validator_indices(state, epoch)
//	  active_validator_count = uint64(len(active_validator_indices))
//	  seed = get_seed(state, epoch, DOMAIN_SYNC_COMMITTEE)
//	  i = 0
//	  sync_committee_indices: List[ValidatorIndex] = []
//	  while len(sync_committee_indices) < SYNC_COMMITTEE_SIZE:
//	      shuffled_index = compute_shuffled_index(uint64(i % active_validator_count), active_validator_count, seed)
//	      candidate_index = active_validator_indices[shuffled_index]
//	      random_byte = hash(seed + uint_to_bytes(uint64(i // 32)))[i % 32]
//	      effective_balance = state.validators[candidate_index].effective_balance
//	      if effective_balance * MAX_RANDOM_BYTE >= MAX_EFFECTIVE_BALANCE * random_byte:
//	          sync_committee_indices.append(candidate_index)
//	      i += 1
//	  return sync_committee_indices
func ComputeSyncCommitteeIndices(
	cfg *params.BeaconChainConfig,
	activeIndices []primitives.ValidatorIndex,
	effectiveBalance EffectiveBalanceLookup,
	seed [32]byte,
) ([]primitives.ValidatorIndex, error) {
	count := uint64(len(activeIndices))
	if count == 0 {
		return nil, errEmptyActiveIndices
	}
	hashFunc := hash.CustomSHA256Hasher()
	cIndices := make([]primitives.ValidatorIndex, 0, cfg.SyncCommitteeSize)
	buf := make([]byte, 0, 40)
	var randomBytes [32]byte

	for i := uint64(0); uint64(len(cIndices)) < cfg.SyncCommitteeSize; i++ {
		if i >= cfg.MaxProposerSamplingIterations {
			return nil, ErrProposerSamplingExhausted
		}
		if i%32 == 0 {
			randomBytes = hashFunc(append(append(buf[:0], seed[:]...), bytesutil.Bytes8(i/32)...))
		}
		sIndex, err := ShuffledIndex(primitives.ValidatorIndex(i%count), count, seed, cfg.ShuffleRoundCount)
		if err != nil {
			return nil, err
		}
		cIndex := activeIndices[sIndex]
		effectiveBal, err := effectiveBalance(cIndex)
		if err != nil {
			return nil, err
		}
		if effectiveBal*maxRandomByte >= cfg.MaxEffectiveBalance*uint64(randomBytes[i%32]) {
			cIndices = append(cIndices, cIndex)
		}
	}
	return cIndices, nil
}
