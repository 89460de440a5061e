package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/time"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"go.opencensus.io/trace"
)

// ProcessRandao checks the block proposer's
// randao commitment and generates a new randao mix to update
// in the beacon state's latest randao mixes slice.
//
// Spec pseudocode definition:
//
//	def process_randao(state: BeaconState, body: BeaconBlockBody) -> None:
//	  epoch = get_current_epoch(state)
//	  # Verify RANDAO reveal
//	  proposer = state.validators[get_beacon_proposer_index(state)]
//	  signing_root = compute_signing_root(epoch, get_domain(state, DOMAIN_RANDAO))
//	  assert bls.Verify(proposer.pubkey, signing_root, body.randao_reveal)
//	  # Mix in RANDAO reveal
//	  mix = xor(get_randao_mix(state, epoch), hash(body.randao_reveal))
//	  state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR] = mix
func ProcessRandao(ctx context.Context, st *cache.CachedBeaconState, randaoReveal []byte) error {
	ctx, span := trace.StartSpan(ctx, "core.ProcessRandao")
	defer span.End()

	set, err := RandaoSignatureSet(ctx, st, randaoReveal)
	if err != nil {
		return errors.Wrap(err, "could not retrieve randao signature set")
	}
	ok, err := set.Verify()
	if err != nil {
		return errors.Wrap(err, "could not verify randao reveal")
	}
	if !ok {
		return errors.Wrap(signing.ErrSigFailedToVerify, "could not verify randao reveal")
	}
	return ProcessRandaoNoVerify(st, randaoReveal)
}

// ProcessRandaoNoVerify generates a new randao mix to update
// in the beacon state's latest randao mixes slice.
//
// Spec pseudocode definition:
//
//	# Mix it in
//	state.latest_randao_mixes[get_current_epoch(state) % LATEST_RANDAO_MIXES_LENGTH] = (
//	    xor(get_randao_mix(state, get_current_epoch(state)),
//	        hash(body.randao_reveal))
//	)
func ProcessRandaoNoVerify(st *cache.CachedBeaconState, randaoReveal []byte) error {
	cfg := st.Config()
	currentEpoch := time.CurrentEpoch(cfg, st)
	// If block randao passed verification, we XOR the state's latest randao mix with the block's
	// randao and update the state's corresponding latest randao mix value.
	latestMixesLength := cfg.EpochsPerHistoricalVector
	latestMixSlice, err := helpers.RandaoMix(cfg, st, currentEpoch)
	if err != nil {
		return err
	}
	blockRandaoReveal := hash.Hash(randaoReveal)
	if len(blockRandaoReveal) != len(latestMixSlice) {
		return errors.New("blockRandaoReveal length doesn't match latestMixSlice length")
	}
	for i, x := range blockRandaoReveal {
		latestMixSlice[i] ^= x
	}
	return st.UpdateRandaoMixesAtIndex(uint64(currentEpoch%latestMixesLength), latestMixSlice)
}
