package cache

import (
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/prysmaticlabs/beacon-transition/time/slots"
	"github.com/prysmaticlabs/go-bitfield"
)

// EpochContext holds the data derived from a beacon state that stays fixed for the duration
// of one epoch: the shufflings of the previous, current and next epochs, the proposers of the
// current epoch, a flat effective balance table, the exit queue and the reward constants.
//
// A context belongs to exactly one state. It is rotated by AfterProcessEpoch when the state
// crosses an epoch boundary and cloned by Copy whenever the state is cloned. Only the pubkey
// cache and the shuffling cache are shared between clones.
type EpochContext struct {
	cfg            *params.BeaconChainConfig
	pubkeys        *PubkeyCache
	shufflingCache *ShufflingCache
	// registry entries of this fork that conflict with pubkeys, nil when there are none.
	branchPubkeys  *branchPubkeys

	previousShuffling *EpochShuffling
	currentShuffling  *EpochShuffling
	nextShuffling     *EpochShuffling
	proposers         []primitives.ValidatorIndex

	effectiveBalances *balanceTable

	totalActiveBalance     uint64
	baseRewardPerIncrement uint64
	syncParticipantReward  uint64
	syncProposerReward     uint64

	churnLimit     uint64
	exitQueueEpoch primitives.Epoch
	exitQueueChurn uint64

	currentSyncCommittee *SyncCommitteeCache
	nextSyncCommittee    *SyncCommitteeCache

	epoch      primitives.Epoch
	syncPeriod uint64
}

type epochContextOptions struct {
	pubkeys         *PubkeyCache
	shufflingCache  *ShufflingCache
	skipSyncPubkeys bool
}

// Option configures NewEpochContext.
type Option func(*epochContextOptions)

// WithPubkeyCache shares an existing pubkey cache with the new context.
func WithPubkeyCache(c *PubkeyCache) Option {
	return func(o *epochContextOptions) {
		o.pubkeys = c
	}
}

// WithShufflingCache looks shufflings up in c before computing them.
func WithShufflingCache(c *ShufflingCache) Option {
	return func(o *epochContextOptions) {
		o.shufflingCache = c
	}
}

// WithSkipSyncPubkeys assumes the pubkey cache already holds every validator of the state.
func WithSkipSyncPubkeys() Option {
	return func(o *epochContextOptions) {
		o.skipSyncPubkeys = true
	}
}

// NewEpochContext derives a full epoch context from st.
func NewEpochContext(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState, opts ...Option) (*EpochContext, error) {
	if cfg == nil {
		return nil, errors.New("nil beacon chain config")
	}
	if st == nil || st.IsNil() {
		return nil, errors.New("nil beacon state")
	}
	o := &epochContextOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.pubkeys == nil {
		o.pubkeys = NewPubkeyCache()
	}
	var conflicts []primitives.ValidatorIndex
	if !o.skipSyncPubkeys {
		var err error
		if conflicts, err = o.pubkeys.Sync(st); err != nil {
			return nil, errors.Wrap(err, "could not sync pubkey cache")
		}
	}

	currentEpoch := slots.ToEpoch(cfg, st.Slot())
	previousEpoch := currentEpoch
	if currentEpoch > cfg.GenesisEpoch {
		previousEpoch = currentEpoch - 1
	}
	nextEpoch := currentEpoch + 1

	n := st.NumValidators()
	effectiveBalances := make([]uint64, n)
	var previousActive, currentActive, nextActive []primitives.ValidatorIndex
	var totalActive uint64
	exitQueueEpoch := helpers.ActivationExitEpoch(cfg, currentEpoch)
	var exitQueueChurn uint64

	err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		effectiveBalances[idx] = val.EffectiveBalance()
		if helpers.IsActiveValidatorUsingTrie(val, previousEpoch) {
			previousActive = append(previousActive, primitives.ValidatorIndex(idx))
		}
		if helpers.IsActiveValidatorUsingTrie(val, currentEpoch) {
			currentActive = append(currentActive, primitives.ValidatorIndex(idx))
			totalActive += val.EffectiveBalance()
		}
		if helpers.IsActiveValidatorUsingTrie(val, nextEpoch) {
			nextActive = append(nextActive, primitives.ValidatorIndex(idx))
		}
		exit := val.ExitEpoch()
		if exit != cfg.FarFutureEpoch {
			if exit > exitQueueEpoch {
				exitQueueEpoch = exit
				exitQueueChurn = 1
			} else if exit == exitQueueEpoch {
				exitQueueChurn++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := &EpochContext{
		cfg:               cfg,
		pubkeys:           o.pubkeys,
		shufflingCache:    o.shufflingCache,
		effectiveBalances: &balanceTable{values: effectiveBalances},
		exitQueueEpoch:    exitQueueEpoch,
		exitQueueChurn:    exitQueueChurn,
		epoch:             currentEpoch,
		syncPeriod:        slots.SyncCommitteePeriod(cfg, currentEpoch),
		churnLimit:        helpers.ValidatorChurnLimit(cfg, uint64(len(currentActive))),
	}
	for _, idx := range conflicts {
		c.branch().set(idx, st.PubkeyAtIndex(idx))
	}

	if c.currentShuffling, err = c.shuffling(st, currentActive, currentEpoch); err != nil {
		return nil, err
	}
	if previousEpoch == currentEpoch {
		c.previousShuffling = c.currentShuffling
	} else if c.previousShuffling, err = c.shuffling(st, previousActive, previousEpoch); err != nil {
		return nil, err
	}
	if c.nextShuffling, err = c.shuffling(st, nextActive, nextEpoch); err != nil {
		return nil, err
	}
	if err := c.computeProposers(st); err != nil {
		return nil, err
	}
	if err := c.setTotalActiveBalance(st.Version(), totalActive); err != nil {
		return nil, err
	}
	if st.Version() >= version.Altair {
		if err := c.LoadSyncCommittees(st); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *EpochContext) shuffling(
	st state.ReadOnlyRandaoMixes,
	active []primitives.ValidatorIndex,
	epoch primitives.Epoch,
) (*EpochShuffling, error) {
	if c.shufflingCache != nil {
		return c.shufflingCache.Get(c.cfg, st, active, epoch)
	}
	return ComputeEpochShuffling(c.cfg, st, active, epoch)
}

func (c *EpochContext) computeProposers(st state.ReadOnlyRandaoMixes) error {
	active := c.currentShuffling.ActiveIndices
	if len(active) == 0 {
		c.proposers = nil
		return nil
	}
	seed, err := helpers.Seed(c.cfg, st, c.currentShuffling.Epoch, c.cfg.DomainBeaconProposer)
	if err != nil {
		return errors.Wrap(err, "could not get proposer seed")
	}
	start, err := slots.EpochStart(c.cfg, c.currentShuffling.Epoch)
	if err != nil {
		return err
	}
	proposers := make([]primitives.ValidatorIndex, c.cfg.SlotsPerEpoch)
	for i := range proposers {
		slot := start + primitives.Slot(i)
		proposers[i], err = helpers.ComputeProposerIndex(c.cfg, active, c.EffectiveBalance, helpers.ProposerSeed(seed, slot))
		if err != nil {
			return errors.Wrapf(err, "could not compute proposer of slot %d", slot)
		}
	}
	c.proposers = proposers
	return nil
}

func (c *EpochContext) setTotalActiveBalance(ver int, total uint64) error {
	if total < c.cfg.EffectiveBalanceIncrement {
		total = c.cfg.EffectiveBalanceIncrement
	}
	c.totalActiveBalance = total
	var err error
	if c.baseRewardPerIncrement, err = helpers.BaseRewardPerIncrement(c.cfg, total); err != nil {
		return err
	}
	c.syncParticipantReward, c.syncProposerReward = 0, 0
	if ver >= version.Altair {
		c.computeSyncRewards()
	}
	return nil
}

// Spec pseudocode definition (from process_sync_aggregate):
//
//	total_active_increments = get_total_active_balance(state) // EFFECTIVE_BALANCE_INCREMENT
//	total_base_rewards = Gwei(get_base_reward_per_increment(state) * total_active_increments)
//	max_participant_rewards = Gwei(total_base_rewards * SYNC_REWARD_WEIGHT // WEIGHT_DENOMINATOR // SLOTS_PER_EPOCH)
//	participant_reward = Gwei(max_participant_rewards // SYNC_COMMITTEE_SIZE)
//	proposer_reward = Gwei(participant_reward * PROPOSER_WEIGHT // (WEIGHT_DENOMINATOR - PROPOSER_WEIGHT))
func (c *EpochContext) computeSyncRewards() {
	cfg := c.cfg
	increments := c.totalActiveBalance / cfg.EffectiveBalanceIncrement
	totalBaseRewards := c.baseRewardPerIncrement * increments
	maxParticipantRewards := totalBaseRewards * cfg.SyncRewardWeight / cfg.WeightDenominator / uint64(cfg.SlotsPerEpoch)
	c.syncParticipantReward = maxParticipantRewards / cfg.SyncCommitteeSize
	c.syncProposerReward = c.syncParticipantReward * cfg.ProposerWeight / (cfg.WeightDenominator - cfg.ProposerWeight)
}

// LoadSyncCommittees resolves the current and next sync committees of an altair state and
// computes the sync reward constants. It runs on construction and at the altair upgrade.
func (c *EpochContext) LoadSyncCommittees(st state.ReadOnlyBeaconState) error {
	current, err := st.CurrentSyncCommittee()
	if err != nil {
		return err
	}
	next, err := st.NextSyncCommittee()
	if err != nil {
		return err
	}
	if c.currentSyncCommittee, err = SyncCommitteeCacheFromState(current, c); err != nil {
		return errors.Wrap(err, "could not index current sync committee")
	}
	if c.nextSyncCommittee, err = SyncCommitteeCacheFromState(next, c); err != nil {
		return errors.Wrap(err, "could not index next sync committee")
	}
	c.computeSyncRewards()
	return nil
}

// Copy returns a context that can be mutated without affecting c. Shufflings, proposers and
// sync committee caches are immutable and shared. The effective balance table is copied on
// the first write of either side. Concurrent copies of the same context are safe.
func (c *EpochContext) Copy() *EpochContext {
	c.effectiveBalances.shared.Store(true)
	cp := *c
	if c.branchPubkeys != nil {
		cp.branchPubkeys = c.branchPubkeys.copy()
	}
	return &cp
}

// AfterProcessEpoch rotates the context once st has crossed into a new epoch. It must be
// called after epoch processing and after the slot increment. The next shuffling and the
// effective balance table are derived from st, so registry changes made during epoch
// processing are reflected.
func (c *EpochContext) AfterProcessEpoch(st state.ReadOnlyBeaconState) error {
	cfg := c.cfg
	newEpoch := slots.ToEpoch(cfg, st.Slot())
	if newEpoch != c.epoch+1 {
		return errors.Wrapf(ErrEpochContextDesync, "rotating context of epoch %d into state epoch %d", c.epoch, newEpoch)
	}
	nextEpoch := newEpoch + 1

	effectiveBalances := make([]uint64, st.NumValidators())
	var nextActive []primitives.ValidatorIndex
	var totalActive uint64
	err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		effectiveBalances[idx] = val.EffectiveBalance()
		if helpers.IsActiveValidatorUsingTrie(val, newEpoch) {
			totalActive += val.EffectiveBalance()
		}
		if helpers.IsActiveValidatorUsingTrie(val, nextEpoch) {
			nextActive = append(nextActive, primitives.ValidatorIndex(idx))
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.effectiveBalances = &balanceTable{values: effectiveBalances}

	c.previousShuffling = c.currentShuffling
	c.currentShuffling = c.nextShuffling
	if c.nextShuffling, err = c.shuffling(st, nextActive, nextEpoch); err != nil {
		return err
	}
	c.epoch = newEpoch
	c.syncPeriod = slots.SyncCommitteePeriod(cfg, newEpoch)
	if err := c.computeProposers(st); err != nil {
		return err
	}

	c.churnLimit = helpers.ValidatorChurnLimit(cfg, uint64(len(c.currentShuffling.ActiveIndices)))
	if e := helpers.ActivationExitEpoch(cfg, newEpoch); e > c.exitQueueEpoch {
		c.exitQueueEpoch = e
		c.exitQueueChurn = 0
	}
	return c.setTotalActiveBalance(st.Version(), totalActive)
}

// Config is the chain config the context was built with.
func (c *EpochContext) Config() *params.BeaconChainConfig {
	return c.cfg
}

// Epoch is the current epoch of the owning state.
func (c *EpochContext) Epoch() primitives.Epoch {
	return c.epoch
}

// SyncPeriod is the sync committee period of Epoch.
func (c *EpochContext) SyncPeriod() uint64 {
	return c.syncPeriod
}

// PubkeyCache returns the shared pubkey cache.
func (c *EpochContext) PubkeyCache() *PubkeyCache {
	return c.pubkeys
}

// ShufflingCache returns the shared shuffling cache, nil when none was configured.
func (c *EpochContext) ShufflingCache() *ShufflingCache {
	return c.shufflingCache
}

// TotalActiveBalance is the current epoch's total active balance in Gwei, at least one increment.
func (c *EpochContext) TotalActiveBalance() uint64 {
	return c.totalActiveBalance
}

// BaseRewardPerIncrement for the current epoch.
func (c *EpochContext) BaseRewardPerIncrement() uint64 {
	return c.baseRewardPerIncrement
}

// SyncParticipantReward is the per-slot reward of one participating sync committee member.
func (c *EpochContext) SyncParticipantReward() uint64 {
	return c.syncParticipantReward
}

// SyncProposerReward is the proposer reward for including one sync committee participant.
func (c *EpochContext) SyncProposerReward() uint64 {
	return c.syncProposerReward
}

// ChurnLimit of the current epoch.
func (c *EpochContext) ChurnLimit() uint64 {
	return c.churnLimit
}

// ExitQueue returns the latest exit epoch in use and the number of validators exiting at it.
func (c *EpochContext) ExitQueue() (primitives.Epoch, uint64) {
	return c.exitQueueEpoch, c.exitQueueChurn
}

// ClaimExitEpoch reserves a place in the exit queue and returns its epoch.
//
// Spec pseudocode definition (from initiate_validator_exit):
//
//	exit_epochs = [v.exit_epoch for v in state.validators if v.exit_epoch != FAR_FUTURE_EPOCH]
//	exit_queue_epoch = max(exit_epochs + [compute_activation_exit_epoch(get_current_epoch(state))])
//	exit_queue_churn = len([v for v in state.validators if v.exit_epoch == exit_queue_epoch])
//	if exit_queue_churn >= get_validator_churn_limit(state):
//	    exit_queue_epoch += Epoch(1)
func (c *EpochContext) ClaimExitEpoch() primitives.Epoch {
	if c.exitQueueChurn >= c.churnLimit {
		c.exitQueueEpoch++
		c.exitQueueChurn = 1
	} else {
		c.exitQueueChurn++
	}
	return c.exitQueueEpoch
}

// balanceTable is the effective balance table of one or more contexts. Once shared is set
// the values are never written again; writers copy them first.
type balanceTable struct {
	values []uint64
	shared atomic.Bool
}

// EffectiveBalance returns the cached effective balance of idx in Gwei.
func (c *EpochContext) EffectiveBalance(idx primitives.ValidatorIndex) (uint64, error) {
	values := c.effectiveBalances.values
	if uint64(idx) >= uint64(len(values)) {
		return 0, errors.Errorf("validator %d is not in the effective balance table of size %d", idx, len(values))
	}
	return values[idx], nil
}

// SetEffectiveBalance records a new effective balance for idx, extending the table for
// validators appended by deposits.
func (c *EpochContext) SetEffectiveBalance(idx primitives.ValidatorIndex, balance uint64) {
	t := c.effectiveBalances
	if t.shared.Load() || uint64(idx) >= uint64(len(t.values)) {
		size := len(t.values)
		if uint64(idx) >= uint64(size) {
			size = int(idx) + 1
		}
		fresh := make([]uint64, size)
		copy(fresh, t.values)
		t = &balanceTable{values: fresh}
		c.effectiveBalances = t
	}
	t.values[idx] = balance
}

func (c *EpochContext) branch() *branchPubkeys {
	if c.branchPubkeys == nil {
		c.branchPubkeys = newBranchPubkeys()
	}
	return c.branchPubkeys
}

// AddPubkey registers the public key of a validator appended by a deposit. An entry another
// fork already holds differently in the shared cache is kept on this context only.
func (c *EpochContext) AddPubkey(idx primitives.ValidatorIndex, pubkey [fieldparams.BLSPubkeyLength]byte) error {
	err := c.pubkeys.Add(idx, pubkey)
	if errors.Is(err, ErrPubkeyConflict) {
		c.branch().set(idx, pubkey)
		return nil
	}
	return err
}

// ValidatorIndex returns the registry index of pubkey as seen by this context's fork.
// Callers must still check the index against their state's registry size.
func (c *EpochContext) ValidatorIndex(pubkey [fieldparams.BLSPubkeyLength]byte) (primitives.ValidatorIndex, bool) {
	if c.branchPubkeys != nil {
		if idx, ok := c.branchPubkeys.pubkey2index[pubkey]; ok {
			return idx, true
		}
	}
	idx, ok := c.pubkeys.ValidatorIndex(pubkey)
	if !ok {
		return 0, false
	}
	if c.branchPubkeys != nil {
		if _, overridden := c.branchPubkeys.index2pubkey[idx]; overridden {
			return 0, false
		}
	}
	return idx, true
}

// Pubkey returns the decoded public key of idx.
func (c *EpochContext) Pubkey(idx primitives.ValidatorIndex) (bls.PublicKey, error) {
	if c.branchPubkeys != nil {
		if raw, ok := c.branchPubkeys.index2pubkey[idx]; ok {
			pub, err := bls.PublicKeyFromBytes(raw[:])
			if err != nil {
				return nil, errors.Wrapf(err, "could not decode public key of validator %d", idx)
			}
			return pub, nil
		}
	}
	return c.pubkeys.Pubkey(idx)
}

// Pubkeys decodes the public keys of every index in indices.
func (c *EpochContext) Pubkeys(indices []uint64) ([]bls.PublicKey, error) {
	pubs := make([]bls.PublicKey, len(indices))
	for i, idx := range indices {
		pub, err := c.Pubkey(primitives.ValidatorIndex(idx))
		if err != nil {
			return nil, err
		}
		pubs[i] = pub
	}
	return pubs, nil
}

// ShufflingAtEpoch returns the shuffling of epoch, which must be the previous, current or
// next epoch of the context.
func (c *EpochContext) ShufflingAtEpoch(epoch primitives.Epoch) (*EpochShuffling, error) {
	switch {
	case epoch == c.currentShuffling.Epoch:
		return c.currentShuffling, nil
	case epoch == c.previousShuffling.Epoch:
		return c.previousShuffling, nil
	case epoch == c.nextShuffling.Epoch:
		return c.nextShuffling, nil
	}
	return nil, errors.Wrapf(ErrEpochOutOfRange, "requested epoch %d, context epoch %d", epoch, c.epoch)
}

// ShufflingAtSlot returns the shuffling of the epoch containing slot.
func (c *EpochContext) ShufflingAtSlot(slot primitives.Slot) (*EpochShuffling, error) {
	return c.ShufflingAtEpoch(slots.ToEpoch(c.cfg, slot))
}

// CommitteeCountPerSlot returns the number of committees in each slot of epoch.
func (c *EpochContext) CommitteeCountPerSlot(epoch primitives.Epoch) (uint64, error) {
	s, err := c.ShufflingAtEpoch(epoch)
	if err != nil {
		return 0, err
	}
	return s.CommitteesPerSlot, nil
}

// BeaconCommittee returns the committee at index in slot.
func (c *EpochContext) BeaconCommittee(slot primitives.Slot, index primitives.CommitteeIndex) ([]primitives.ValidatorIndex, error) {
	s, err := c.ShufflingAtSlot(slot)
	if err != nil {
		return nil, err
	}
	if uint64(index) >= s.CommitteesPerSlot {
		return nil, errors.Wrapf(ErrCommitteeIndexOutOfRange, "index %d, committees per slot %d", index, s.CommitteesPerSlot)
	}
	return s.Committees[uint64(slot)%uint64(c.cfg.SlotsPerEpoch)][index], nil
}

// BeaconProposer returns the proposer of slot, which must belong to the current epoch.
func (c *EpochContext) BeaconProposer(slot primitives.Slot) (primitives.ValidatorIndex, error) {
	epoch := slots.ToEpoch(c.cfg, slot)
	if epoch != c.epoch {
		return 0, errors.Wrapf(ErrEpochOutOfRange, "proposer of slot %d requested in epoch %d", slot, c.epoch)
	}
	if len(c.proposers) == 0 {
		return 0, errors.New("no active validators to propose")
	}
	return c.proposers[uint64(slot)%uint64(c.cfg.SlotsPerEpoch)], nil
}

// Proposers returns the proposers of the current epoch by slot offset.
func (c *EpochContext) Proposers() []primitives.ValidatorIndex {
	cp := make([]primitives.ValidatorIndex, len(c.proposers))
	copy(cp, c.proposers)
	return cp
}

// AttestingIndices returns the members of the committee of data whose bit is set in bits,
// in committee order.
func (c *EpochContext) AttestingIndices(data *ethpb.AttestationData, bits bitfield.Bitlist) ([]uint64, error) {
	if data == nil {
		return nil, errors.New("nil attestation data")
	}
	committee, err := c.BeaconCommittee(data.Slot, data.CommitteeIndex)
	if err != nil {
		return nil, err
	}
	if bits.Len() != uint64(len(committee)) {
		return nil, errors.Errorf("bitfield length %d is not equal to committee length %d", bits.Len(), len(committee))
	}
	indices := make([]uint64, 0, bits.Count())
	for _, i := range bits.BitIndices() {
		indices = append(indices, uint64(committee[i]))
	}
	return indices, nil
}

// IndexedAttestation converts att into its indexed form with sorted attesting indices.
//
// Spec pseudocode definition:
//
//	def get_indexed_attestation(state: BeaconState, attestation: Attestation) -> IndexedAttestation:
//	  """
//	  Return the indexed attestation corresponding to ``attestation``.
//	  """
//	  attesting_indices = get_attesting_indices(state, attestation.data, attestation.aggregation_bits)
//
//	  return IndexedAttestation(
//	      attesting_indices=sorted(attesting_indices),
//	      data=attestation.data,
//	      signature=attestation.signature,
//	  )
func (c *EpochContext) IndexedAttestation(att *ethpb.Attestation) (*ethpb.IndexedAttestation, error) {
	if att == nil {
		return nil, errors.New("nil attestation")
	}
	indices, err := c.AttestingIndices(att.Data, att.AggregationBits)
	if err != nil {
		return nil, err
	}
	sort.Slice(indices, func(i, j int) bool {
		return indices[i] < indices[j]
	})
	return &ethpb.IndexedAttestation{
		AttestingIndices: indices,
		Data:             att.Data,
		Signature:        att.Signature,
	}, nil
}

// SyncCommitteeAtEpoch returns the sync committee serving epoch, which must fall in the current
// or the next sync committee period.
func (c *EpochContext) SyncCommitteeAtEpoch(epoch primitives.Epoch) (*SyncCommitteeCache, error) {
	if c.currentSyncCommittee == nil {
		return nil, errors.New("sync committees are not available before altair")
	}
	switch slots.SyncCommitteePeriod(c.cfg, epoch) {
	case c.syncPeriod:
		return c.currentSyncCommittee, nil
	case c.syncPeriod + 1:
		return c.nextSyncCommittee, nil
	}
	return nil, errors.Wrapf(ErrEpochOutOfRange, "sync committee of epoch %d requested in period %d", epoch, c.syncPeriod)
}

// RotateSyncCommittees promotes the next sync committee to current and indexes nextIndices
// as the new next committee.
func (c *EpochContext) RotateSyncCommittees(nextIndices []primitives.ValidatorIndex) {
	c.currentSyncCommittee = c.nextSyncCommittee
	c.nextSyncCommittee = NewSyncCommitteeCache(nextIndices)
}
