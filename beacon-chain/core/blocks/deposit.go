package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/version"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ProcessDeposits is one of the operations performed on each processed
// beacon block to verify queued validators from the Ethereum 1.0 Deposit Contract
// into the beacon chain.
//
// Spec pseudocode definition:
//
//	For each deposit in block.body.deposits:
//	  process_deposit(state, deposit)
func ProcessDeposits(
	ctx context.Context,
	st *cache.CachedBeaconState,
	deposits []*ethpb.Deposit,
) error {
	ctx, span := trace.StartSpan(ctx, "core.ProcessDeposits")
	defer span.End()

	for idx, deposit := range deposits {
		if deposit == nil || deposit.Data == nil {
			return errors.Errorf("nil deposit at index %d in block", idx)
		}
		if _, err := ProcessDeposit(ctx, st, deposit, true /* verifyProof */); err != nil {
			return errors.Wrapf(err, "could not process deposit from %#x", bytesutil.Trunc(deposit.Data.PublicKey))
		}
	}
	return nil
}

// ProcessDeposit takes in a deposit object and inserts it
// into the registry as a new validator or balance change.
// Returns true when the deposit added a new validator.
//
// Spec pseudocode definition:
//
//	def process_deposit(state: BeaconState, deposit: Deposit) -> None:
//	  # Verify the Merkle branch
//	  assert is_valid_merkle_branch(
//	      leaf=hash_tree_root(deposit.data),
//	      branch=deposit.proof,
//	      depth=DEPOSIT_CONTRACT_TREE_DEPTH + 1,  # Add 1 for the List length mix-in
//	      index=state.eth1_deposit_index,
//	      root=state.eth1_data.deposit_root,
//	  )
//
//	  # Deposits must be processed in order
//	  state.eth1_deposit_index += 1
//
//	  pubkey = deposit.data.pubkey
//	  amount = deposit.data.amount
//	  validator_pubkeys = [v.pubkey for v in state.validators]
//	  if pubkey not in validator_pubkeys:
//	      # Verify the deposit signature (proof of possession) which is not checked by the deposit contract
//	      deposit_message = DepositMessage(
//	          pubkey=deposit.data.pubkey,
//	          withdrawal_credentials=deposit.data.withdrawal_credentials,
//	          amount=deposit.data.amount,
//	      )
//	      domain = compute_domain(DOMAIN_DEPOSIT)  # Fork-agnostic domain since deposits are valid across forks
//	      signing_root = compute_signing_root(deposit_message, domain)
//	      if not bls.Verify(pubkey, signing_root, deposit.data.signature):
//	          return
//
//	      # Add validator and balance entries
//	      state.validators.append(get_validator_from_deposit(state, deposit))
//	      state.balances.append(amount)
//	  else:
//	      # Increase balance by deposit amount
//	      index = ValidatorIndex(validator_pubkeys.index(pubkey))
//	      increase_balance(state, index, amount)
func ProcessDeposit(ctx context.Context, st *cache.CachedBeaconState, deposit *ethpb.Deposit, verifyProof bool) (bool, error) {
	_, span := trace.StartSpan(ctx, "core.ProcessDeposit")
	defer span.End()

	if err := verifyDepositDataSizes(deposit); err != nil {
		return false, err
	}
	if verifyProof {
		if err := verifyDeposit(st, deposit); err != nil {
			return false, errors.Wrapf(err, "could not verify deposit at index %d", st.Eth1DepositIndex())
		}
	}
	if err := st.SetEth1DepositIndex(st.Eth1DepositIndex() + 1); err != nil {
		return false, err
	}
	pubKey := bytesutil.ToBytes48(deposit.Data.PublicKey)
	amount := deposit.Data.Amount
	if index, ok := st.EpochCtx().ValidatorIndex(pubKey); ok && uint64(index) < uint64(st.NumValidators()) && st.PubkeyAtIndex(index) == pubKey {
		return false, helpers.IncreaseBalance(st, index, amount)
	}

	valid, err := IsValidDepositSignature(st.Config(), deposit.Data)
	if err != nil {
		return false, err
	}
	if !valid {
		log.WithFields(logrus.Fields{
			"pubkey": bytesutil.Trunc(deposit.Data.PublicKey),
			"index":  st.Eth1DepositIndex() - 1,
		}).Debug("Skipping deposit with invalid proof of possession")
		return false, nil
	}
	if err := AddValidatorToRegistry(st, deposit.Data); err != nil {
		return false, errors.Wrap(err, "could not add validator to registry")
	}
	return true, nil
}

// AddValidatorToRegistry appends the validator of a deposit with a verified proof of
// possession, together with its balance and, from altair on, its participation and
// inactivity entries. The epoch context learns the new pubkey and effective balance.
//
// Spec pseudocode definition:
//
//	def get_validator_from_deposit(state: BeaconState, deposit: Deposit) -> Validator:
//	  amount = deposit.data.amount
//	  effective_balance = min(amount - amount % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//
//	  return Validator(
//	      pubkey=deposit.data.pubkey,
//	      withdrawal_credentials=deposit.data.withdrawal_credentials,
//	      activation_eligibility_epoch=FAR_FUTURE_EPOCH,
//	      activation_epoch=FAR_FUTURE_EPOCH,
//	      exit_epoch=FAR_FUTURE_EPOCH,
//	      withdrawable_epoch=FAR_FUTURE_EPOCH,
//	      effective_balance=effective_balance,
//	  )
func AddValidatorToRegistry(st *cache.CachedBeaconState, data *ethpb.DepositData) error {
	cfg := st.Config()
	index := primitives.ValidatorIndex(st.NumValidators())
	effectiveBalance := mathutil.Min(data.Amount-(data.Amount%cfg.EffectiveBalanceIncrement), cfg.MaxEffectiveBalance)
	if err := st.AppendValidator(&ethpb.Validator{
		PublicKey:                  bytesutil.SafeCopyBytes(data.PublicKey),
		WithdrawalCredentials:      bytesutil.SafeCopyBytes(data.WithdrawalCredentials),
		ActivationEligibilityEpoch: cfg.FarFutureEpoch,
		ActivationEpoch:            cfg.FarFutureEpoch,
		ExitEpoch:                  cfg.FarFutureEpoch,
		WithdrawableEpoch:          cfg.FarFutureEpoch,
		EffectiveBalance:           effectiveBalance,
	}); err != nil {
		return err
	}
	if err := st.AppendBalance(data.Amount); err != nil {
		return err
	}
	if st.Version() >= version.Altair {
		if err := st.AppendInactivityScore(0); err != nil {
			return err
		}
		if err := st.AppendPreviousParticipationBits(0); err != nil {
			return err
		}
		if err := st.AppendCurrentParticipationBits(0); err != nil {
			return err
		}
	}
	if err := st.EpochCtx().AddPubkey(index, bytesutil.ToBytes48(data.PublicKey)); err != nil {
		return err
	}
	st.EpochCtx().SetEffectiveBalance(index, effectiveBalance)
	return nil
}

// IsValidDepositSignature returns whether the deposit data carries a valid proof of
// possession. Malformed keys or signatures are invalid rather than an error, since
// the deposit contract does not check them.
func IsValidDepositSignature(cfg *params.BeaconChainConfig, data *ethpb.DepositData) (bool, error) {
	domain, err := signing.ComputeDomain(cfg.DomainDeposit, cfg.GenesisForkVersion, nil)
	if err != nil {
		return false, err
	}
	msg := &ethpb.DepositMessage{
		PublicKey:             data.PublicKey,
		WithdrawalCredentials: data.WithdrawalCredentials,
		Amount:                data.Amount,
	}
	root, err := signing.ComputeSigningRoot(msg, domain)
	if err != nil {
		return false, errors.Wrap(err, "could not compute deposit signing root")
	}
	pub, err := bls.PublicKeyFromBytes(data.PublicKey)
	if err != nil {
		return false, nil
	}
	sig, err := bls.SignatureFromBytes(data.Signature)
	if err != nil {
		return false, nil
	}
	return sig.Verify(pub, root[:]), nil
}

func verifyDeposit(st *cache.CachedBeaconState, deposit *ethpb.Deposit) error {
	eth1Data := st.Eth1Data()
	if eth1Data == nil {
		return errors.New("nil eth1 data in state")
	}
	leaf, err := deposit.Data.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not tree hash deposit data")
	}
	if ok := trie.VerifyProof(
		eth1Data.DepositRoot,
		leaf[:],
		st.Eth1DepositIndex(),
		deposit.Proof,
		st.Config().DepositContractTreeDepth,
	); !ok {
		return errors.Errorf(
			"deposit merkle branch of deposit root did not verify for root: %#x",
			eth1Data.DepositRoot,
		)
	}
	return nil
}

func verifyDepositDataSizes(deposit *ethpb.Deposit) error {
	if deposit == nil || deposit.Data == nil {
		return errors.New("received nil deposit or nil deposit data")
	}
	if len(deposit.Data.PublicKey) != fieldparams.BLSPubkeyLength {
		return errors.Errorf("deposit pubkey has length %d", len(deposit.Data.PublicKey))
	}
	if len(deposit.Data.WithdrawalCredentials) != fieldparams.RootLength {
		return errors.Errorf("deposit withdrawal credentials have length %d", len(deposit.Data.WithdrawalCredentials))
	}
	if len(deposit.Data.Signature) != fieldparams.BLSSignatureLength {
		return errors.Errorf("deposit signature has length %d", len(deposit.Data.Signature))
	}
	return nil
}
