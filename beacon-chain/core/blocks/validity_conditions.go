package blocks

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	mathutil "github.com/prysmaticlabs/beacon-transition/math"
)

// VerifyOperationLengths verifies that block operation lengths are valid: each list is
// bounded by its MAX_* constant and the block carries exactly the outstanding deposits
// the state expects, up to MAX_DEPOSITS.
//
// Spec pseudocode definition:
//
//	# Verify that outstanding deposits are processed up to the maximum number of deposits
//	assert len(body.deposits) == min(MAX_DEPOSITS, state.eth1_data.deposit_count - state.eth1_deposit_index)
func VerifyOperationLengths(cfg *params.BeaconChainConfig, st state.ReadOnlyBeaconState, body interfaces.ReadOnlyBeaconBlockBody) error {
	if body == nil || body.IsNil() {
		return errors.New("nil block body")
	}
	if err := checkLength("proposer slashings", len(body.ProposerSlashings()), cfg.MaxProposerSlashings); err != nil {
		return err
	}
	if err := checkLength("attester slashings", len(body.AttesterSlashings()), cfg.MaxAttesterSlashings); err != nil {
		return err
	}
	if err := checkLength("attestations", len(body.Attestations()), cfg.MaxAttestations); err != nil {
		return err
	}
	if err := checkLength("voluntary exits", len(body.VoluntaryExits()), cfg.MaxVoluntaryExits); err != nil {
		return err
	}

	eth1Data := st.Eth1Data()
	if eth1Data == nil {
		return errors.New("nil eth1data in state")
	}
	if st.Eth1DepositIndex() > eth1Data.DepositCount {
		return fmt.Errorf("expected eth1 deposit index %d <= eth1 data deposit count %d", st.Eth1DepositIndex(), eth1Data.DepositCount)
	}
	maxDeposits := mathutil.Min(cfg.MaxDeposits, eth1Data.DepositCount-st.Eth1DepositIndex())
	// Verify outstanding deposits are processed up to max number of deposits
	if uint64(len(body.Deposits())) != maxDeposits {
		return fmt.Errorf("incorrect outstanding deposits in block body, wanted: %d, got: %d",
			maxDeposits, len(body.Deposits()))
	}
	return nil
}

func checkLength(name string, n int, limit uint64) error {
	if uint64(n) > limit {
		return fmt.Errorf("number of %s (%d) in block body exceeds allowed threshold of %d", name, n, limit)
	}
	return nil
}
