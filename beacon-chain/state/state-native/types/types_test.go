package types_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func TestFieldIndex_RealPosition(t *testing.T) {
	assert.Equal(t, types.PreviousEpochAttestations.RealPosition(), types.PreviousEpochParticipationBits.RealPosition())
	assert.Equal(t, types.CurrentEpochAttestations.RealPosition(), types.CurrentEpochParticipationBits.RealPosition())
	assert.Equal(t, types.Phase0FieldCount-1, types.FinalizedCheckpoint.RealPosition())
	assert.Equal(t, types.AltairFieldCount-1, types.NextSyncCommittee.RealPosition())
	assert.Equal(t, -1, types.FieldIndex(100).RealPosition())
}

func TestFieldIndex_String(t *testing.T) {
	assert.Equal(t, "validators", types.Validators.String())
	assert.Equal(t, "unknown field index number: 100", types.FieldIndex(100).String())
}
