package blocks_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func attData(source, target primitives.Epoch, root byte) *ethpb.AttestationData {
	return util.HydrateAttestationData(&ethpb.AttestationData{
		BeaconBlockRoot: bytesutil.PadTo([]byte{root}, 32),
		Source:          &ethpb.Checkpoint{Epoch: source},
		Target:          &ethpb.Checkpoint{Epoch: target},
	})
}

func doubleVote(indices1, indices2 []uint64) *ethpb.AttesterSlashing {
	return &ethpb.AttesterSlashing{
		Attestation_1: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			Data:             attData(0, 0, 'a'),
			AttestingIndices: indices1,
		}),
		Attestation_2: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			Data:             attData(0, 0, 'b'),
			AttestingIndices: indices2,
		}),
	}
}

func TestIsSlashableAttestationData(t *testing.T) {
	tests := []struct {
		name  string
		data1 *ethpb.AttestationData
		data2 *ethpb.AttestationData
		want  bool
	}{
		{
			name:  "double vote",
			data1: attData(0, 1, 'a'),
			data2: attData(0, 1, 'b'),
			want:  true,
		},
		{
			name:  "surround vote",
			data1: attData(0, 3, 'a'),
			data2: attData(1, 2, 'a'),
			want:  true,
		},
		{
			name:  "surrounded vote is not slashable in this order",
			data1: attData(1, 2, 'a'),
			data2: attData(0, 3, 'a'),
			want:  false,
		},
		{
			name:  "same data",
			data1: attData(0, 1, 'a'),
			data2: attData(0, 1, 'a'),
			want:  false,
		},
		{
			name:  "consecutive votes",
			data1: attData(0, 1, 'a'),
			data2: attData(1, 2, 'b'),
			want:  false,
		},
		{
			name:  "nil data",
			data1: nil,
			data2: attData(0, 1, 'a'),
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blocks.IsSlashableAttestationData(tt.data1, tt.data2))
		})
	}
}

func TestSlashableAttesterIndices(t *testing.T) {
	got := blocks.SlashableAttesterIndices(doubleVote([]uint64{1, 2, 3, 7}, []uint64{0, 2, 3, 5, 7}))
	assert.DeepEqual(t, []uint64{2, 3, 7}, got)
	assert.Equal(t, 0, len(blocks.SlashableAttesterIndices(nil)))
}

func TestProcessAttesterSlashings_DoubleVote(t *testing.T) {
	cfg := util.TestConfig()
	st := registryState(t, cfg, 64)
	slashing := doubleVote([]uint64{1, 2, 3}, []uint64{2, 3, 4})

	require.NoError(t, blocks.ProcessAttesterSlashings(context.Background(), st, []*ethpb.AttesterSlashing{slashing}))
	for i, val := range st.Validators() {
		want := i == 2 || i == 3
		assert.Equal(t, want, val.Slashed, "validator %d", i)
	}
	assert.Equal(t, 2*cfg.MaxEffectiveBalance, st.Slashings()[0])
}

func TestProcessAttesterSlashings_SkipsAlreadySlashed(t *testing.T) {
	st := registryState(t, util.TestConfig(), 64)
	require.NoError(t, blocks.ProcessAttesterSlashings(context.Background(), st, []*ethpb.AttesterSlashing{doubleVote([]uint64{2}, []uint64{2})}))

	// Validator 2 is no longer slashable but validator 3 still is.
	require.NoError(t, blocks.ProcessAttesterSlashings(context.Background(), st, []*ethpb.AttesterSlashing{doubleVote([]uint64{2, 3}, []uint64{2, 3})}))
	err := blocks.ProcessAttesterSlashings(context.Background(), st, []*ethpb.AttesterSlashing{doubleVote([]uint64{2, 3}, []uint64{2, 3})})
	assert.ErrorContains(t, "unable to slash any validator despite confirmed attester slashing", err)
}

func TestProcessAttesterSlashings_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		slashing *ethpb.AttesterSlashing
		wantErr  string
	}{
		{
			name: "not slashable",
			slashing: &ethpb.AttesterSlashing{
				Attestation_1: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{Data: attData(0, 1, 'a'), AttestingIndices: []uint64{1}}),
				Attestation_2: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{Data: attData(0, 1, 'a'), AttestingIndices: []uint64{1}}),
			},
			wantErr: "attestations are not slashable",
		},
		{
			name:     "unsorted indices",
			slashing: doubleVote([]uint64{3, 1}, []uint64{1, 3}),
			wantErr:  "attesting indices is not uniquely sorted",
		},
		{
			name:     "duplicate indices",
			slashing: doubleVote([]uint64{1, 3}, []uint64{1, 1, 3}),
			wantErr:  "attesting indices is not uniquely sorted",
		},
		{
			name:     "empty indices",
			slashing: doubleVote([]uint64{}, []uint64{1}),
			wantErr:  "expected non-empty attesting indices",
		},
		{
			name:     "index out of registry",
			slashing: doubleVote([]uint64{1, 64}, []uint64{1}),
			wantErr:  "attesting index 64 is not in the registry",
		},
		{
			name:     "nil attestation",
			slashing: &ethpb.AttesterSlashing{Attestation_1: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{})},
			wantErr:  "nil attestation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := registryState(t, util.TestConfig(), 64)
			err := blocks.ProcessAttesterSlashings(context.Background(), st, []*ethpb.AttesterSlashing{tt.slashing})
			assert.ErrorContains(t, tt.wantErr, err)
		})
	}
}
