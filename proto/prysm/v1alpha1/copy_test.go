package eth_test

import (
	"encoding/hex"
	"testing"

	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
)

func genAttestationData() *ethpb.AttestationData {
	return &ethpb.AttestationData{
		Slot:            5,
		CommitteeIndex:  1,
		BeaconBlockRoot: bytesutil.PadTo([]byte("block"), 32),
		Source:          &ethpb.Checkpoint{Epoch: 1, Root: bytesutil.PadTo([]byte("source"), 32)},
		Target:          &ethpb.Checkpoint{Epoch: 2, Root: bytesutil.PadTo([]byte("target"), 32)},
	}
}

func TestCopyAttestation(t *testing.T) {
	att := &ethpb.Attestation{
		AggregationBits: bitfield.NewBitlist(8),
		Data:            genAttestationData(),
		Signature:       make([]byte, fieldparams.BLSSignatureLength),
	}
	got := att.Copy()
	assert.DeepEqual(t, att, got)

	got.Data.Source.Root[0] = 'x'
	got.AggregationBits.SetBitAt(1, true)
	assert.Equal(t, byte('s'), att.Data.Source.Root[0])
	assert.Equal(t, false, att.AggregationBits.BitAt(1))
}

func TestCopyValidator(t *testing.T) {
	v := &ethpb.Validator{
		PublicKey:             make([]byte, fieldparams.BLSPubkeyLength),
		WithdrawalCredentials: make([]byte, 32),
		EffectiveBalance:      32,
		ExitEpoch:             7,
	}
	got := v.Copy()
	assert.DeepEqual(t, v, got)
	got.PublicKey[0] = 1
	assert.Equal(t, byte(0), v.PublicKey[0])

	var nilVal *ethpb.Validator
	assert.Equal(t, (*ethpb.Validator)(nil), nilVal.Copy())
}

func TestCopyBeaconBlockAltair(t *testing.T) {
	blk := &ethpb.SignedBeaconBlockAltair{
		Block: &ethpb.BeaconBlockAltair{
			Slot:       3,
			ParentRoot: make([]byte, 32),
			StateRoot:  make([]byte, 32),
			Body: &ethpb.BeaconBlockBodyAltair{
				RandaoReveal: make([]byte, fieldparams.BLSSignatureLength),
				Eth1Data:     &ethpb.Eth1Data{DepositRoot: make([]byte, 32), BlockHash: make([]byte, 32)},
				Graffiti:     make([]byte, 32),
				Attestations: []*ethpb.Attestation{{AggregationBits: bitfield.NewBitlist(4), Data: genAttestationData()}},
				SyncAggregate: &ethpb.SyncAggregate{
					SyncCommitteeBits:      make([]byte, fieldparams.SyncAggregateSyncCommitteeBytesLength),
					SyncCommitteeSignature: make([]byte, fieldparams.BLSSignatureLength),
				},
			},
		},
		Signature: make([]byte, fieldparams.BLSSignatureLength),
	}
	got := blk.Copy()
	assert.DeepEqual(t, blk, got)

	got.Block.Body.Attestations[0].Data.Slot = 99
	got.Block.Body.SyncAggregate.SyncCommitteeBits[0] = 0xff
	assert.Equal(t, uint64(5), uint64(blk.Block.Body.Attestations[0].Data.Slot))
	assert.Equal(t, byte(0), blk.Block.Body.SyncAggregate.SyncCommitteeBits[0])
}

func TestCopyBeaconState(t *testing.T) {
	st := &ethpb.BeaconStateAltair{
		Balances:                   []uint64{1, 2},
		PreviousEpochParticipation: []byte{1, 0},
		InactivityScores:           []uint64{0, 4},
		BlockRoots:                 [][]byte{make([]byte, 32)},
		FinalizedCheckpoint:        &ethpb.Checkpoint{Epoch: 3, Root: make([]byte, 32)},
	}
	got := st.Copy()
	assert.DeepEqual(t, st, got)

	got.Balances[0] = 10
	got.InactivityScores[1] = 0
	got.BlockRoots[0][0] = 1
	got.FinalizedCheckpoint.Epoch = 9
	assert.Equal(t, uint64(1), st.Balances[0])
	assert.Equal(t, uint64(4), st.InactivityScores[1])
	assert.Equal(t, byte(0), st.BlockRoots[0][0])
	assert.Equal(t, uint64(3), uint64(st.FinalizedCheckpoint.Epoch))
}

func TestCheckpoint_HashTreeRoot(t *testing.T) {
	root, err := (&ethpb.Checkpoint{Root: make([]byte, 32)}).HashTreeRoot()
	require.NoError(t, err)
	// Root of two zero chunks.
	want, err := hex.DecodeString("f5a5fd42d16a20302798ef6ed309979b43003d2320d9f0e8ea9831a92759fb4b")
	require.NoError(t, err)
	assert.DeepEqual(t, want, root[:])

	_, err = (&ethpb.Checkpoint{Root: []byte{1}}).HashTreeRoot()
	require.NotNil(t, err)
}

func TestCheckpoint_Equal(t *testing.T) {
	a := &ethpb.Checkpoint{Epoch: 1, Root: make([]byte, 32)}
	assert.Equal(t, true, a.Equal(a.Copy()))
	b := a.Copy()
	b.Root[31] = 1
	assert.Equal(t, false, a.Equal(b))
}

func TestBeaconBlockHeader_HashTreeRootChanges(t *testing.T) {
	h := &ethpb.BeaconBlockHeader{
		ParentRoot: make([]byte, 32),
		StateRoot:  make([]byte, 32),
		BodyRoot:   make([]byte, 32),
	}
	r1, err := h.HashTreeRoot()
	require.NoError(t, err)
	h2 := h.Copy()
	h2.ProposerIndex = 1
	r2, err := h2.HashTreeRoot()
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
}
