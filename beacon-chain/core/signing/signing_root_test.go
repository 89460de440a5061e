package signing_test

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func testHeader() *ethpb.BeaconBlockHeader {
	return &ethpb.BeaconBlockHeader{
		Slot:          3,
		ProposerIndex: 7,
		ParentRoot:    make([]byte, 32),
		StateRoot:     make([]byte, 32),
		BodyRoot:      make([]byte, 32),
	}
}

func TestSigningRoot_ComputeSigningRoot(t *testing.T) {
	_, err := signing.ComputeSigningRoot(testHeader(), bytesutil.PadTo([]byte{'T', 'E', 'S', 'T'}, 32))
	assert.NoError(t, err, "Could not compute signing root of block header")

	_, err = signing.ComputeSigningRoot(testHeader(), []byte{'T', 'E', 'S', 'T'})
	assert.ErrorContains(t, "domain must be 32 bytes", err)
}

func TestSigningRoot_ComputeSigningRootForRoot_MatchesObject(t *testing.T) {
	d := bytesutil.PadTo([]byte{1, 2, 3}, 32)
	hdr := testHeader()
	want, err := signing.ComputeSigningRoot(hdr, d)
	require.NoError(t, err)
	r, err := hdr.HashTreeRoot()
	require.NoError(t, err)
	got, err := signing.ComputeSigningRootForRoot(r, d)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSigningRoot_ComputeDomain(t *testing.T) {
	tests := []struct {
		domainType [4]byte
		domain     []byte
	}{
		{domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
	}
	for _, tt := range tests {
		d, err := signing.ComputeDomain(tt.domainType, nil, nil)
		require.NoError(t, err)
		assert.DeepEqual(t, tt.domain, d, "Wanted domain version: %#x, got: %#x", tt.domain, d)
	}
}

func TestSigningRoot_Domain(t *testing.T) {
	fork := &ethpb.Fork{
		PreviousVersion: []byte{0, 0, 0, 0},
		CurrentVersion:  []byte{1, 0, 0, 0},
		Epoch:           10,
	}
	gvr := bytesutil.PadTo([]byte{'g'}, 32)
	dt := [4]byte{7, 0, 0, 0}

	before, err := signing.Domain(fork, 9, dt, gvr)
	require.NoError(t, err)
	wantBefore, err := signing.ComputeDomain(dt, fork.PreviousVersion, gvr)
	require.NoError(t, err)
	assert.DeepEqual(t, wantBefore, before)

	after, err := signing.Domain(fork, 10, dt, gvr)
	require.NoError(t, err)
	wantAfter, err := signing.ComputeDomain(dt, fork.CurrentVersion, gvr)
	require.NoError(t, err)
	assert.DeepEqual(t, wantAfter, after)
	assert.DeepNotEqual(t, before, after)

	_, err = signing.Domain(nil, 1, dt, gvr)
	assert.ErrorContains(t, "nil fork", err)
	_, err = signing.Domain(&ethpb.Fork{CurrentVersion: []byte{1}}, 1, dt, gvr)
	assert.ErrorContains(t, "fork version length is not 4 byte", err)
}

func TestSigningRoot_ComputeDomainAndSign(t *testing.T) {
	cfg := params.MainnetConfig()
	priv, err := bls.RandKey()
	require.NoError(t, err)
	st, err := state_native.InitializeFromProtoPhase0(&ethpb.BeaconState{
		GenesisValidatorsRoot: bytesutil.PadTo([]byte{'r'}, 32),
		Fork: &ethpb.Fork{
			PreviousVersion: cfg.GenesisForkVersion,
			CurrentVersion:  cfg.GenesisForkVersion,
		},
	})
	require.NoError(t, err)

	exit := &ethpb.VoluntaryExit{Epoch: 3, ValidatorIndex: 1}
	sig, err := signing.ComputeDomainAndSign(st, primitives.Epoch(3), exit, cfg.DomainVoluntaryExit, priv)
	require.NoError(t, err)

	d, err := signing.Domain(st.Fork(), 3, cfg.DomainVoluntaryExit, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	require.NoError(t, signing.VerifySigningRoot(exit, priv.PublicKey().Marshal(), sig, d))

	other, err := signing.Domain(st.Fork(), 3, cfg.DomainRandao, st.GenesisValidatorsRoot())
	require.NoError(t, err)
	err = signing.VerifySigningRoot(exit, priv.PublicKey().Marshal(), sig, other)
	require.ErrorIs(t, err, signing.ErrSigFailedToVerify)
}

func TestSigningRoot_VerifyBlockSigningRoot(t *testing.T) {
	priv, err := bls.RandKey()
	require.NoError(t, err)
	d, err := signing.ComputeDomain([4]byte{}, nil, nil)
	require.NoError(t, err)
	hdr := testHeader()
	root, err := signing.ComputeSigningRoot(hdr, d)
	require.NoError(t, err)
	sig := priv.Sign(root[:]).Marshal()

	require.NoError(t, signing.VerifyBlockHeaderSigningRoot(hdr, priv.PublicKey().Marshal(), sig, d))
	require.NoError(t, signing.VerifyBlockSigningRoot(priv.PublicKey().Marshal(), sig, d, hdr.HashTreeRoot))

	set, err := signing.BlockSignatureSet(priv.PublicKey().Marshal(), sig, d, hdr.HashTreeRoot)
	require.NoError(t, err)
	assert.Equal(t, root, set.SigningRoot)
	assert.Equal(t, "block signature", set.Description)

	hdr.Slot++
	err = signing.VerifyBlockSigningRoot(priv.PublicKey().Marshal(), sig, d, hdr.HashTreeRoot)
	require.ErrorIs(t, err, signing.ErrSigFailedToVerify)
}

func TestSigningRoot_ComputeForkDigest(t *testing.T) {
	tests := []struct {
		version []byte
		root    [32]byte
		result  [4]byte
	}{
		{version: []byte{'A', 'B', 'C', 'D'}, root: [32]byte{'i', 'o', 'p'}, result: [4]byte{0x69, 0x5c, 0x26, 0x47}},
		{version: []byte{'i', 'm', 'n', 'a'}, root: [32]byte{'z', 'a', 'b'}, result: [4]byte{0x1c, 0x38, 0x84, 0x58}},
		{version: []byte{'b', 'w', 'r', 't'}, root: [32]byte{'r', 'd', 'c'}, result: [4]byte{0x83, 0x34, 0x38, 0x88}},
	}
	for _, tt := range tests {
		digest, err := signing.ComputeForkDigest(tt.version, tt.root[:])
		require.NoError(t, err)
		assert.Equal(t, tt.result, digest, "Wanted domain version: %#x, got: %#x", digest, tt.result)
	}
}

func TestFuzzverifySigningRoot_10000(_ *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	hdr := &ethpb.BeaconBlockHeader{}
	pubkey := [48]byte{}
	sig := [96]byte{}
	domain := [32]byte{}
	var p []byte
	var s []byte
	var d []byte
	for i := 0; i < 10000; i++ {
		fuzzer.Fuzz(hdr)
		fuzzer.Fuzz(&pubkey)
		fuzzer.Fuzz(&sig)
		fuzzer.Fuzz(&domain)
		fuzzer.Fuzz(&p)
		fuzzer.Fuzz(&s)
		fuzzer.Fuzz(&d)
		err := signing.VerifySigningRoot(hdr, pubkey[:], sig[:], domain[:])
		_ = err
		err = signing.VerifySigningRoot(hdr, p, s, d)
		_ = err
	}
}
