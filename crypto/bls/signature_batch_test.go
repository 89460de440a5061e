package bls_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls/common"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func singleSets(t *testing.T, n int) []*bls.SignatureSet {
	sets := make([]*bls.SignatureSet, n)
	for i := 0; i < n; i++ {
		sk, err := bls.RandKey()
		require.NoError(t, err)
		root := [32]byte{byte(i), 'r'}
		sets[i] = bls.NewSingleSet(sk.PublicKey(), root, sk.Sign(root[:]).Marshal(), fmt.Sprintf("set %d", i))
	}
	return sets
}

func TestSignatureSet_SingleAndAggregate(t *testing.T) {
	root := [32]byte{'m', 's', 'g'}
	var pubs []bls.PublicKey
	var sigs []common.Signature
	for i := 0; i < 4; i++ {
		sk, err := bls.RandKey()
		require.NoError(t, err)
		pubs = append(pubs, sk.PublicKey())
		sigs = append(sigs, sk.Sign(root[:]))
	}
	agg := bls.NewAggregateSet(pubs, root, bls.AggregateSignatures(sigs).Marshal(), "attestation")
	ok, err := agg.Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, "aggregate", agg.Kind.String())

	single := bls.NewSingleSet(pubs[0], root, sigs[1].Marshal(), "wrong key")
	ok, err = single.Verify()
	require.NoError(t, err)
	assert.Equal(t, false, ok)
}

func TestSignatureBatch_Verify(t *testing.T) {
	batch := bls.NewBatch().Add(singleSets(t, 5)...)
	assert.Equal(t, 5, batch.Len())
	ok, err := batch.Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	ok, err = bls.NewBatch().Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)
}

func TestSignatureBatch_VerifyParallel(t *testing.T) {
	sets := singleSets(t, 9)
	batch := bls.NewBatch().Add(sets...)
	ok, err := batch.VerifyParallel(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	sets[7].Signature = sets[2].Signature
	ok, err = batch.VerifyParallel(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, false, ok)
}

func TestSignatureBatch_VerifyVerbosely(t *testing.T) {
	sets := singleSets(t, 3)
	sets[1].Signature = sets[0].Signature
	batch := bls.NewBatch().Add(sets...)
	ok, err := batch.VerifyVerbosely()
	assert.Equal(t, false, ok)
	require.ErrorContains(t, "signature 'set 1' is invalid", err)
}

func TestSignatureBatch_Join(t *testing.T) {
	a := bls.NewBatch().Add(singleSets(t, 2)...)
	b := bls.NewBatch().Add(singleSets(t, 1)...)
	a.Join(b).Add(nil)
	assert.Equal(t, 3, a.Len())
	assert.DeepEqual(t, []string{"set 0", "set 1", "set 0"}, a.Descriptions())
}

func TestPublicKeyFromBytes_Errors(t *testing.T) {
	_, err := bls.PublicKeyFromBytes([]byte{1, 2})
	require.ErrorContains(t, "public key must be 48 bytes", err)
	_, err = bls.PublicKeyFromBytes(common.InfinitePublicKey[:])
	require.ErrorIs(t, err, common.ErrInfinitePubKey)
}

func TestSecretKeyFromBytes_RoundTrip(t *testing.T) {
	sk, err := bls.RandKey()
	require.NoError(t, err)
	again, err := bls.SecretKeyFromBytes(sk.Marshal())
	require.NoError(t, err)
	assert.DeepEqual(t, sk.PublicKey().Marshal(), again.PublicKey().Marshal())
	_, err = bls.SecretKeyFromBytes(make([]byte, 32))
	require.NotNil(t, err)
}
