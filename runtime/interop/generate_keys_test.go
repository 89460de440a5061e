package interop_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestDeterministicallyGenerateKeys_KnownVector(t *testing.T) {
	priv, pub, err := interop.DeterministicallyGenerateKeys(0, 2)
	require.NoError(t, err)
	require.Equal(t, 2, len(priv))
	want, err := hexutil.Decode("0x25295f0d1d592a90b333e26e85149708208e9f8e8bc18f6c77bd62f8ad7a6866")
	require.NoError(t, err)
	assert.DeepEqual(t, want, priv[0].Marshal())
	assert.DeepEqual(t, priv[0].PublicKey().Marshal(), pub[0].Marshal())
	assert.NotEqual(t, hexutil.Encode(priv[0].Marshal()), hexutil.Encode(priv[1].Marshal()))
}

func TestDeterministicallyGenerateKeys_StartIndex(t *testing.T) {
	all, _, err := interop.DeterministicallyGenerateKeys(0, 4)
	require.NoError(t, err)
	tail, _, err := interop.DeterministicallyGenerateKeys(2, 2)
	require.NoError(t, err)
	assert.DeepEqual(t, all[2].Marshal(), tail[0].Marshal())
	assert.DeepEqual(t, all[3].Marshal(), tail[1].Marshal())
}

func TestDeterministicDeposits_ValidProofsAndSignatures(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	deposits, keys, eth1Data, err := interop.DeterministicDeposits(cfg, 8)
	require.NoError(t, err)
	require.Equal(t, 8, len(deposits))
	require.Equal(t, 8, len(keys))
	assert.Equal(t, uint64(8), eth1Data.DepositCount)
	for i, d := range deposits {
		leaf, err := d.Data.HashTreeRoot()
		require.NoError(t, err)
		assert.Equal(t, true, trie.VerifyProof(eth1Data.DepositRoot, leaf[:], uint64(i), d.Proof, cfg.DepositContractTreeDepth))
		valid, err := blocks.IsValidDepositSignature(cfg, d.Data)
		require.NoError(t, err)
		assert.Equal(t, true, valid)
		assert.Equal(t, cfg.MaxEffectiveBalance, d.Data.Amount)
		assert.Equal(t, cfg.BLSWithdrawalPrefixByte, d.Data.WithdrawalCredentials[0])
	}
}
