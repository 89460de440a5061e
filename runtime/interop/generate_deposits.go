package interop

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// DepositDataFromKeys generates a list of deposit data items of MAX_EFFECTIVE_BALANCE from a
// set of BLS validator keys, together with their hash tree roots.
func DepositDataFromKeys(cfg *params.BeaconChainConfig, privKeys []bls.SecretKey, pubKeys []bls.PublicKey) ([]*ethpb.DepositData, [][]byte, error) {
	if len(privKeys) != len(pubKeys) {
		return nil, nil, errors.Errorf("mismatched key counts: %d private and %d public keys", len(privKeys), len(pubKeys))
	}
	dataList := make([]*ethpb.DepositData, len(privKeys))
	dataRoots := make([][]byte, len(privKeys))
	for i := range privKeys {
		data, err := CreateDepositData(cfg, privKeys[i], pubKeys[i], cfg.MaxEffectiveBalance)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not create deposit data for key: %#x", pubKeys[i].Marshal())
		}
		h, err := data.HashTreeRoot()
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not hash tree root deposit data item")
		}
		dataList[i] = data
		dataRoots[i] = h[:]
	}
	return dataList, dataRoots, nil
}

// CreateDepositData builds deposit data of amount Gwei with a BLS withdrawal credential, signed
// by privKey under the fork agnostic deposit domain.
func CreateDepositData(cfg *params.BeaconChainConfig, privKey bls.SecretKey, pubKey bls.PublicKey, amount uint64) (*ethpb.DepositData, error) {
	data := &ethpb.DepositData{
		PublicKey:             pubKey.Marshal(),
		WithdrawalCredentials: WithdrawalCredentialsHash(cfg, privKey),
		Amount:                amount,
	}
	domain, err := signing.ComputeDomain(cfg.DomainDeposit, cfg.GenesisForkVersion, nil)
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRoot(&ethpb.DepositMessage{
		PublicKey:             data.PublicKey,
		WithdrawalCredentials: data.WithdrawalCredentials,
		Amount:                data.Amount,
	}, domain)
	if err != nil {
		return nil, err
	}
	data.Signature = privKey.Sign(root[:]).Marshal()
	return data, nil
}

// WithdrawalCredentialsHash forms a 32 byte hash of the withdrawal public
// address.
//
// The specification is as follows:
//
//	withdrawal_credentials[:1] == BLS_WITHDRAWAL_PREFIX_BYTE
//	withdrawal_credentials[1:] == hash(withdrawal_pubkey)[1:]
//
// where withdrawal_credentials is of type bytes32.
func WithdrawalCredentialsHash(cfg *params.BeaconChainConfig, withdrawalKey bls.SecretKey) []byte {
	h := hash.Hash(withdrawalKey.PublicKey().Marshal())
	return append([]byte{cfg.BLSWithdrawalPrefixByte}, h[1:]...)[:32]
}

// GenerateDepositsFromData takes in deposit data and the deposit tree holding their roots,
// and returns the deposits with their Merkle proofs against the tree.
func GenerateDepositsFromData(depositDataItems []*ethpb.DepositData, depositTree *trie.DepositTree) ([]*ethpb.Deposit, error) {
	deposits := make([]*ethpb.Deposit, len(depositDataItems))
	for i, item := range depositDataItems {
		proof, err := depositTree.Proof(uint64(i))
		if err != nil {
			return nil, errors.Wrapf(err, "could not generate proof for deposit %d", i)
		}
		deposits[i] = &ethpb.Deposit{
			Proof: proof,
			Data:  item,
		}
	}
	return deposits, nil
}

// DeterministicDeposits generates numDeposits interop deposits with proofs, the matching keys
// and the eth1 data committing to them.
func DeterministicDeposits(cfg *params.BeaconChainConfig, numDeposits uint64) ([]*ethpb.Deposit, []bls.SecretKey, *ethpb.Eth1Data, error) {
	privKeys, pubKeys, err := DeterministicallyGenerateKeys(0 /*startIndex*/, numDeposits)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "could not generate keys")
	}
	dataList, dataRoots, err := DepositDataFromKeys(cfg, privKeys, pubKeys)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "could not generate deposit data from keys")
	}
	depositTree, err := trie.NewDepositTree(dataRoots, cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "could not generate deposit tree")
	}
	deposits, err := GenerateDepositsFromData(dataList, depositTree)
	if err != nil {
		return nil, nil, nil, err
	}
	root := depositTree.Root()
	eth1Data := &ethpb.Eth1Data{
		DepositRoot:  root[:],
		DepositCount: depositTree.Count(),
		BlockHash:    make([]byte, 32),
	}
	return deposits, privKeys, eth1Data, nil
}
