// Package interop generates the deterministic validator keys, deposits and genesis
// states of the interop mocked start, used by tests and the stbench tool.
package interop

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls/common"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// DeterministicallyGenerateKeys creates BLS private keys using a fixed curve order according to
// the algorithm specified in the interop mock start section found here:
// https://github.com/ethereum/eth2.0-pm/blob/a085c9870f3956d6228ed2a40cd37f0c6580ecd7/interop/mocked_start/README.md
func DeterministicallyGenerateKeys(startIndex, numKeys uint64) ([]bls.SecretKey, []bls.PublicKey, error) {
	privKeys := make([]bls.SecretKey, numKeys)
	pubKeys := make([]bls.PublicKey, numKeys)
	order, ok := new(big.Int).SetString(common.CurveOrder, 10)
	if !ok {
		return nil, nil, errors.New("could not set bls curve order as big int")
	}
	for i := startIndex; i < startIndex+numKeys; i++ {
		enc := make([]byte, 32)
		binary.LittleEndian.PutUint32(enc, uint32(i))
		h := hash.Hash(enc)
		// Reverse byte order to big endian for use with big ints.
		num := new(big.Int).SetBytes(bytesutil.ReverseByteOrder(h[:]))
		num = num.Mod(num, order)
		// Pad the key at the start with zero bytes to make it into a 32 byte key.
		priv, err := bls.SecretKeyFromBytes(num.FillBytes(make([]byte, 32)))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not create bls secret key at index %d from raw bytes", i)
		}
		privKeys[i-startIndex] = priv
		pubKeys[i-startIndex] = priv.PublicKey()
	}
	return privKeys, pubKeys, nil
}
