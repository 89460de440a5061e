package cache

import (
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// branchPubkeys holds the registry entries on which one fork disagrees with the shared
// pubkey cache. It is owned by a single epoch context and copied with it.
type branchPubkeys struct {
	index2pubkey map[primitives.ValidatorIndex][fieldparams.BLSPubkeyLength]byte
	pubkey2index map[[fieldparams.BLSPubkeyLength]byte]primitives.ValidatorIndex
}

func newBranchPubkeys() *branchPubkeys {
	return &branchPubkeys{
		index2pubkey: make(map[primitives.ValidatorIndex][fieldparams.BLSPubkeyLength]byte),
		pubkey2index: make(map[[fieldparams.BLSPubkeyLength]byte]primitives.ValidatorIndex),
	}
}

func (b *branchPubkeys) set(idx primitives.ValidatorIndex, pubkey [fieldparams.BLSPubkeyLength]byte) {
	if old, ok := b.index2pubkey[idx]; ok {
		delete(b.pubkey2index, old)
	}
	b.index2pubkey[idx] = pubkey
	b.pubkey2index[pubkey] = idx
}

func (b *branchPubkeys) copy() *branchPubkeys {
	cp := &branchPubkeys{
		index2pubkey: make(map[primitives.ValidatorIndex][fieldparams.BLSPubkeyLength]byte, len(b.index2pubkey)),
		pubkey2index: make(map[[fieldparams.BLSPubkeyLength]byte]primitives.ValidatorIndex, len(b.pubkey2index)),
	}
	for k, v := range b.index2pubkey {
		cp.index2pubkey[k] = v
	}
	for k, v := range b.pubkey2index {
		cp.pubkey2index[k] = v
	}
	return cp
}
