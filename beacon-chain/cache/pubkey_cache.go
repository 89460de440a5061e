package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
)

// PubkeyCache maps validator public keys to registry indices and back. It only ever grows,
// so one instance is shared by every epoch context cloned from the same chain. It may hold
// keys that a given state has not seen yet but a later state has. Entries a fork disagrees
// on are kept by that fork's epoch context, see branchPubkeys.
type PubkeyCache struct {
	lock         sync.RWMutex
	pubkey2index map[[fieldparams.BLSPubkeyLength]byte]primitives.ValidatorIndex
	raw          [][fieldparams.BLSPubkeyLength]byte
	// decoded keys, filled lazily by Pubkey.
	index2pubkey []bls.PublicKey
}

// NewPubkeyCache returns an empty cache.
func NewPubkeyCache() *PubkeyCache {
	return &PubkeyCache{
		pubkey2index: make(map[[fieldparams.BLSPubkeyLength]byte]primitives.ValidatorIndex),
	}
}

// Add records pubkey at idx. It returns ErrPubkeyConflict when the cache already holds a
// different key at idx, already maps pubkey to another index, or idx would leave a gap.
// The caller keeps a conflicting entry on its own branch.
func (c *PubkeyCache) Add(idx primitives.ValidatorIndex, pubkey [fieldparams.BLSPubkeyLength]byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.add(idx, pubkey)
}

func (c *PubkeyCache) add(idx primitives.ValidatorIndex, pubkey [fieldparams.BLSPubkeyLength]byte) error {
	n := primitives.ValidatorIndex(len(c.raw))
	switch {
	case idx < n:
		if c.raw[idx] != pubkey {
			return errors.Wrapf(ErrPubkeyConflict, "validator %d already cached with a different public key", idx)
		}
		return nil
	case idx > n:
		return errors.Wrapf(ErrPubkeyConflict, "cannot cache validator %d before validator %d", idx, n)
	}
	c.raw = append(c.raw, pubkey)
	c.index2pubkey = append(c.index2pubkey, nil)
	if other, ok := c.pubkey2index[pubkey]; ok {
		// The slot is taken so later indices stay contiguous, the reverse mapping is not.
		return errors.Wrapf(ErrPubkeyConflict, "public key of validator %d already cached at %d", idx, other)
	}
	c.pubkey2index[pubkey] = idx
	return nil
}

// Sync adds every registry entry of st the cache does not know yet and returns the indices
// whose key in st conflicts with the cache.
func (c *PubkeyCache) Sync(st state.ReadOnlyValidators) ([]primitives.ValidatorIndex, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	var conflicts []primitives.ValidatorIndex
	for i := 0; i < st.NumValidators(); i++ {
		idx := primitives.ValidatorIndex(i)
		err := c.add(idx, st.PubkeyAtIndex(idx))
		switch {
		case errors.Is(err, ErrPubkeyConflict):
			conflicts = append(conflicts, idx)
		case err != nil:
			return nil, err
		}
	}
	return conflicts, nil
}

// ValidatorIndex returns the registry index of pubkey.
func (c *PubkeyCache) ValidatorIndex(pubkey [fieldparams.BLSPubkeyLength]byte) (primitives.ValidatorIndex, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	idx, ok := c.pubkey2index[pubkey]
	return idx, ok
}

// Pubkey returns the decoded public key of validator idx.
func (c *PubkeyCache) Pubkey(idx primitives.ValidatorIndex) (bls.PublicKey, error) {
	c.lock.RLock()
	if uint64(idx) >= uint64(len(c.raw)) {
		c.lock.RUnlock()
		return nil, errors.Errorf("validator %d is not in the pubkey cache", idx)
	}
	pub := c.index2pubkey[idx]
	raw := c.raw[idx]
	c.lock.RUnlock()
	if pub != nil {
		return pub, nil
	}

	pub, err := bls.PublicKeyFromBytes(raw[:])
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode public key of validator %d", idx)
	}
	c.lock.Lock()
	c.index2pubkey[idx] = pub
	c.lock.Unlock()
	return pub, nil
}

// Len is the number of cached validators.
func (c *PubkeyCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.raw)
}
