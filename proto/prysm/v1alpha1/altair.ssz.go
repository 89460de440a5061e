package eth

import (
	ssz "github.com/ferranbt/fastssz"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
)

// HashTreeRoot ssz hashes the SyncAggregate object
func (s *SyncAggregate) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SyncAggregate object with a hasher
func (s *SyncAggregate) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, s.SyncCommitteeBits, fieldparams.SyncAggregateSyncCommitteeBytesLength); err != nil {
		return
	}
	if err = putFixed(hh, s.SyncCommitteeSignature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the SyncCommittee object
func (s *SyncCommittee) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SyncCommittee object with a hasher
func (s *SyncCommittee) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	{
		if len(s.Pubkeys) != fieldparams.SyncCommitteeLength {
			return ssz.ErrVectorLength
		}
		subIndx := hh.Index()
		for _, pk := range s.Pubkeys {
			if err = putFixed(hh, pk, fieldparams.BLSPubkeyLength); err != nil {
				return
			}
		}
		hh.Merkleize(subIndx)
	}
	if err = putFixed(hh, s.AggregatePubkey, fieldparams.BLSPubkeyLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the BeaconBlockBodyAltair object
func (b *BeaconBlockBodyAltair) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBodyAltair object with a hasher
func (b *BeaconBlockBodyAltair) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, b.RandaoReveal, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	if b.Eth1Data == nil || b.SyncAggregate == nil {
		return ErrNilField
	}
	if err = b.Eth1Data.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putRoot(hh, b.Graffiti); err != nil {
		return
	}
	if err = hashOperations(hh, b.ProposerSlashings, b.AttesterSlashings, b.Attestations, b.Deposits, b.VoluntaryExits); err != nil {
		return
	}
	if err = b.SyncAggregate.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the BeaconBlockAltair object
func (b *BeaconBlockAltair) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockAltair object with a hasher
func (b *BeaconBlockAltair) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	if err = putRoot(hh, b.ParentRoot); err != nil {
		return
	}
	if err = putRoot(hh, b.StateRoot); err != nil {
		return
	}
	if b.Body == nil {
		return ErrNilField
	}
	if err = b.Body.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the SignedBeaconBlockAltair object
func (s *SignedBeaconBlockAltair) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlockAltair object with a hasher
func (s *SignedBeaconBlockAltair) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if s.Block == nil {
		return ErrNilField
	}
	if err = s.Block.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putFixed(hh, s.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}
