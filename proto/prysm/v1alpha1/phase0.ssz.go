package eth

import (
	ssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
)

// IMPORTANT
// The methods in this file are hand-written hash tree roots following the layout fastssz
// generates. Only merkleization is provided; encoding is left to the storage layer.

// ErrNilField is returned when hashing a container with a nil sub-container.
var ErrNilField = errors.New("nil field in ssz container")

const (
	maxProposerSlashings   = 16
	maxAttesterSlashings   = 2
	maxAttestations        = 128
	maxDeposits            = 16
	maxVoluntaryExits      = 16
	maxValidatorsPerCommit = 2048
	depositProofLength     = fieldparams.DepositProofLength
)

func putRoot(hh *ssz.Hasher, b []byte) error {
	if len(b) != fieldparams.RootLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(b)
	return nil
}

func putFixed(hh *ssz.Hasher, b []byte, size int) error {
	if len(b) != size {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(b)
	return nil
}

// HashTreeRoot ssz hashes the Fork object
func (f *Fork) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the Fork object with a hasher
func (f *Fork) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, f.PreviousVersion, fieldparams.VersionLength); err != nil {
		return
	}
	if err = putFixed(hh, f.CurrentVersion, fieldparams.VersionLength); err != nil {
		return
	}
	hh.PutUint64(uint64(f.Epoch))
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the ForkData object
func (f *ForkData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the ForkData object with a hasher
func (f *ForkData) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, f.CurrentVersion, fieldparams.VersionLength); err != nil {
		return
	}
	if err = putRoot(hh, f.GenesisValidatorsRoot); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the SigningData object
func (s *SigningData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SigningData object with a hasher
func (s *SigningData) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putRoot(hh, s.ObjectRoot); err != nil {
		return
	}
	if err = putRoot(hh, s.Domain); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	if err = putRoot(hh, c.Root); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the Validator object
func (v *Validator) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the Validator object with a hasher
func (v *Validator) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, v.PublicKey, fieldparams.BLSPubkeyLength); err != nil {
		return
	}
	if err = putRoot(hh, v.WithdrawalCredentials); err != nil {
		return
	}
	hh.PutUint64(v.EffectiveBalance)
	hh.PutBool(v.Slashed)
	hh.PutUint64(uint64(v.ActivationEligibilityEpoch))
	hh.PutUint64(uint64(v.ActivationEpoch))
	hh.PutUint64(uint64(v.ExitEpoch))
	hh.PutUint64(uint64(v.WithdrawableEpoch))
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the Eth1Data object
func (e *Eth1Data) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the Eth1Data object with a hasher
func (e *Eth1Data) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putRoot(hh, e.DepositRoot); err != nil {
		return
	}
	hh.PutUint64(e.DepositCount)
	if err = putRoot(hh, e.BlockHash); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object
func (b *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher
func (b *BeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	if err = putRoot(hh, b.ParentRoot); err != nil {
		return
	}
	if err = putRoot(hh, b.StateRoot); err != nil {
		return
	}
	if err = putRoot(hh, b.BodyRoot); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the SignedBeaconBlockHeader object
func (s *SignedBeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlockHeader object with a hasher
func (s *SignedBeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if s.Header == nil {
		return ErrNilField
	}
	if err = s.Header.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putFixed(hh, s.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the AttestationData object
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher
func (a *AttestationData) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	hh.PutUint64(uint64(a.Slot))
	hh.PutUint64(uint64(a.CommitteeIndex))
	if err = putRoot(hh, a.BeaconBlockRoot); err != nil {
		return
	}
	if a.Source == nil || a.Target == nil {
		return ErrNilField
	}
	if err = a.Source.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = a.Target.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the Attestation object
func (a *Attestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the Attestation object with a hasher
func (a *Attestation) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if len(a.AggregationBits) == 0 {
		return ssz.ErrBytesLength
	}
	hh.PutBitlist(a.AggregationBits, maxValidatorsPerCommit)
	if a.Data == nil {
		return ErrNilField
	}
	if err = a.Data.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putFixed(hh, a.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the IndexedAttestation object
func (i *IndexedAttestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(i)
}

// HashTreeRootWith ssz hashes the IndexedAttestation object with a hasher
func (i *IndexedAttestation) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	{
		if len(i.AttestingIndices) > maxValidatorsPerCommit {
			return ssz.ErrListTooBig
		}
		subIndx := hh.Index()
		for _, v := range i.AttestingIndices {
			hh.AppendUint64(v)
		}
		hh.FillUpTo32()
		numItems := uint64(len(i.AttestingIndices))
		hh.MerkleizeWithMixin(subIndx, numItems, (maxValidatorsPerCommit*8+31)/32)
	}
	if i.Data == nil {
		return ErrNilField
	}
	if err = i.Data.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putFixed(hh, i.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the PendingAttestation object
func (p *PendingAttestation) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the PendingAttestation object with a hasher
func (p *PendingAttestation) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if len(p.AggregationBits) == 0 {
		return ssz.ErrBytesLength
	}
	hh.PutBitlist(p.AggregationBits, maxValidatorsPerCommit)
	if p.Data == nil {
		return ErrNilField
	}
	if err = p.Data.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.PutUint64(uint64(p.InclusionDelay))
	hh.PutUint64(uint64(p.ProposerIndex))
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the ProposerSlashing object
func (p *ProposerSlashing) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the ProposerSlashing object with a hasher
func (p *ProposerSlashing) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if p.Header_1 == nil || p.Header_2 == nil {
		return ErrNilField
	}
	if err = p.Header_1.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = p.Header_2.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the AttesterSlashing object
func (a *AttesterSlashing) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttesterSlashing object with a hasher
func (a *AttesterSlashing) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if a.Attestation_1 == nil || a.Attestation_2 == nil {
		return ErrNilField
	}
	if err = a.Attestation_1.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = a.Attestation_2.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the DepositData object
func (d *DepositData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the DepositData object with a hasher
func (d *DepositData) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, d.PublicKey, fieldparams.BLSPubkeyLength); err != nil {
		return
	}
	if err = putRoot(hh, d.WithdrawalCredentials); err != nil {
		return
	}
	hh.PutUint64(d.Amount)
	if err = putFixed(hh, d.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the DepositMessage object
func (d *DepositMessage) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the DepositMessage object with a hasher
func (d *DepositMessage) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, d.PublicKey, fieldparams.BLSPubkeyLength); err != nil {
		return
	}
	if err = putRoot(hh, d.WithdrawalCredentials); err != nil {
		return
	}
	hh.PutUint64(d.Amount)
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the Deposit object
func (d *Deposit) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the Deposit object with a hasher
func (d *Deposit) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	{
		if len(d.Proof) != depositProofLength {
			return ssz.ErrVectorLength
		}
		subIndx := hh.Index()
		for _, p := range d.Proof {
			if len(p) != fieldparams.RootLength {
				return ssz.ErrBytesLength
			}
			hh.Append(p)
		}
		hh.Merkleize(subIndx)
	}
	if d.Data == nil {
		return ErrNilField
	}
	if err = d.Data.HashTreeRootWith(hh); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the VoluntaryExit object
func (v *VoluntaryExit) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the VoluntaryExit object with a hasher
func (v *VoluntaryExit) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	hh.PutUint64(uint64(v.Epoch))
	hh.PutUint64(uint64(v.ValidatorIndex))
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the SignedVoluntaryExit object
func (s *SignedVoluntaryExit) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedVoluntaryExit object with a hasher
func (s *SignedVoluntaryExit) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if s.Exit == nil {
		return ErrNilField
	}
	if err = s.Exit.HashTreeRootWith(hh); err != nil {
		return
	}
	if err = putFixed(hh, s.Signature, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the HistoricalBatch object
func (h *HistoricalBatch) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the HistoricalBatch object with a hasher
func (h *HistoricalBatch) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	for _, roots := range [][][]byte{h.BlockRoots, h.StateRoots} {
		if len(roots) != fieldparams.BlockRootsLength {
			return ssz.ErrVectorLength
		}
		subIndx := hh.Index()
		for _, r := range roots {
			if len(r) != fieldparams.RootLength {
				return ssz.ErrBytesLength
			}
			hh.Append(r)
		}
		hh.Merkleize(subIndx)
	}
	hh.Merkleize(indx)
	return
}

// hashOperations merkleizes the operation lists shared by every block body version.
func hashOperations(
	hh *ssz.Hasher,
	proposerSlashings []*ProposerSlashing,
	attesterSlashings []*AttesterSlashing,
	attestations []*Attestation,
	deposits []*Deposit,
	exits []*SignedVoluntaryExit,
) error {
	if len(proposerSlashings) > maxProposerSlashings || len(attesterSlashings) > maxAttesterSlashings ||
		len(attestations) > maxAttestations || len(deposits) > maxDeposits || len(exits) > maxVoluntaryExits {
		return ssz.ErrListTooBig
	}
	type hashable interface {
		HashTreeRootWith(hh *ssz.Hasher) error
	}
	list := func(items []hashable, limit uint64) error {
		subIndx := hh.Index()
		for _, item := range items {
			if err := item.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, uint64(len(items)), limit)
		return nil
	}
	ps := make([]hashable, len(proposerSlashings))
	for i, v := range proposerSlashings {
		ps[i] = v
	}
	as := make([]hashable, len(attesterSlashings))
	for i, v := range attesterSlashings {
		as[i] = v
	}
	atts := make([]hashable, len(attestations))
	for i, v := range attestations {
		atts[i] = v
	}
	deps := make([]hashable, len(deposits))
	for i, v := range deposits {
		deps[i] = v
	}
	ex := make([]hashable, len(exits))
	for i, v := range exits {
		ex[i] = v
	}
	if err := list(ps, maxProposerSlashings); err != nil {
		return err
	}
	if err := list(as, maxAttesterSlashings); err != nil {
		return err
	}
	if err := list(atts, maxAttestations); err != nil {
		return err
	}
	if err := list(deps, maxDeposits); err != nil {
		return err
	}
	return list(ex, maxVoluntaryExits)
}

// HashTreeRoot ssz hashes the BeaconBlockBody object
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBody object with a hasher
func (b *BeaconBlockBody) HashTreeRootWith(hh *ssz.Hasher) (err error) {
	indx := hh.Index()
	if err = putFixed(hh, b.RandaoReveal, fieldparams.BLSSignatureLength); err != nil {
		return
	}
	if b.Eth1Data == nil {
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
	hh.Merkleize(indx)
	return
}

// HashTreeRoot ssz hashes the BeaconBlock object
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlock object with a hasher
func (b *BeaconBlock) HashTreeRootWith(hh *ssz.Hasher) (err error) {
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

// HashTreeRoot ssz hashes the SignedBeaconBlock object
func (s *SignedBeaconBlock) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlock object with a hasher
func (s *SignedBeaconBlock) HashTreeRootWith(hh *ssz.Hasher) (err error) {
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
