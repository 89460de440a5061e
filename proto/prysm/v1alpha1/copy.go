package eth

import (
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// Copy --
func (f *Fork) Copy() *Fork {
	if f == nil {
		return nil
	}
	return &Fork{
		PreviousVersion: bytesutil.SafeCopyBytes(f.PreviousVersion),
		CurrentVersion:  bytesutil.SafeCopyBytes(f.CurrentVersion),
		Epoch:           f.Epoch,
	}
}

// Copy --
func (v *Validator) Copy() *Validator {
	if v == nil {
		return nil
	}
	return &Validator{
		PublicKey:                  bytesutil.SafeCopyBytes(v.PublicKey),
		WithdrawalCredentials:      bytesutil.SafeCopyBytes(v.WithdrawalCredentials),
		EffectiveBalance:           v.EffectiveBalance,
		Slashed:                    v.Slashed,
		ActivationEligibilityEpoch: v.ActivationEligibilityEpoch,
		ActivationEpoch:            v.ActivationEpoch,
		ExitEpoch:                  v.ExitEpoch,
		WithdrawableEpoch:          v.WithdrawableEpoch,
	}
}

// Copy --
func (e *Eth1Data) Copy() *Eth1Data {
	if e == nil {
		return nil
	}
	return &Eth1Data{
		DepositRoot:  bytesutil.SafeCopyBytes(e.DepositRoot),
		DepositCount: e.DepositCount,
		BlockHash:    bytesutil.SafeCopyBytes(e.BlockHash),
	}
}

// Copy --
func (b *BeaconBlockHeader) Copy() *BeaconBlockHeader {
	if b == nil {
		return nil
	}
	return &BeaconBlockHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(b.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(b.StateRoot),
		BodyRoot:      bytesutil.SafeCopyBytes(b.BodyRoot),
	}
}

// Copy --
func (s *SignedBeaconBlockHeader) Copy() *SignedBeaconBlockHeader {
	if s == nil {
		return nil
	}
	return &SignedBeaconBlockHeader{
		Header:    s.Header.Copy(),
		Signature: bytesutil.SafeCopyBytes(s.Signature),
	}
}

// Copy --
func (p *ProposerSlashing) Copy() *ProposerSlashing {
	if p == nil {
		return nil
	}
	return &ProposerSlashing{
		Header_1: p.Header_1.Copy(),
		Header_2: p.Header_2.Copy(),
	}
}

// Copy --
func (d *DepositData) Copy() *DepositData {
	if d == nil {
		return nil
	}
	return &DepositData{
		PublicKey:             bytesutil.SafeCopyBytes(d.PublicKey),
		WithdrawalCredentials: bytesutil.SafeCopyBytes(d.WithdrawalCredentials),
		Amount:                d.Amount,
		Signature:             bytesutil.SafeCopyBytes(d.Signature),
	}
}

// Copy --
func (d *Deposit) Copy() *Deposit {
	if d == nil {
		return nil
	}
	return &Deposit{
		Proof: bytesutil.SafeCopy2dBytes(d.Proof),
		Data:  d.Data.Copy(),
	}
}

// Copy --
func (s *SignedVoluntaryExit) Copy() *SignedVoluntaryExit {
	if s == nil {
		return nil
	}
	var exit *VoluntaryExit
	if s.Exit != nil {
		exit = &VoluntaryExit{Epoch: s.Exit.Epoch, ValidatorIndex: s.Exit.ValidatorIndex}
	}
	return &SignedVoluntaryExit{
		Exit:      exit,
		Signature: bytesutil.SafeCopyBytes(s.Signature),
	}
}

// Copy --
func (s *SyncCommittee) Copy() *SyncCommittee {
	if s == nil {
		return nil
	}
	return &SyncCommittee{
		Pubkeys:         bytesutil.SafeCopy2dBytes(s.Pubkeys),
		AggregatePubkey: bytesutil.SafeCopyBytes(s.AggregatePubkey),
	}
}

// Copy --
func (s *SyncAggregate) Copy() *SyncAggregate {
	if s == nil {
		return nil
	}
	return &SyncAggregate{
		SyncCommitteeBits:      bytesutil.SafeCopyBytes(s.SyncCommitteeBits),
		SyncCommitteeSignature: bytesutil.SafeCopyBytes(s.SyncCommitteeSignature),
	}
}

func copySlice[T any](in []*T, cp func(*T) *T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = cp(v)
	}
	return out
}

// Copy --
func (b *BeaconBlockBody) Copy() *BeaconBlockBody {
	if b == nil {
		return nil
	}
	return &BeaconBlockBody{
		RandaoReveal:      bytesutil.SafeCopyBytes(b.RandaoReveal),
		Eth1Data:          b.Eth1Data.Copy(),
		Graffiti:          bytesutil.SafeCopyBytes(b.Graffiti),
		ProposerSlashings: copySlice(b.ProposerSlashings, (*ProposerSlashing).Copy),
		AttesterSlashings: copySlice(b.AttesterSlashings, (*AttesterSlashing).Copy),
		Attestations:      copySlice(b.Attestations, (*Attestation).Copy),
		Deposits:          copySlice(b.Deposits, (*Deposit).Copy),
		VoluntaryExits:    copySlice(b.VoluntaryExits, (*SignedVoluntaryExit).Copy),
	}
}

// Copy --
func (b *BeaconBlock) Copy() *BeaconBlock {
	if b == nil {
		return nil
	}
	return &BeaconBlock{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(b.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(b.StateRoot),
		Body:          b.Body.Copy(),
	}
}

// Copy --
func (s *SignedBeaconBlock) Copy() *SignedBeaconBlock {
	if s == nil {
		return nil
	}
	return &SignedBeaconBlock{
		Block:     s.Block.Copy(),
		Signature: bytesutil.SafeCopyBytes(s.Signature),
	}
}

// Copy --
func (b *BeaconBlockBodyAltair) Copy() *BeaconBlockBodyAltair {
	if b == nil {
		return nil
	}
	return &BeaconBlockBodyAltair{
		RandaoReveal:      bytesutil.SafeCopyBytes(b.RandaoReveal),
		Eth1Data:          b.Eth1Data.Copy(),
		Graffiti:          bytesutil.SafeCopyBytes(b.Graffiti),
		ProposerSlashings: copySlice(b.ProposerSlashings, (*ProposerSlashing).Copy),
		AttesterSlashings: copySlice(b.AttesterSlashings, (*AttesterSlashing).Copy),
		Attestations:      copySlice(b.Attestations, (*Attestation).Copy),
		Deposits:          copySlice(b.Deposits, (*Deposit).Copy),
		VoluntaryExits:    copySlice(b.VoluntaryExits, (*SignedVoluntaryExit).Copy),
		SyncAggregate:     b.SyncAggregate.Copy(),
	}
}

// Copy --
func (b *BeaconBlockAltair) Copy() *BeaconBlockAltair {
	if b == nil {
		return nil
	}
	return &BeaconBlockAltair{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(b.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(b.StateRoot),
		Body:          b.Body.Copy(),
	}
}

// Copy --
func (s *SignedBeaconBlockAltair) Copy() *SignedBeaconBlockAltair {
	if s == nil {
		return nil
	}
	return &SignedBeaconBlockAltair{
		Block:     s.Block.Copy(),
		Signature: bytesutil.SafeCopyBytes(s.Signature),
	}
}

// Copy --
func (s *BeaconState) Copy() *BeaconState {
	if s == nil {
		return nil
	}
	return &BeaconState{
		GenesisTime:                 s.GenesisTime,
		GenesisValidatorsRoot:       bytesutil.SafeCopyBytes(s.GenesisValidatorsRoot),
		Slot:                        s.Slot,
		Fork:                        s.Fork.Copy(),
		LatestBlockHeader:           s.LatestBlockHeader.Copy(),
		BlockRoots:                  bytesutil.SafeCopy2dBytes(s.BlockRoots),
		StateRoots:                  bytesutil.SafeCopy2dBytes(s.StateRoots),
		HistoricalRoots:             bytesutil.SafeCopy2dBytes(s.HistoricalRoots),
		Eth1Data:                    s.Eth1Data.Copy(),
		Eth1DataVotes:               copySlice(s.Eth1DataVotes, (*Eth1Data).Copy),
		Eth1DepositIndex:            s.Eth1DepositIndex,
		Validators:                  copySlice(s.Validators, (*Validator).Copy),
		Balances:                    copyUint64s(s.Balances),
		RandaoMixes:                 bytesutil.SafeCopy2dBytes(s.RandaoMixes),
		Slashings:                   copyUint64s(s.Slashings),
		PreviousEpochAttestations:   copySlice(s.PreviousEpochAttestations, (*PendingAttestation).Copy),
		CurrentEpochAttestations:    copySlice(s.CurrentEpochAttestations, (*PendingAttestation).Copy),
		JustificationBits:           bytesutil.SafeCopyBytes(s.JustificationBits),
		PreviousJustifiedCheckpoint: s.PreviousJustifiedCheckpoint.Copy(),
		CurrentJustifiedCheckpoint:  s.CurrentJustifiedCheckpoint.Copy(),
		FinalizedCheckpoint:         s.FinalizedCheckpoint.Copy(),
	}
}

// Copy --
func (s *BeaconStateAltair) Copy() *BeaconStateAltair {
	if s == nil {
		return nil
	}
	return &BeaconStateAltair{
		GenesisTime:                 s.GenesisTime,
		GenesisValidatorsRoot:       bytesutil.SafeCopyBytes(s.GenesisValidatorsRoot),
		Slot:                        s.Slot,
		Fork:                        s.Fork.Copy(),
		LatestBlockHeader:           s.LatestBlockHeader.Copy(),
		BlockRoots:                  bytesutil.SafeCopy2dBytes(s.BlockRoots),
		StateRoots:                  bytesutil.SafeCopy2dBytes(s.StateRoots),
		HistoricalRoots:             bytesutil.SafeCopy2dBytes(s.HistoricalRoots),
		Eth1Data:                    s.Eth1Data.Copy(),
		Eth1DataVotes:               copySlice(s.Eth1DataVotes, (*Eth1Data).Copy),
		Eth1DepositIndex:            s.Eth1DepositIndex,
		Validators:                  copySlice(s.Validators, (*Validator).Copy),
		Balances:                    copyUint64s(s.Balances),
		RandaoMixes:                 bytesutil.SafeCopy2dBytes(s.RandaoMixes),
		Slashings:                   copyUint64s(s.Slashings),
		PreviousEpochParticipation:  bytesutil.SafeCopyBytes(s.PreviousEpochParticipation),
		CurrentEpochParticipation:   bytesutil.SafeCopyBytes(s.CurrentEpochParticipation),
		JustificationBits:           bytesutil.SafeCopyBytes(s.JustificationBits),
		PreviousJustifiedCheckpoint: s.PreviousJustifiedCheckpoint.Copy(),
		CurrentJustifiedCheckpoint:  s.CurrentJustifiedCheckpoint.Copy(),
		FinalizedCheckpoint:         s.FinalizedCheckpoint.Copy(),
		InactivityScores:            copyUint64s(s.InactivityScores),
		CurrentSyncCommittee:        s.CurrentSyncCommittee.Copy(),
		NextSyncCommittee:           s.NextSyncCommittee.Copy(),
	}
}

func copyUint64s(in []uint64) []uint64 {
	if in == nil {
		return nil
	}
	out := make([]uint64, len(in))
	copy(out, in)
	return out
}
