package eth

import (
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// SyncAggregate carries the sync committee's participation bits and aggregate signature.
// SyncCommitteeBits holds SYNC_COMMITTEE_SIZE bits.
type SyncAggregate struct {
	SyncCommitteeBits      bitfield.Bitvector512
	SyncCommitteeSignature []byte
}

type SyncCommittee struct {
	Pubkeys         [][]byte
	AggregatePubkey []byte
}

type BeaconBlockBodyAltair struct {
	RandaoReveal      []byte
	Eth1Data          *Eth1Data
	Graffiti          []byte
	ProposerSlashings []*ProposerSlashing
	AttesterSlashings []*AttesterSlashing
	Attestations      []*Attestation
	Deposits          []*Deposit
	VoluntaryExits    []*SignedVoluntaryExit
	SyncAggregate     *SyncAggregate
}

type BeaconBlockAltair struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	Body          *BeaconBlockBodyAltair
}

type SignedBeaconBlockAltair struct {
	Block     *BeaconBlockAltair
	Signature []byte
}

// BeaconStateAltair is the altair state as plain data.
type BeaconStateAltair struct {
	GenesisTime                 uint64
	GenesisValidatorsRoot       []byte
	Slot                        primitives.Slot
	Fork                        *Fork
	LatestBlockHeader           *BeaconBlockHeader
	BlockRoots                  [][]byte
	StateRoots                  [][]byte
	HistoricalRoots             [][]byte
	Eth1Data                    *Eth1Data
	Eth1DataVotes               []*Eth1Data
	Eth1DepositIndex            uint64
	Validators                  []*Validator
	Balances                    []uint64
	RandaoMixes                 [][]byte
	Slashings                   []uint64
	PreviousEpochParticipation  []byte
	CurrentEpochParticipation   []byte
	JustificationBits           bitfield.Bitvector4
	PreviousJustifiedCheckpoint *Checkpoint
	CurrentJustifiedCheckpoint  *Checkpoint
	FinalizedCheckpoint         *Checkpoint
	InactivityScores            []uint64
	CurrentSyncCommittee        *SyncCommittee
	NextSyncCommittee           *SyncCommittee
}
