// Package eth defines the consensus containers of the phase0 and altair forks.
package eth

import (
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork tracks the fork versions around a fork epoch.
type Fork struct {
	PreviousVersion []byte
	CurrentVersion  []byte
	Epoch           primitives.Epoch
}

// ForkData is hashed to derive the fork digest used by signature domains.
type ForkData struct {
	CurrentVersion        []byte
	GenesisValidatorsRoot []byte
}

// SigningData binds an object root to a signature domain.
type SigningData struct {
	ObjectRoot []byte
	Domain     []byte
}

// Checkpoint is an (epoch, root) pair identifying a justified or finalized boundary.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  []byte
}

// Validator is one entry of the validator registry.
type Validator struct {
	PublicKey                  []byte
	WithdrawalCredentials      []byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch primitives.Epoch
	ActivationEpoch            primitives.Epoch
	ExitEpoch                  primitives.Epoch
	WithdrawableEpoch          primitives.Epoch
}

// Eth1Data is the deposit contract snapshot voted on by proposers.
type Eth1Data struct {
	DepositRoot  []byte
	DepositCount uint64
	BlockHash    []byte
}

type BeaconBlockHeader struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	BodyRoot      []byte
}

type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader
	Signature []byte
}

type AttestationData struct {
	Slot            primitives.Slot
	CommitteeIndex  primitives.CommitteeIndex
	BeaconBlockRoot []byte
	Source          *Checkpoint
	Target          *Checkpoint
}

type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	Signature       []byte
}

type IndexedAttestation struct {
	AttestingIndices []uint64
	Data             *AttestationData
	Signature        []byte
}

// PendingAttestation is the phase0 record of an included attestation.
type PendingAttestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	InclusionDelay  primitives.Slot
	ProposerIndex   primitives.ValidatorIndex
}

type ProposerSlashing struct {
	Header_1 *SignedBeaconBlockHeader
	Header_2 *SignedBeaconBlockHeader
}

type AttesterSlashing struct {
	Attestation_1 *IndexedAttestation
	Attestation_2 *IndexedAttestation
}

type DepositData struct {
	PublicKey             []byte
	WithdrawalCredentials []byte
	Amount                uint64
	Signature             []byte
}

// DepositMessage is the signed portion of DepositData.
type DepositMessage struct {
	PublicKey             []byte
	WithdrawalCredentials []byte
	Amount                uint64
}

type Deposit struct {
	Proof [][]byte
	Data  *DepositData
}

type VoluntaryExit struct {
	Epoch          primitives.Epoch
	ValidatorIndex primitives.ValidatorIndex
}

type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit
	Signature []byte
}

// HistoricalBatch is accumulated into historical_roots once per SLOTS_PER_HISTORICAL_ROOT.
type HistoricalBatch struct {
	BlockRoots [][]byte
	StateRoots [][]byte
}

type BeaconBlockBody struct {
	RandaoReveal      []byte
	Eth1Data          *Eth1Data
	Graffiti          []byte
	ProposerSlashings []*ProposerSlashing
	AttesterSlashings []*AttesterSlashing
	Attestations      []*Attestation
	Deposits          []*Deposit
	VoluntaryExits    []*SignedVoluntaryExit
}

type BeaconBlock struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	Body          *BeaconBlockBody
}

type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature []byte
}

// BeaconState is the phase0 state as plain data. The transition engine works on the
// copy-on-write representation in state-native, built from this value.
type BeaconState struct {
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
	PreviousEpochAttestations   []*PendingAttestation
	CurrentEpochAttestations    []*PendingAttestation
	JustificationBits           bitfield.Bitvector4
	PreviousJustifiedCheckpoint *Checkpoint
	CurrentJustifiedCheckpoint  *Checkpoint
	FinalizedCheckpoint         *Checkpoint
}
