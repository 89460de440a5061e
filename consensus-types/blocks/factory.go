package blocks

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/interfaces"
	eth "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

var (
	// ErrUnsupportedSignedBeaconBlock is returned for protos other than the phase0 and altair
	// signed blocks.
	ErrUnsupportedSignedBeaconBlock = errors.New("unsupported signed beacon block")
	// ErrNilObject is returned when asked to wrap nil.
	ErrNilObject = errors.New("received nil object")
)

// NewSignedBeaconBlock wraps a phase0 or altair signed block proto. The proto is not copied.
func NewSignedBeaconBlock(i interface{}) (interfaces.SignedBeaconBlock, error) {
	switch b := i.(type) {
	case nil:
		return nil, ErrNilObject
	case *eth.SignedBeaconBlock:
		return initSignedBlockFromProtoPhase0(b)
	case *eth.SignedBeaconBlockAltair:
		return initSignedBlockFromProtoAltair(b)
	}
	return nil, errors.Wrapf(ErrUnsupportedSignedBeaconBlock, "unable to create block from type %T", i)
}
