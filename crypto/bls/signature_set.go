package bls

import (
	"github.com/pkg/errors"
)

// SetKind tells apart sets signed by one key from sets signed by many keys over one message.
type SetKind uint8

const (
	// Single is one public key signing one signing root.
	Single SetKind = iota
	// Aggregate is several public keys signing the same signing root, with their
	// signatures aggregated into one.
	Aggregate
)

func (k SetKind) String() string {
	switch k {
	case Single:
		return "single"
	case Aggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// SignatureSet refers to one signable artifact of a block: the key or keys that signed it,
// the signing root and the signature. A set is built once and verified once.
type SignatureSet struct {
	Kind        SetKind
	PublicKeys  []PublicKey
	SigningRoot [32]byte
	Signature   []byte
	Description string
}

// NewSingleSet builds a set for a message signed by a single key.
func NewSingleSet(pub PublicKey, root [32]byte, sig []byte, description string) *SignatureSet {
	return &SignatureSet{
		Kind:        Single,
		PublicKeys:  []PublicKey{pub},
		SigningRoot: root,
		Signature:   sig,
		Description: description,
	}
}

// NewAggregateSet builds a set for a message signed by every key in pubs.
func NewAggregateSet(pubs []PublicKey, root [32]byte, sig []byte, description string) *SignatureSet {
	return &SignatureSet{
		Kind:        Aggregate,
		PublicKeys:  pubs,
		SigningRoot: root,
		Signature:   sig,
		Description: description,
	}
}

// PublicKey returns the single key the set verifies against, aggregating when needed.
func (s *SignatureSet) PublicKey() (PublicKey, error) {
	switch len(s.PublicKeys) {
	case 0:
		return nil, errors.Errorf("%s signature set has no public keys", s.Description)
	case 1:
		return s.PublicKeys[0], nil
	default:
		return AggregateMultiplePubkeys(s.PublicKeys), nil
	}
}

// Verify checks the set on its own.
func (s *SignatureSet) Verify() (bool, error) {
	sig, err := SignatureFromBytes(s.Signature)
	if err != nil {
		return false, errors.Wrapf(err, "could not convert bytes to signature for %s", s.Description)
	}
	if s.Kind == Aggregate {
		return sig.FastAggregateVerify(s.PublicKeys, s.SigningRoot), nil
	}
	pub, err := s.PublicKey()
	if err != nil {
		return false, err
	}
	return sig.Verify(pub, s.SigningRoot[:]), nil
}
