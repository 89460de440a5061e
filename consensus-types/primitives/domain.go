package primitives

// DomainType is the 4-byte tag separating signing domains.
type DomainType [4]byte

// Domain is the 32-byte value mixed into every signing root.
type Domain []byte
