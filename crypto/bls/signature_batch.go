package bls

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrBatchFailed is returned when a batch does not verify as a whole.
var ErrBatchFailed = errors.New("signature batch failed to verify")

// SignatureBatch is an ordered collection of signature sets awaiting verification.
type SignatureBatch struct {
	Sets []*SignatureSet
}

// NewBatch constructs an empty signature batch object.
func NewBatch() *SignatureBatch {
	return &SignatureBatch{Sets: []*SignatureSet{}}
}

// Add appends sets to the batch, skipping nil entries.
func (s *SignatureBatch) Add(sets ...*SignatureSet) *SignatureBatch {
	for _, set := range sets {
		if set != nil {
			s.Sets = append(s.Sets, set)
		}
	}
	return s
}

// Join merges the provided signature batch to our current one.
func (s *SignatureBatch) Join(set *SignatureBatch) *SignatureBatch {
	if set == nil {
		return s
	}
	s.Sets = append(s.Sets, set.Sets...)
	return s
}

// Len is the number of sets in the batch.
func (s *SignatureBatch) Len() int {
	return len(s.Sets)
}

func (s *SignatureBatch) flatten(sets []*SignatureSet) ([][]byte, [][32]byte, []PublicKey, error) {
	sigs := make([][]byte, 0, len(sets))
	msgs := make([][32]byte, 0, len(sets))
	pubs := make([]PublicKey, 0, len(sets))
	for _, set := range sets {
		pub, err := set.PublicKey()
		if err != nil {
			return nil, nil, nil, err
		}
		sigs = append(sigs, set.Signature)
		msgs = append(msgs, set.SigningRoot)
		pubs = append(pubs, pub)
	}
	return sigs, msgs, pubs, nil
}

func (s *SignatureBatch) verifySets(sets []*SignatureSet) (bool, error) {
	switch len(sets) {
	case 0:
		return true, nil
	case 1:
		return sets[0].Verify()
	}
	sigs, msgs, pubs, err := s.flatten(sets)
	if err != nil {
		return false, err
	}
	return VerifyMultipleSignatures(sigs, msgs, pubs)
}

// Verify the whole batch with a single randomized multi-pairing check. An empty batch verifies.
func (s *SignatureBatch) Verify() (bool, error) {
	return s.verifySets(s.Sets)
}

// VerifyParallel splits the batch into at most workers chunks and verifies them concurrently.
// Sets share no mutable data, so chunks are independent.
func (s *SignatureBatch) VerifyParallel(ctx context.Context, workers int) (bool, error) {
	if workers <= 1 || len(s.Sets) <= workers {
		return s.Verify()
	}
	chunk := (len(s.Sets) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(s.Sets); start += chunk {
		end := start + chunk
		if end > len(s.Sets) {
			end = len(s.Sets)
		}
		sets := s.Sets[start:end]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := s.verifySets(sets)
			if err != nil {
				return err
			}
			if !ok {
				return ErrBatchFailed
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrBatchFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VerifyVerbosely verifies the batch and, on failure, checks each set on its own to
// report which artifacts carry a bad signature.
func (s *SignatureBatch) VerifyVerbosely() (bool, error) {
	valid, err := s.Verify()
	if err != nil || valid {
		return valid, err
	}
	var failed []string
	for i, set := range s.Sets {
		ok, err := set.Verify()
		if err != nil {
			return false, errors.Wrapf(err, "could not verify signature set %d", i)
		}
		if !ok {
			failed = append(failed, fmt.Sprintf("signature '%s' is invalid. signature: %#x, public key: %#x, message: %#v",
				set.Description, set.Signature, set.PublicKeys[0].Marshal(), set.SigningRoot))
		}
	}
	return false, errors.New(strings.Join(failed, "\n"))
}

// Descriptions lists the description of every set in batch order.
func (s *SignatureBatch) Descriptions() []string {
	d := make([]string, len(s.Sets))
	for i, set := range s.Sets {
		d[i] = set.Description
	}
	return d
}
