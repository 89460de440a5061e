package transition

import "runtime"

// Options toggle the expensive checks of a block transition. Trusted callers replaying blocks
// that were already verified may switch them off. Structural and arithmetic checks always run.
type Options struct {
	// VerifyStateRoot compares the post state root with the root the block commits to.
	VerifyStateRoot bool
	// VerifyProposerSignature checks the proposer signature over the block.
	VerifyProposerSignature bool
	// VerifySignatures checks the RANDAO reveal and every operation signature of the block.
	VerifySignatures bool
	// SignatureWorkers bounds the goroutines used to verify the signature batch.
	SignatureWorkers int
}

// DefaultOptions enables every verification.
func DefaultOptions() Options {
	return Options{
		VerifyStateRoot:         true,
		VerifyProposerSignature: true,
		VerifySignatures:        true,
		SignatureWorkers:        runtime.GOMAXPROCS(0),
	}
}
