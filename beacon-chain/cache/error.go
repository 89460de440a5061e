package cache

import "github.com/pkg/errors"

var (
	// ErrNotFound for cache fetches that return a nil value.
	ErrNotFound = errors.New("not found in cache")
	// ErrAlreadyInProgress appears when attempting to mark a cache as in progress while it is
	// already in progress. The client should handle this error and wait for the in progress
	// data to resolve via Get.
	ErrAlreadyInProgress = errors.New("already in progress")
	// ErrCastingFailed is returned when a cached item is not of the expected type.
	ErrCastingFailed = errors.New("cached item has an unexpected type")
	// ErrEpochOutOfRange is returned when cached shufflings, proposers or sync committees are
	// requested for an epoch outside the window the context holds. It always means the caller
	// and the context disagree about the state's epoch.
	ErrEpochOutOfRange = errors.New("epoch is outside the epoch context window")
	// ErrEpochContextDesync is returned when an epoch context is used with a state whose
	// epoch differs from the one the context was built or rotated for.
	ErrEpochContextDesync = errors.New("epoch context does not match the state epoch")
	// ErrCommitteeIndexOutOfRange is returned when a committee index exceeds the committee
	// count of its slot.
	ErrCommitteeIndexOutOfRange = errors.New("committee index out of range")
	// ErrUnknownPubkey is returned when a sync committee member is absent from the pubkey cache.
	ErrUnknownPubkey = errors.New("public key is not in the pubkey cache")
	// ErrPubkeyConflict is returned when the shared pubkey cache cannot take an entry because
	// another fork registered a different validator at the same index.
	ErrPubkeyConflict = errors.New("pubkey cache entry conflicts with another fork")
)
