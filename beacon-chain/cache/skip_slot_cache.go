package cache

import (
	"context"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"go.opencensus.io/trace"
)

const (
	// maxSkipSlotCacheSize defines the max number of advanced states that can be cached.
	maxSkipSlotCacheSize = 8
)

var (
	// Delay parameters
	minDelay    = float64(10)        // 10 nanoseconds
	maxDelay    = float64(100000000) // 0.1 second
	delayFactor = 1.1

	// Metrics
	skipSlotCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skip_slot_cache_hit",
		Help: "The total number of cache hits on the skip slot cache.",
	})
	skipSlotCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skip_slot_cache_miss",
		Help: "The total number of cache misses on the skip slot cache.",
	})
)

// SkipSlotCache stores states advanced through empty slots, keyed by the pre-state root and the
// target slot, so that several callers advancing the same head over a long gap only process
// the slots once.
type SkipSlotCache struct {
	cache      *lru.Cache
	lock       sync.RWMutex
	disabled   bool
	inProgress map[[32]byte]bool
}

// NewSkipSlotCache creates a skip slot cache.
func NewSkipSlotCache() (*SkipSlotCache, error) {
	c, err := lru.New(maxSkipSlotCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create skip slot cache")
	}
	return &SkipSlotCache{
		cache:      c,
		inProgress: make(map[[32]byte]bool),
	}, nil
}

// SkipSlotCacheKey mixes the root of the state being advanced with the slot it is advanced to.
func SkipSlotCacheKey(stateRoot [32]byte, slot primitives.Slot) [32]byte {
	var key [32]byte
	copy(key[:24], stateRoot[:24])
	s := uint64(slot)
	for i := 0; i < 8; i++ {
		key[31-i] = byte(s >> (8 * i))
	}
	return key
}

// Enable the skip slot cache.
func (c *SkipSlotCache) Enable() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.disabled = false
}

// Disable the skip slot cache.
func (c *SkipSlotCache) Disable() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.disabled = true
}

// Clear drops every cached state.
func (c *SkipSlotCache) Clear() {
	c.cache.Purge()
}

// Get waits for any in progress calculation of key to complete before returning a clone of the
// cached state. A miss returns nil and no error.
func (c *SkipSlotCache) Get(ctx context.Context, key [32]byte) (*CachedBeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "skipSlotCache.Get")
	defer span.End()

	c.lock.RLock()
	disabled := c.disabled
	c.lock.RUnlock()
	if disabled {
		skipSlotCacheMiss.Inc()
		return nil, nil
	}

	delay := minDelay

	// Another identical request may be in progress already. Let's wait until
	// any in progress request resolves or our timeout is exceeded.
	inProgress := false
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.lock.RLock()
		if !c.inProgress[key] {
			c.lock.RUnlock()
			break
		}
		inProgress = true
		c.lock.RUnlock()

		// This increasing backoff is to decrease the CPU cycles while waiting
		// for the in progress boolean to flip to false.
		time.Sleep(time.Duration(delay) * time.Nanosecond)
		delay *= delayFactor
		delay = math.Min(delay, maxDelay)
	}
	span.AddAttributes(trace.BoolAttribute("inProgress", inProgress))

	item, ok := c.cache.Get(key)
	if !ok {
		skipSlotCacheMiss.Inc()
		span.AddAttributes(trace.BoolAttribute("hit", false))
		return nil, nil
	}
	st, ok := item.(*CachedBeaconState)
	if !ok {
		return nil, errors.Wrap(ErrCastingFailed, "item in cache is not a cached beacon state")
	}
	skipSlotCacheHit.Inc()
	span.AddAttributes(trace.BoolAttribute("hit", true))
	return st.Clone(), nil
}

// MarkInProgress a request so that any other similar requests will block on
// Get until MarkNotInProgress is called.
func (c *SkipSlotCache) MarkInProgress(key [32]byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.disabled {
		return nil
	}
	if c.inProgress[key] {
		return ErrAlreadyInProgress
	}
	c.inProgress[key] = true
	return nil
}

// MarkNotInProgress will release the lock on a given request. This should be
// called after put.
func (c *SkipSlotCache) MarkNotInProgress(key [32]byte) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.inProgress, key)
}

// Put stores a clone of st so the cached value is never mutated by the caller.
func (c *SkipSlotCache) Put(_ context.Context, key [32]byte, st *CachedBeaconState) {
	c.lock.RLock()
	disabled := c.disabled
	c.lock.RUnlock()
	if disabled {
		return
	}
	c.cache.Add(key, st.Clone())
}
