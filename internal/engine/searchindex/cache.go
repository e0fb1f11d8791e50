package searchindex

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Loader builds a fresh snapshot, typically from the content sources.
type Loader func(ctx context.Context) (*Snapshot, error)

// Cache holds the current snapshot. Readers never block: Load returns
// whatever snapshot was last installed. Concurrent rebuilds are collapsed
// into one load.
type Cache struct {
	cur   atomic.Pointer[Snapshot]
	group singleflight.Group
	load  Loader

	// requests counts Rebuild calls. A load records the count it saw when it
	// started; it serves every request numbered at or below that mark.
	requests atomic.Uint64
}

type loadResult struct {
	snap  *Snapshot
	start uint64
}

// NewCache creates an empty cache backed by load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// Load returns the installed snapshot, nil before the first successful rebuild.
func (c *Cache) Load() *Snapshot {
	return c.cur.Load()
}

// Store installs s unconditionally.
func (c *Cache) Store(s *Snapshot) {
	c.cur.Store(s)
}

// Rebuild loads a new snapshot and installs it. A failed load keeps the
// previous snapshot.
//
// The returned snapshot comes from a load that started after this call.
// A caller that finds a load already running waits for it and then joins
// the next one, so callers queued behind a running load share a single
// follow-up. The load itself is not cancelled when ctx is; only this
// caller's wait is.
func (c *Cache) Rebuild(ctx context.Context) (*Snapshot, error) {
	ticket := c.requests.Add(1)
	for {
		ch := c.group.DoChan("rebuild", func() (any, error) {
			start := c.requests.Load()
			s, err := c.load(context.WithoutCancel(ctx))
			if err != nil {
				return loadResult{start: start}, err
			}
			c.cur.Store(s)
			return loadResult{snap: s, start: start}, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}

		lr := res.Val.(loadResult)
		if lr.start < ticket {
			// Started before this request; its view of the source may be stale.
			continue
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return lr.snap, nil
	}
}

// Get returns the installed snapshot, rebuilding first if there is none.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if s := c.cur.Load(); s != nil {
		return s, nil
	}
	return c.Rebuild(ctx)
}
