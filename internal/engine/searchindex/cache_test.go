package searchindex_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

func snapshotV(v uint64) *searchindex.Snapshot {
	s, _ := searchindex.NewSnapshot(nil, nil, v, time.Unix(int64(v), 0))
	return s
}

func TestCache_GetBuildsOnce(t *testing.T) {
	var calls atomic.Int32
	c := searchindex.NewCache(func(context.Context) (*searchindex.Snapshot, error) {
		calls.Add(1)
		return snapshotV(1), nil
	})

	if c.Load() != nil {
		t.Fatal("new cache must be empty")
	}
	for range 3 {
		s, err := c.Get(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Version() != 1 {
			t.Fatalf("Version() = %d", s.Version())
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}

func TestCache_FailedRebuildKeepsSnapshot(t *testing.T) {
	fail := errors.New("store down")
	var broken atomic.Bool
	c := searchindex.NewCache(func(context.Context) (*searchindex.Snapshot, error) {
		if broken.Load() {
			return nil, fail
		}
		return snapshotV(1), nil
	})

	if _, err := c.Rebuild(context.Background()); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	broken.Store(true)
	if _, err := c.Rebuild(context.Background()); !errors.Is(err, fail) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if s := c.Load(); s == nil || s.Version() != 1 {
		t.Fatal("failed rebuild must keep the previous snapshot")
	}
}

func TestCache_ConcurrentRebuildsCollapse(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	var calls atomic.Int32
	c := searchindex.NewCache(func(context.Context) (*searchindex.Snapshot, error) {
		calls.Add(1)
		<-release
		return snapshotV(2), nil
	})
	c.Store(snapshotV(1))

	const n = 8
	var started, done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	for range n {
		go func() {
			defer done.Done()
			started.Done()
			if _, err := c.Rebuild(context.Background()); err != nil {
				t.Errorf("rebuild: %v", err)
			}
		}()
	}
	started.Wait()

	// Readers keep seeing the old snapshot while the load is pending.
	if v := c.Load().Version(); v != 1 {
		t.Errorf("Load() during rebuild = v%d, want v1", v)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	if v := c.Load().Version(); v != 2 {
		t.Errorf("Load() after rebuild = v%d, want v2", v)
	}
	if got := calls.Load(); got < 1 || got > n {
		t.Errorf("loader calls = %d", got)
	}
}

func TestCache_RebuildHonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	c := searchindex.NewCache(func(ctx context.Context) (*searchindex.Snapshot, error) {
		<-release
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return snapshotV(5), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Rebuild(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(release)

	// The detached load still completes and installs its snapshot.
	deadline := time.Now().Add(time.Second)
	for c.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s := c.Load(); s == nil || s.Version() != 5 {
		t.Fatal("detached load must install its snapshot")
	}
}

func TestCache_RebuildAfterChangeSeesChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	var source atomic.Uint64
	source.Store(1)
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	c := searchindex.NewCache(func(context.Context) (*searchindex.Snapshot, error) {
		v := source.Load()
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return snapshotV(v), nil
	})

	first := make(chan *searchindex.Snapshot, 1)
	go func() {
		s, err := c.Rebuild(context.Background())
		if err != nil {
			t.Errorf("first rebuild: %v", err)
		}
		first <- s
	}()
	<-entered

	// The source changes while the first load is in flight.
	source.Store(2)
	second := make(chan *searchindex.Snapshot, 1)
	go func() {
		s, err := c.Rebuild(context.Background())
		if err != nil {
			t.Errorf("second rebuild: %v", err)
		}
		second <- s
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if s := <-first; s == nil || s.Version() != 1 {
		t.Errorf("first rebuild = %v, want v1", s)
	}
	if s := <-second; s == nil || s.Version() != 2 {
		t.Fatalf("rebuild requested after the change returned %v, want v2", s)
	}
	if v := c.Load().Version(); v != 2 {
		t.Errorf("Load() = v%d, want v2", v)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, want 2", got)
	}
}

func TestCache_QueuedRebuildsShareOneFollowUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	releaseFollowUp := make(chan struct{})
	var calls atomic.Int32
	c := searchindex.NewCache(func(context.Context) (*searchindex.Snapshot, error) {
		n := calls.Add(1)
		switch n {
		case 1:
			close(entered)
			<-release
		case 2:
			<-releaseFollowUp
		}
		return snapshotV(uint64(n)), nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Rebuild(context.Background())
	}()
	<-entered

	const queued = 6
	wg.Add(queued)
	for range queued {
		go func() {
			defer wg.Done()
			s, err := c.Rebuild(context.Background())
			if err != nil {
				t.Errorf("rebuild: %v", err)
				return
			}
			if s.Version() < 2 {
				t.Errorf("queued rebuild got v%d from the load already running", s.Version())
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	time.Sleep(20 * time.Millisecond)
	close(releaseFollowUp)
	wg.Wait()

	if got := calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, want 2 (one running, one follow-up)", got)
	}
}
