package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/goleak"

	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

// --- Mocks ---

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	fail    map[int]bool // by call number, 1-based
	failAll bool
	done    chan struct{}
}

func (f *fakeRefresher) Refresh(_ context.Context) (cataloguc.Info, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	defer func() {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}()
	if f.failAll || f.fail[n] {
		return cataloguc.Info{}, errors.New("source down")
	}
	return cataloguc.Info{Loaded: true, Version: uint64(n)}, nil
}

// --- Tests ---

func TestConsumer_RefreshesAndCommits(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{msgs: make(chan kafka.Message, 3)}
	ref := &fakeRefresher{fail: map[int]bool{2: true}, done: make(chan struct{}, 4)}
	c := newConsumer(reader, ref, nil)
	c.retryMin = time.Millisecond

	reader.msgs <- kafka.Message{Offset: 1, Value: []byte(`{"type":"entry.updated","entry_id":"a"}`)}
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte(`{"type":"taxonomy.updated"}`)}
	reader.msgs <- kafka.Message{Offset: 3, Value: []byte(`not json`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Offset 2 fails once and is retried before offset 3 is read.
	for range 4 {
		select {
		case <-ref.done:
		case <-time.After(5 * time.Second):
			t.Fatal("refresh not triggered")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	reader.mu.Lock()
	defer reader.mu.Unlock()
	if diff := cmp.Diff([]int64{1, 2, 3}, reader.committed); diff != "" {
		t.Errorf("committed (-want +got):\n%s", diff)
	}
	if !reader.closed {
		t.Error("reader must be closed on shutdown")
	}
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{msgs: make(chan kafka.Message)}
	c := newConsumer(reader, &fakeRefresher{done: make(chan struct{}, 1)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestConsumer_RetriesFailedRefreshUntilCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	reader := &fakeReader{msgs: make(chan kafka.Message, 1)}
	ref := &fakeRefresher{failAll: true, done: make(chan struct{}, 1)}
	c := newConsumer(reader, ref, nil)
	c.retryMin = time.Millisecond
	c.retryMax = 2 * time.Millisecond

	reader.msgs <- kafka.Message{Offset: 7, Value: []byte(`{"type":"entry.deleted","entry_id":"x"}`)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for range 3 {
		select {
		case <-ref.done:
		case <-time.After(5 * time.Second):
			t.Fatal("refresh not retried")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	reader.mu.Lock()
	defer reader.mu.Unlock()
	if len(reader.committed) != 0 {
		t.Errorf("committed = %v, want none while the refresh keeps failing", reader.committed)
	}
	if !reader.closed {
		t.Error("reader must be closed on shutdown")
	}
}
