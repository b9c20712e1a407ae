package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
	"github.com/nodebanana-ai/nodebanana/pkg/storage"
)

// flakyStore wraps a real store and fails Load on demand.
type flakyStore struct {
	storage.Store
	failLoad bool
}

func (f *flakyStore) Load(ctx context.Context, id string) (*models.Artifact, error) {
	if f.failLoad {
		return nil, errors.New("payload store offline")
	}
	return f.Store.Load(ctx, id)
}

func runTwice(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := e.Run(ctx, "img-1"); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
}

func TestNavigateHistoryWraps(t *testing.T) {
	gen := &countingGen{}
	e, _ := newTestEngine(t, gen)
	runTwice(t, e)
	ctx := context.Background()

	st := e.State("img-1")
	if len(st.History) != 2 || st.SelectedHistoryIndex != 1 {
		t.Fatalf("history = %d entries, selected %d", len(st.History), st.SelectedHistoryIndex)
	}
	latest := st.Output

	if err := e.NavigateHistory(ctx, "img-1", Prev); err != nil {
		t.Fatalf("prev: %v", err)
	}
	st = e.State("img-1")
	if st.SelectedHistoryIndex != 0 {
		t.Errorf("selected = %d, want 0", st.SelectedHistoryIndex)
	}
	if st.Output == latest {
		t.Error("output did not change after navigating back")
	}

	// Prev from the oldest entry wraps to the newest.
	if err := e.NavigateHistory(ctx, "img-1", Prev); err != nil {
		t.Fatalf("wrap prev: %v", err)
	}
	st = e.State("img-1")
	if st.SelectedHistoryIndex != 1 {
		t.Errorf("selected = %d, want 1 after wrap", st.SelectedHistoryIndex)
	}
	if st.Output != latest {
		t.Error("wrap did not restore the newest output")
	}

	// Next from the newest wraps to the oldest.
	if err := e.NavigateHistory(ctx, "img-1", Next); err != nil {
		t.Fatalf("wrap next: %v", err)
	}
	if got := e.State("img-1").SelectedHistoryIndex; got != 0 {
		t.Errorf("selected = %d, want 0 after forward wrap", got)
	}
}

func TestNavigateSingleEntryNoop(t *testing.T) {
	gen := &countingGen{}
	e, _ := newTestEngine(t, gen)
	if err := e.Run(context.Background(), "img-1"); err != nil {
		t.Fatalf("run: %v", err)
	}
	before := e.State("img-1")
	if err := e.NavigateHistory(context.Background(), "img-1", Prev); err != nil {
		t.Fatalf("prev: %v", err)
	}
	after := e.State("img-1")
	if after.SelectedHistoryIndex != before.SelectedHistoryIndex || after.Output != before.Output {
		t.Error("single-entry navigation changed state")
	}
}

// blockingStore counts Loads and holds each one until block is closed.
type blockingStore struct {
	storage.Store
	mu    sync.Mutex
	loads int
	block chan struct{}
}

func (b *blockingStore) Load(ctx context.Context, id string) (*models.Artifact, error) {
	b.mu.Lock()
	b.loads++
	b.mu.Unlock()
	<-b.block
	return b.Store.Load(ctx, id)
}

func TestNavigateWhileFetchingDropped(t *testing.T) {
	gen := &countingGen{}
	store := &blockingStore{Store: storage.NewMemory(), block: make(chan struct{})}
	e := New(newTestGraph(), nil, store, gen)
	runTwice(t, e)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- e.NavigateHistory(ctx, "img-1", Prev) }()

	deadline := time.Now().Add(2 * time.Second)
	for !e.State("img-1").HistoryLoading {
		if time.Now().After(deadline) {
			t.Fatal("navigation never started fetching")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A second navigation while the fetch is in flight is dropped.
	if err := e.NavigateHistory(ctx, "img-1", Prev); err != nil {
		t.Fatalf("duplicate navigation: %v", err)
	}
	close(store.block)
	if err := <-done; err != nil {
		t.Fatalf("navigate: %v", err)
	}

	store.mu.Lock()
	loads := store.loads
	store.mu.Unlock()
	if loads != 1 {
		t.Errorf("payload loads = %d, want 1", loads)
	}
	if got := e.State("img-1").SelectedHistoryIndex; got != 0 {
		t.Errorf("selected = %d, want 0", got)
	}
}

func TestNavigateFetchFailureLeavesState(t *testing.T) {
	gen := &countingGen{}
	mem := storage.NewMemory()
	store := &flakyStore{Store: mem}
	e := New(newTestGraph(), nil, store, gen)
	runTwice(t, e)

	before := e.State("img-1")
	store.failLoad = true

	err := e.NavigateHistory(context.Background(), "img-1", Prev)
	var ferr *HistoryFetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want HistoryFetchError", err)
	}

	after := e.State("img-1")
	if after.SelectedHistoryIndex != before.SelectedHistoryIndex {
		t.Error("failed fetch moved the selection")
	}
	if after.Output != before.Output {
		t.Error("failed fetch changed the output")
	}
	if after.Status != before.Status {
		t.Error("failed fetch changed the status")
	}
	if after.HistoryLoading {
		t.Error("loading flag stuck after failed fetch")
	}
}
