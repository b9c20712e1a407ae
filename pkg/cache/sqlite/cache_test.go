package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func testGeneration(nodeID string, seed int32) models.Generation {
	return models.Generation{
		Seed:     seed,
		NodeID:   nodeID,
		NodeKind: models.ImageGeneration,
		Inputs: models.KeyInputs{
			NodeID:      nodeID,
			NodeKind:    models.ImageGeneration,
			Prompt:      "a cat",
			ImageCount:  1,
			Model:       strPtr("nano-banana"),
			Resolution:  strPtr("1K"),
			AspectRatio: strPtr("1:1"),
			Seed:        seed,
		},
		Output: models.Artifact{Image: "data:image/png;base64,aGVsbG8="},
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow(`PRAGMA journal_mode`).Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var busyTimeout int
	if err := s.db.QueryRow(`PRAGMA busy_timeout`).Scan(&busyTimeout); err != nil {
		t.Fatal(err)
	}
	if busyTimeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", busyTimeout)
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	id, err := s.Save(ctx, gen)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	got, err := s.Get(ctx, gen.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got.ID != id {
		t.Errorf("id = %s, want %s", got.ID, id)
	}
	if got.Output.Image != gen.Output.Image {
		t.Errorf("unexpected output: %s", got.Output.Image)
	}
	if got.Seed != 42 {
		t.Errorf("seed = %d, want 42", got.Seed)
	}
	if !got.Inputs.Equal(gen.Inputs) {
		t.Error("stored inputs do not match")
	}
}

func TestGetMiss(t *testing.T) {
	s := newTestStore(t)

	gen := testGeneration("node-1", 42)
	got, err := s.Get(context.Background(), gen.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expected miss on empty store")
	}
}

func TestSeedChangesKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	if _, err := s.Save(ctx, gen); err != nil {
		t.Fatal(err)
	}

	other := testGeneration("node-1", 43)
	got, err := s.Get(ctx, other.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("different seed must not hit")
	}
}

func TestLazyExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	gen.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	if _, err := s.Save(ctx, gen); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, gen.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expired entry must be a miss")
	}

	// The expired row is deleted on lookup.
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("expected expired row removed, have %d entries", stats.Entries)
	}
}

func TestCollisionTreatedAsMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	id, err := s.Save(ctx, gen)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a hash collision: another input set mapping to the same
	// id but with different stored inputs.
	other := gen.Inputs
	other.Prompt = "a completely different prompt"
	raw := `{"nodeId":"node-1","nodeKind":"image-generation","prompt":"a completely different prompt","imageCount":1,"seed":42}`
	if _, err := s.db.Exec(`UPDATE generations SET inputs = ? WHERE id = ?`, raw, id); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, gen.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("mismatched stored inputs must be reported as a miss")
	}
}

func TestClearByNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, seed := range []int32{1, 2, 3} {
		if _, err := s.Save(ctx, testGeneration("node-1", seed)); err != nil {
			t.Fatal(err)
		}
	}
	keep := testGeneration("node-2", 9)
	if _, err := s.Save(ctx, keep); err != nil {
		t.Fatal(err)
	}

	n, err := s.ClearByNode(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("cleared %d entries, want 3", n)
	}

	// node-1 entries are gone, node-2 untouched.
	if got, _ := s.Get(ctx, testGeneration("node-1", 1).Inputs); got != nil {
		t.Error("node-1 entry survived ClearByNode")
	}
	if got, _ := s.Get(ctx, keep.Inputs); got == nil {
		t.Error("node-2 entry was removed")
	}
}

func TestCleanExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	expired := testGeneration("node-1", 1)
	expired.ExpiresAt = time.Now().Add(-time.Hour).UnixMilli()
	if _, err := s.Save(ctx, expired); err != nil {
		t.Fatal(err)
	}
	forever := testGeneration("node-1", 2)
	if _, err := s.Save(ctx, forever); err != nil {
		t.Fatal(err)
	}
	future := testGeneration("node-1", 3)
	future.ExpiresAt = time.Now().Add(time.Hour).UnixMilli()
	if _, err := s.Save(ctx, future); err != nil {
		t.Fatal(err)
	}

	n, err := s.CleanExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("cleaned %d entries, want 1", n)
	}

	stats, _ := s.Stats(ctx)
	if stats.Entries != 2 {
		t.Errorf("expected 2 surviving entries, got %d", stats.Entries)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _ = s.Save(ctx, testGeneration("node-1", 1))
	_, _ = s.Save(ctx, testGeneration("node-2", 2))

	if err := s.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	stats, _ := s.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected empty store, got %d entries", stats.Entries)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	if _, err := s.Save(ctx, gen); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Get(ctx, gen.Inputs)                      // hit
	_, _ = s.Get(ctx, testGeneration("x", 7).Inputs)   // miss

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
	if stats.EstimatedSize != averageGenerationSize {
		t.Errorf("estimated size = %d, want %d", stats.EstimatedSize, averageGenerationSize)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestStorageErrorAfterClose(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "cache_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var serr *StorageError
	_, err = s.Get(ctx, testGeneration("node-1", 1).Inputs)
	if !errors.As(err, &serr) {
		t.Errorf("Get on closed store: err = %v, want *StorageError", err)
	}
	if _, err := s.Save(ctx, testGeneration("node-1", 1)); !errors.As(err, &serr) {
		t.Errorf("Save on closed store: err = %v, want *StorageError", err)
	}
	if serr.Op == "" {
		t.Error("StorageError has no operation")
	}
}

func TestSaveOverwritesSameID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	gen := testGeneration("node-1", 42)
	if _, err := s.Save(ctx, gen); err != nil {
		t.Fatal(err)
	}
	gen.Output.Image = "data:image/png;base64,bmV3ZXI="
	if _, err := s.Save(ctx, gen); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, gen.Inputs)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected hit")
	}
	if got.Output.Image != gen.Output.Image {
		t.Error("second save did not overwrite")
	}
	stats, _ := s.Stats(ctx)
	if stats.Entries != 1 {
		t.Errorf("expected single entry, got %d", stats.Entries)
	}
}
