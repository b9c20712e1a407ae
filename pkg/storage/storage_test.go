package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerRoundTrip(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	artifact := models.Artifact{Image: "data:image/png;base64,aGVsbG8="}
	if err := b.Save(ctx, "gen-abc", artifact); err != nil {
		t.Fatal(err)
	}

	got, err := b.Load(ctx, "gen-abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Image != artifact.Image {
		t.Errorf("image = %q, want %q", got.Image, artifact.Image)
	}
}

func TestBadgerNotFound(t *testing.T) {
	b := newTestBadger(t)

	_, err := b.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBadgerOverwrite(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	_ = b.Save(ctx, "id", models.Artifact{Text: "first"})
	if err := b.Save(ctx, "id", models.Artifact{Text: "second"}); err != nil {
		t.Fatal(err)
	}

	got, err := b.Load(ctx, "id")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "second" {
		t.Errorf("text = %q, want %q", got.Text, "second")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Load(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := m.Save(ctx, "x", models.Artifact{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	got, err := m.Load(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "hi" {
		t.Errorf("text = %q", got.Text)
	}
}
