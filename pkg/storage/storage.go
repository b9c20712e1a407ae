// Package storage persists full artifact payloads by id. The cache and
// history layers keep only ids and metadata; this is where the actual
// image/text bytes live.
package storage

import (
	"context"
	"errors"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// ErrNotFound is returned by Load when no artifact exists for an id.
var ErrNotFound = errors.New("artifact not found")

// Store is durable payload storage.
type Store interface {
	// Save persists an artifact payload under the given id.
	Save(ctx context.Context, id string, artifact models.Artifact) error
	// Load fetches an artifact payload by id. Returns ErrNotFound if absent.
	Load(ctx context.Context, id string) (*models.Artifact, error)
	// Close releases resources.
	Close() error
}
