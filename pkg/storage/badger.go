package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// key prefix for generation artifacts.
var artifactPrefix = []byte("gen/")

// Badger is a Store backed by an embedded Badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger store at dir.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open payload store: %w", err)
	}
	return &Badger{db: db}, nil
}

func artifactKey(id string) []byte {
	return append(artifactPrefix[:len(artifactPrefix):len(artifactPrefix)], id...)
}

// Save persists an artifact payload under the given id.
func (b *Badger) Save(ctx context.Context, id string, artifact models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", id, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(id), data)
	})
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", id, err)
	}
	return nil
}

// Load fetches an artifact payload by id.
func (b *Badger) Load(ctx context.Context, id string) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var artifact models.Artifact
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &artifact)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", id, err)
	}
	return &artifact, nil
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
