// Package sqlite implements the generation cache store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nodebanana-ai/nodebanana/pkg/fingerprint"
	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// averageGenerationSize is the assumed per-entry artifact size used for
// the advisory "cache usage" estimate (~500KB per cached image).
const averageGenerationSize = 500_000

// StorageError wraps an underlying storage failure so callers can tell
// "cache unavailable" apart from a plain miss and degrade to
// always-regenerate instead of failing the run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store is a persistent key→generation map. Construct one at startup
// with New and pass it by reference; all methods are safe for
// concurrent use.
type Store struct {
	db     *sql.DB
	hits   atomic.Int64
	misses atomic.Int64

	done     chan struct{}
	wg       sync.WaitGroup
	sweepMu  sync.Mutex
	sweeping bool
}

const createGenerationsTable = `
CREATE TABLE IF NOT EXISTS generations (
	id TEXT PRIMARY KEY,
	payload_id TEXT NOT NULL DEFAULT '',
	node_id TEXT NOT NULL,
	node_kind TEXT NOT NULL,
	seed INTEGER NOT NULL,
	inputs TEXT NOT NULL,
	output_image TEXT NOT NULL DEFAULT '',
	output_text TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_generations_node ON generations(node_id);
CREATE INDEX IF NOT EXISTS idx_generations_expiry ON generations(expires_at);
`

// New opens the cache database and runs auto-migration.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createGenerationsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{db: db, done: make(chan struct{})}, nil
}

// Save persists a generation result. The id is derived from the
// entry's inputs and seed via fingerprinting; CreatedAt is set to now
// and ExpiresAt to 0 (never) unless already set. A record with the
// same id is overwritten — identical inputs plus seed are treated as
// interchangeable.
func (s *Store) Save(ctx context.Context, gen models.Generation) (string, error) {
	gen.ID = fingerprint.ComputeKey(gen.Inputs)
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	inputs, err := json.Marshal(gen.Inputs)
	if err != nil {
		return "", &StorageError{Op: "save", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO generations (id, payload_id, node_id, node_kind, seed, inputs, output_image, output_text, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.PayloadID, gen.NodeID, string(gen.NodeKind), gen.Seed, string(inputs),
		gen.Output.Image, gen.Output.Text, gen.CreatedAt, gen.ExpiresAt,
	)
	if err != nil {
		return "", &StorageError{Op: "save", Err: err}
	}
	return gen.ID, nil
}

// Get looks up a generation by its key inputs. Returns (nil, nil) on a
// miss. Expired records are deleted lazily and reported as misses. A
// record whose stored inputs do not match the request field-wise is a
// hash collision and is also reported as a miss.
func (s *Store) Get(ctx context.Context, in models.KeyInputs) (*models.Generation, error) {
	id := fingerprint.ComputeKey(in)

	var (
		gen       models.Generation
		kind      string
		rawInputs string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, payload_id, node_id, node_kind, seed, inputs, output_image, output_text, created_at, expires_at
		 FROM generations WHERE id = ?`, id,
	).Scan(&gen.ID, &gen.PayloadID, &gen.NodeID, &kind, &gen.Seed, &rawInputs,
		&gen.Output.Image, &gen.Output.Text, &gen.CreatedAt, &gen.ExpiresAt)

	if err == sql.ErrNoRows {
		s.misses.Add(1)
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}

	if gen.ExpiresAt != 0 && gen.ExpiresAt < time.Now().UnixMilli() {
		if derr := s.Delete(ctx, id); derr != nil {
			log.Printf("cache: delete expired %s: %v", id, derr)
		}
		s.misses.Add(1)
		return nil, nil
	}

	if err := json.Unmarshal([]byte(rawInputs), &gen.Inputs); err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if !gen.Inputs.Equal(in) {
		// 32-bit key collision: wrong artifact under this id.
		log.Printf("cache: key collision on %s, treating as miss", id)
		s.misses.Add(1)
		return nil, nil
	}

	gen.NodeKind = models.NodeKind(kind)
	s.hits.Add(1)
	return &gen, nil
}

// Delete removes a single record. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

// ClearByNode removes every record owned by a node and returns how many
// were removed.
func (s *Store) ClearByNode(ctx context.Context, nodeID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE node_id = ?`, nodeID)
	if err != nil {
		return 0, &StorageError{Op: "clear node", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "clear node", Err: err}
	}
	return n, nil
}

// CleanExpired removes every record whose expiry has passed. Records
// with expires_at = 0 never expire.
func (s *Store) CleanExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generations WHERE expires_at > 0 AND expires_at < ?`,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, &StorageError{Op: "clean expired", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "clean expired", Err: err}
	}
	return n, nil
}

// ClearAll removes every record. Destructive; reserved for an explicit
// user action.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generations`); err != nil {
		return &StorageError{Op: "clear all", Err: err}
	}
	return nil
}

// Stats returns entry count, an estimated total size, and hit/miss
// counters for this process.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`).Scan(&count); err != nil {
		return models.CacheStats{}, &StorageError{Op: "stats", Err: err}
	}
	return models.CacheStats{
		Entries:       count,
		EstimatedSize: count * averageGenerationSize,
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
	}, nil
}

// StartSweeper launches a background loop that runs CleanExpired at the
// given interval. Lazy expiry in Get already keeps lookups correct; the
// sweeper just reclaims space. Calling it more than once is a no-op.
func (s *Store) StartSweeper(interval time.Duration) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.sweeping {
		return
	}
	s.sweeping = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if n, err := s.CleanExpired(context.Background()); err != nil {
					log.Printf("cache: sweep: %v", err)
				} else if n > 0 {
					log.Printf("cache: swept %d expired entries", n)
				}
			}
		}
	}()
}

// Close stops the sweeper and releases the database connection.
func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.db.Close()
}
