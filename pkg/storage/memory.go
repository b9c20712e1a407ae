package storage

import (
	"context"
	"sync"

	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// Memory is an in-memory Store, used in tests and throwaway sessions.
type Memory struct {
	mu        sync.RWMutex
	artifacts map[string]models.Artifact
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string]models.Artifact)}
}

func (m *Memory) Save(_ context.Context, id string, artifact models.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[id] = artifact
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (*models.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	artifact, ok := m.artifacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &artifact, nil
}

func (m *Memory) Close() error { return nil }
