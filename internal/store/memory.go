package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryCheckpoint is the process-local CheckpointStore twin, used when
// no Redis is configured and in tests.
type InMemoryCheckpoint struct {
	mu        sync.Mutex
	snapshots map[string][]byte
}

func NewInMemoryCheckpoint() *InMemoryCheckpoint {
	return &InMemoryCheckpoint{snapshots: make(map[string][]byte)}
}

func (s *InMemoryCheckpoint) Save(_ context.Context, runID uuid.UUID, horizon string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	s.snapshots[runID.String()+":"+horizon] = cp
	return nil
}

func (s *InMemoryCheckpoint) Load(_ context.Context, runID uuid.UUID, horizon string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.snapshots[runID.String()+":"+horizon]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
