package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/samueltootle/spectre/internal/domain/model"
)

// DecisionRepository persists per-cycle controller decisions.
type DecisionRepository interface {
	Insert(ctx context.Context, rec *model.DecisionRecord) error
	ListByRun(ctx context.Context, runID uuid.UUID, horizon string) ([]model.DecisionRecord, error)
}

// CheckpointStore persists serialized controller state so a run can be
// restored bit-for-bit across a restart.
type CheckpointStore interface {
	Save(ctx context.Context, runID uuid.UUID, horizon string, snapshot []byte) error
	Load(ctx context.Context, runID uuid.UUID, horizon string) ([]byte, error)
}
