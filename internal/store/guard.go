package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/samueltootle/spectre/internal/circuitbreaker"
	"github.com/samueltootle/spectre/internal/domain/model"
)

// GuardedDecisionRepo wraps a DecisionRepository with a circuit breaker.
// When the backend keeps failing the breaker opens and writes are
// rejected immediately instead of eating a timeout every control cycle.
type GuardedDecisionRepo struct {
	inner   DecisionRepository
	breaker *circuitbreaker.Breaker
}

func NewGuardedDecisionRepo(inner DecisionRepository, cfg circuitbreaker.Config) *GuardedDecisionRepo {
	if cfg.Name == "" {
		cfg.Name = "decisions"
	}
	return &GuardedDecisionRepo{
		inner:   inner,
		breaker: circuitbreaker.New(cfg),
	}
}

func (g *GuardedDecisionRepo) Insert(ctx context.Context, rec *model.DecisionRecord) error {
	if err := g.breaker.Allow(); err != nil {
		return err
	}
	if err := g.inner.Insert(ctx, rec); err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}

func (g *GuardedDecisionRepo) ListByRun(ctx context.Context, runID uuid.UUID, horizon string) ([]model.DecisionRecord, error) {
	if err := g.breaker.Allow(); err != nil {
		return nil, err
	}
	recs, err := g.inner.ListByRun(ctx, runID, horizon)
	if err != nil {
		g.breaker.RecordFailure()
		return nil, err
	}
	g.breaker.RecordSuccess()
	return recs, nil
}
