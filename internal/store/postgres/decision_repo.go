package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samueltootle/spectre/internal/domain/model"
)

type DecisionRepo struct {
	db *DB
}

func NewDecisionRepo(db *DB) *DecisionRepo {
	return &DecisionRepo{db: db}
}

func (r *DecisionRepo) Insert(ctx context.Context, rec *model.DecisionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO control_decisions (
			id, run_id, horizon, cycle, state_before, state_after,
			damping_time, control_error, has_suggested_time_scale,
			suggested_time_scale, discontinuous_change_occurred, diagnostics
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, rec.RunID, rec.Horizon, rec.Cycle, rec.StateBefore, rec.StateAfter,
		rec.DampingTime, rec.ControlError, rec.HasSuggestedTimeScale,
		rec.SuggestedTimeScale, rec.DiscontinuousChangeOccurred, rec.Diagnostics)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *DecisionRepo) ListByRun(ctx context.Context, runID uuid.UUID, horizon string) ([]model.DecisionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, horizon, cycle, state_before, state_after,
			damping_time, control_error, has_suggested_time_scale,
			suggested_time_scale, discontinuous_change_occurred, diagnostics, created_at
		FROM control_decisions
		WHERE run_id = $1 AND horizon = $2
		ORDER BY cycle
	`, runID, horizon)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []model.DecisionRecord
	for rows.Next() {
		var rec model.DecisionRecord
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Horizon, &rec.Cycle, &rec.StateBefore, &rec.StateAfter,
			&rec.DampingTime, &rec.ControlError, &rec.HasSuggestedTimeScale,
			&rec.SuggestedTimeScale, &rec.DiscontinuousChangeOccurred, &rec.Diagnostics, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}
