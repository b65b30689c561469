package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samueltootle/spectre/internal/domain/model"
)

func newMockRepo(t *testing.T) (*DecisionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDecisionRepo(&DB{db}), mock
}

func sampleRecord() *model.DecisionRecord {
	return &model.DecisionRecord{
		ID:                          uuid.New(),
		RunID:                       uuid.New(),
		Horizon:                     "ah-a",
		Cycle:                       7,
		StateBefore:                 "DeltaR",
		StateAfter:                  "AhSpeed",
		DampingTime:                 1.0,
		ControlError:                0.01,
		HasSuggestedTimeScale:       true,
		SuggestedTimeScale:          0.5,
		DiscontinuousChangeOccurred: true,
		Diagnostics:                 "Current state DeltaR. Char speed in danger.",
	}
}

func TestDecisionRepo_Insert(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO control_decisions").
		WithArgs(rec.ID, rec.RunID, rec.Horizon, rec.Cycle, rec.StateBefore, rec.StateAfter,
			rec.DampingTime, rec.ControlError, rec.HasSuggestedTimeScale,
			rec.SuggestedTimeScale, rec.DiscontinuousChangeOccurred, rec.Diagnostics).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionRepo_InsertPropagatesError(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO control_decisions").
		WillReturnError(assert.AnError)

	err := repo.Insert(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert decision")
}

func TestDecisionRepo_ListByRun(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "run_id", "horizon", "cycle", "state_before", "state_after",
		"damping_time", "control_error", "has_suggested_time_scale",
		"suggested_time_scale", "discontinuous_change_occurred", "diagnostics", "created_at",
	}).AddRow(rec.ID, rec.RunID, rec.Horizon, rec.Cycle, rec.StateBefore, rec.StateAfter,
		rec.DampingTime, rec.ControlError, rec.HasSuggestedTimeScale,
		rec.SuggestedTimeScale, rec.DiscontinuousChangeOccurred, rec.Diagnostics, now)

	mock.ExpectQuery("SELECT (.+) FROM control_decisions").
		WithArgs(rec.RunID, rec.Horizon).
		WillReturnRows(rows)

	got, err := repo.ListByRun(context.Background(), rec.RunID, rec.Horizon)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Cycle, got[0].Cycle)
	assert.Equal(t, rec.StateAfter, got[0].StateAfter)
	assert.Equal(t, rec.SuggestedTimeScale, got[0].SuggestedTimeScale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionRepo_ListByRunEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM control_decisions").
		WithArgs(runID, "ah-a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.ListByRun(context.Background(), runID, "ah-a")
	require.NoError(t, err)
	assert.Empty(t, got)
}
