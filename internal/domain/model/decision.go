package model

import (
	"time"

	"github.com/google/uuid"
)

// DecisionRecord is one coarse-cycle outcome of the size controller,
// persisted for post-run analysis and replay comparison.
type DecisionRecord struct {
	ID      uuid.UUID `db:"id"`
	RunID   uuid.UUID `db:"run_id"`
	Horizon string    `db:"horizon"`
	Cycle   int64     `db:"cycle"`

	StateBefore string `db:"state_before"`
	StateAfter  string `db:"state_after"`

	DampingTime                 float64 `db:"damping_time"`
	ControlError                float64 `db:"control_error"`
	HasSuggestedTimeScale       bool    `db:"has_suggested_time_scale"`
	SuggestedTimeScale          float64 `db:"suggested_time_scale"`
	DiscontinuousChangeOccurred bool    `db:"discontinuous_change_occurred"`

	Diagnostics string    `db:"diagnostics"`
	CreatedAt   time.Time `db:"created_at"`
}
