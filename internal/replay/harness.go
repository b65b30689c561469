// Package replay drives the size controller through a recorded
// measurement trace and reports any divergence from the recorded
// decision sequence. Used both as a regression harness and for
// validating controller changes against archived runs.
package replay

import (
	"context"
	"fmt"

	"github.com/samueltootle/spectre/internal/driver"
	"github.com/samueltootle/spectre/internal/size/tuner"
)

// Divergence records a field-level mismatch between a replayed decision
// and the fixture's expectation.
type Divergence struct {
	Cycle    int64  `json:"cycle"`
	Field    string `json:"field"`
	Got      string `json:"got"`
	Expected string `json:"expected"`
}

// Result holds the outcome of replaying one fixture.
type Result struct {
	CyclesRun  int          `json:"cycles_run"`
	Matching   int          `json:"matching"`
	Divergent  []Divergence `json:"divergent"`
	FinalState string       `json:"final_state"`
}

// HasMismatch reports whether any replayed cycle diverged.
func (r *Result) HasMismatch() bool {
	return len(r.Divergent) > 0
}

// Harness replays fixtures through a fresh controller.
type Harness struct {
	tunerCfg tuner.Config
}

func NewHarness(tunerCfg tuner.Config) *Harness {
	return &Harness{tunerCfg: tunerCfg}
}

// Run replays every cycle of the fixture and compares decisions
// field-by-field. The comparison is keyed on cycle order; the controller
// is deterministic, so any mismatch is a real behavior change.
func (h *Harness) Run(ctx context.Context, fixture *Fixture) (*Result, error) {
	tn, err := tuner.New(h.tunerCfg)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	d, err := driver.New(driver.Options{
		Horizon: fixture.Horizon,
		Tuner:   tn,
	})
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	result := &Result{}
	for _, cycle := range fixture.Cycles {
		out, err := d.Tick(ctx, driver.Measurements{
			Time:                 cycle.Time,
			BoundaryHorizonGap:   cycle.BoundaryHorizonGap,
			MinCharSpeed:         cycle.MinCharSpeed,
			MinComovingCharSpeed: cycle.MinComovingCharSpeed,
			ControlError:         cycle.ControlError,
		})
		if err != nil {
			return nil, fmt.Errorf("replay cycle %d: %w", result.CyclesRun+1, err)
		}
		result.CyclesRun++
		result.FinalState = string(out.StateAfter)

		divergences := compareCycle(out, cycle.Expected)
		if len(divergences) == 0 {
			result.Matching++
		} else {
			result.Divergent = append(result.Divergent, divergences...)
		}
	}
	return result, nil
}

func compareCycle(out driver.Outcome, expected ExpectedDecision) []Divergence {
	var divs []Divergence
	if string(out.StateAfter) != expected.State {
		divs = append(divs, Divergence{
			Cycle:    out.Cycle,
			Field:    "state",
			Got:      string(out.StateAfter),
			Expected: expected.State,
		})
	}
	if out.Transitioned != expected.Transitioned {
		divs = append(divs, Divergence{
			Cycle:    out.Cycle,
			Field:    "transitioned",
			Got:      fmt.Sprintf("%t", out.Transitioned),
			Expected: fmt.Sprintf("%t", expected.Transitioned),
		})
	}
	if out.HasSuggestion != expected.HasSuggestion {
		divs = append(divs, Divergence{
			Cycle:    out.Cycle,
			Field:    "has_suggestion",
			Got:      fmt.Sprintf("%t", out.HasSuggestion),
			Expected: fmt.Sprintf("%t", expected.HasSuggestion),
		})
	} else if out.HasSuggestion && !nearlyEqual(out.SuggestedTimeScale, expected.SuggestedTimeScale) {
		divs = append(divs, Divergence{
			Cycle:    out.Cycle,
			Field:    "suggested_time_scale",
			Got:      fmt.Sprintf("%g", out.SuggestedTimeScale),
			Expected: fmt.Sprintf("%g", expected.SuggestedTimeScale),
		})
	}
	return divs
}

// nearlyEqual tolerates the rounding noise a fixture picks up from its
// JSON round trip.
func nearlyEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-9
}
