package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fixture is a recorded measurement trace plus the decision sequence the
// controller is expected to reproduce.
type Fixture struct {
	Horizon string  `json:"horizon"`
	Cycles  []Cycle `json:"cycles"`
}

// Cycle pairs one coarse cycle's measurements with its expected
// decision.
type Cycle struct {
	Time                 float64 `json:"time"`
	BoundaryHorizonGap   float64 `json:"boundary_horizon_gap"`
	MinCharSpeed         float64 `json:"min_char_speed"`
	MinComovingCharSpeed float64 `json:"min_comoving_char_speed"`
	ControlError         float64 `json:"control_error"`

	Expected ExpectedDecision `json:"expected"`
}

// ExpectedDecision is the recorded outcome for one cycle.
type ExpectedDecision struct {
	State              string  `json:"state"`
	Transitioned       bool    `json:"transitioned"`
	HasSuggestion      bool    `json:"has_suggestion"`
	SuggestedTimeScale float64 `json:"suggested_time_scale"`
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Horizon == "" {
		return nil, fmt.Errorf("fixture %s: horizon is required", path)
	}
	if len(f.Cycles) == 0 {
		return nil, fmt.Errorf("fixture %s: no cycles", path)
	}
	for i := 1; i < len(f.Cycles); i++ {
		if f.Cycles[i].Time <= f.Cycles[i-1].Time {
			return nil, fmt.Errorf("fixture %s: cycle %d time not increasing", path, i)
		}
	}
	return &f, nil
}
