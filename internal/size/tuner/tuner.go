// Package tuner maintains the damping timescale that converts the size
// controller's error signal into a boundary-shape adjustment rate. The
// controller's per-cycle outputs (suggested timescale override and the
// discontinuity flag) feed directly into it.
package tuner

import (
	"fmt"
	"math"
)

// Config bounds and paces timescale adjustment. Zero values fall back to
// defaults in New.
type Config struct {
	InitialTimescale float64
	MinTimescale     float64
	MaxTimescale     float64

	// IncreaseFactor is applied after QuietTicks consecutive cycles with
	// |error| below ErrTolerance. Slightly above unity.
	IncreaseFactor float64
	// DecreaseFactor is applied whenever |error| exceeds ErrThreshold.
	// Slightly below unity.
	DecreaseFactor float64

	ErrTolerance float64
	ErrThreshold float64
	QuietTicks   int
}

// Tuner adjusts one horizon's damping timescale. Not safe for concurrent
// use; the control loop is single-threaded.
type Tuner struct {
	timescale    float64
	min          float64
	max          float64
	increase     float64
	decrease     float64
	errTolerance float64
	errThreshold float64
	quietTicks   int
	quietStreak  int
}

func New(cfg Config) (*Tuner, error) {
	if cfg.MinTimescale <= 0 {
		cfg.MinTimescale = 1e-4
	}
	if cfg.MaxTimescale <= 0 {
		cfg.MaxTimescale = 20.0
	}
	if cfg.MaxTimescale < cfg.MinTimescale {
		return nil, fmt.Errorf("tuner: max timescale %g below min %g", cfg.MaxTimescale, cfg.MinTimescale)
	}
	if cfg.InitialTimescale <= 0 {
		cfg.InitialTimescale = cfg.MaxTimescale / 10
	}
	if cfg.IncreaseFactor <= 1 {
		cfg.IncreaseFactor = 1.01
	}
	if cfg.DecreaseFactor <= 0 || cfg.DecreaseFactor >= 1 {
		cfg.DecreaseFactor = 0.98
	}
	if cfg.ErrTolerance <= 0 {
		cfg.ErrTolerance = 1e-4
	}
	if cfg.ErrThreshold <= cfg.ErrTolerance {
		cfg.ErrThreshold = cfg.ErrTolerance * 10
	}
	if cfg.QuietTicks <= 0 {
		cfg.QuietTicks = 3
	}
	return &Tuner{
		timescale:    clamp(cfg.InitialTimescale, cfg.MinTimescale, cfg.MaxTimescale),
		min:          cfg.MinTimescale,
		max:          cfg.MaxTimescale,
		increase:     cfg.IncreaseFactor,
		decrease:     cfg.DecreaseFactor,
		errTolerance: cfg.ErrTolerance,
		errThreshold: cfg.ErrThreshold,
		quietTicks:   cfg.QuietTicks,
	}, nil
}

// Timescale returns the current damping timescale.
func (t *Tuner) Timescale() float64 { return t.timescale }

// Suggest applies a controller override: the timescale is set to the
// suggestion (clamped) and the quiet streak restarts.
func (t *Tuner) Suggest(timescale float64) {
	t.timescale = clamp(timescale, t.min, t.max)
	t.quietStreak = 0
}

// Reset discards accumulated smoothing state. Called on cycles where the
// controller reports a discontinuous change, so stale error history from
// the previous operating mode cannot drive an adjustment.
func (t *Tuner) Reset() {
	t.quietStreak = 0
}

// Observe feeds one control-error sample into the adjustment loop.
// Large errors shrink the timescale immediately; the timescale grows only
// after a full quiet streak, so a single calm cycle between excursions
// cannot relax the control.
func (t *Tuner) Observe(controlError float64) {
	abs := math.Abs(controlError)
	switch {
	case abs > t.errThreshold:
		t.timescale = clamp(t.timescale*t.decrease, t.min, t.max)
		t.quietStreak = 0
	case abs < t.errTolerance:
		t.quietStreak++
		if t.quietStreak >= t.quietTicks {
			t.timescale = clamp(t.timescale*t.increase, t.min, t.max)
			t.quietStreak = 0
		}
	default:
		t.quietStreak = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
