// Package predictor extrapolates horizon-tracking measurements to
// estimate when the excision boundary would reach the horizon and when
// the characteristic speeds would cross zero, and condenses the result
// into the crossing-time snapshot consumed by the size controller.
package predictor

import (
	"github.com/samueltootle/spectre/internal/size"
)

const defaultWindowSize = 4

// Sample is one coarse-cycle measurement of the tracked horizon.
type Sample struct {
	Time float64
	// BoundaryHorizonGap is the distance between the excision boundary
	// and the horizon; a crossing happens when it reaches zero.
	BoundaryHorizonGap   float64
	MinCharSpeed         float64
	MinComovingCharSpeed float64
}

// Predictor fits the recent sample window of each danger series and
// extrapolates its zero crossing. One Predictor per tracked horizon.
type Predictor struct {
	window  int
	samples []Sample
}

func New(windowSize int) *Predictor {
	if windowSize < 2 {
		windowSize = defaultWindowSize
	}
	return &Predictor{window: windowSize}
}

// Record appends one measurement, evicting the oldest once the window is
// full. Samples must arrive in time order; out-of-order samples are
// dropped.
func (p *Predictor) Record(s Sample) {
	if n := len(p.samples); n > 0 && s.Time <= p.samples[n-1].Time {
		return
	}
	p.samples = append(p.samples, s)
	if len(p.samples) > p.window {
		p.samples = p.samples[1:]
	}
}

// Ready reports whether enough samples exist to extrapolate.
func (p *Predictor) Ready() bool {
	return len(p.samples) >= 2
}

// Predict extrapolates each series linearly over the sample window and
// returns the crossing-time snapshot for the current time (the newest
// sample's time). The two tie-break flags are mutually exclusive: the
// sooner crossing wins, boundary on an exact tie since it is the harder
// failure.
func (p *Predictor) Predict() size.CrossingTimeInfo {
	var info size.CrossingTimeInfo
	if !p.Ready() {
		return info
	}

	boundary, boundaryOK := p.crossingTime(func(s Sample) float64 { return s.BoundaryHorizonGap })
	charSpeed, charOK := p.crossingTime(func(s Sample) float64 { return s.MinCharSpeed })
	comoving, comovingOK := p.crossingTime(func(s Sample) float64 { return s.MinComovingCharSpeed })

	if boundaryOK {
		info.HasTimeToBoundary = true
		info.TimeToBoundary = boundary
	}
	if charOK {
		info.HasTimeToCharSpeed = true
		info.TimeToCharSpeed = charSpeed
	}
	if comovingOK {
		info.HasTimeToComovingCharSpeed = true
		info.TimeToComovingCharSpeed = comoving
	}

	switch {
	case boundaryOK && (!charOK || boundary <= charSpeed):
		info.BoundaryWillReachHorizonFirst = true
	case charOK:
		info.CharSpeedWillReachZeroFirst = true
	}

	return info
}

// crossingTime fits a least-squares line through the windowed series and
// returns the time from now until the fit reaches zero. No crossing is
// reported when the series moves away from zero or is already
// non-positive (that danger belongs to the current cycle's raw
// measurements, not a prediction).
func (p *Predictor) crossingTime(value func(Sample) float64) (float64, bool) {
	n := float64(len(p.samples))
	now := p.samples[len(p.samples)-1].Time

	var sumT, sumV, sumTT, sumTV float64
	for _, s := range p.samples {
		sumT += s.Time
		sumV += value(s)
		sumTT += s.Time * s.Time
		sumTV += s.Time * value(s)
	}
	det := n*sumTT - sumT*sumT
	if det == 0 {
		return 0, false
	}
	slope := (n*sumTV - sumT*sumV) / det
	intercept := (sumV - slope*sumT) / n

	current := slope*now + intercept
	if current <= 0 || slope >= 0 {
		return 0, false
	}
	return -current / slope, true
}
