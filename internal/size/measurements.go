package size

import "math"

// CrossingTimeInfo is the per-cycle snapshot produced by the horizon
// predictor. Crossing times are optional: the Has* flag is the presence
// indicator, the value is meaningful only when its flag is set. The two
// *First flags are precomputed tie-break indicators and are mutually
// exclusive; both set at once means a predictor bug.
type CrossingTimeInfo struct {
	// BoundaryWillReachHorizonFirst is set when the excision boundary is
	// predicted to hit the horizon before the char speed crosses zero.
	BoundaryWillReachHorizonFirst bool
	HasTimeToBoundary             bool
	TimeToBoundary                float64

	// CharSpeedWillReachZeroFirst is set when the min char speed is
	// predicted to cross zero before the boundary reaches the horizon.
	CharSpeedWillReachZeroFirst bool
	HasTimeToCharSpeed          bool
	TimeToCharSpeed             float64

	// Comoving crossing is present only when the comoving char speed is
	// itself predicted to cross zero.
	HasTimeToComovingCharSpeed bool
	TimeToComovingCharSpeed    float64
}

// timeToBoundaryOrInf treats an absent prediction as never-crossing for
// threshold comparisons. Infinity is a comparison convenience only; the
// stored representation stays the Has flag plus value.
func (c CrossingTimeInfo) timeToBoundaryOrInf() float64 {
	if !c.HasTimeToBoundary {
		return math.Inf(1)
	}
	return c.TimeToBoundary
}

func (c CrossingTimeInfo) timeToCharSpeedOrInf() float64 {
	if !c.HasTimeToCharSpeed {
		return math.Inf(1)
	}
	return c.TimeToCharSpeed
}

// StateUpdateArgs carries the per-cycle measurements consumed by Update.
type StateUpdateArgs struct {
	// ControlError is the measured boundary-radius control error.
	ControlError float64
	// MinComovingCharSpeed is sign-significant: a negative value means
	// staying in DeltaR cannot rescue the char speed.
	MinComovingCharSpeed float64
	MinCharSpeed         float64
}

// ControlErrorArgs carries the per-substep measurements consumed by
// ControlError. ControlError is the boundary-radius error used by DeltaR;
// the remaining fields are read only by speed-targeting states.
type ControlErrorArgs struct {
	ControlError float64

	MinCharSpeed float64
	// AvgNormalDotUnitVector is the surface average of the distorted-frame
	// unit normal dotted into the radial coordinate direction. Converts a
	// speed discrepancy into a radius-rate control error.
	AvgNormalDotUnitVector float64
}
