package size

import (
	"fmt"
	"math"
	"strings"
)

// Calibrated constants for the DeltaR decision procedure. All four were
// tuned empirically against binary-merger runs; nothing downstream is
// sensitive to small changes in the 0.99/1.01 factors, but errThreshold
// may need tightening if size control ever has to be very tight.
const (
	// deltaRErrThreshold: above this |control error| the timescale is
	// shrunk to keep the error small even when nothing is in danger.
	deltaRErrThreshold = 1e-3

	// deltaRDangerMargin scales the damping time when testing whether the
	// boundary crossing is imminent. Slightly below unity.
	deltaRDangerMargin = 0.99

	// antiOscillationFactor pads the char-speed target on entry to
	// AhSpeed so the fresh target is not immediately satisfied, which
	// would bounce the controller straight back. Slightly above unity.
	antiOscillationFactor = 1.01

	// deltaRShrinkFactor shrinks the damping time when the control error
	// is large but nothing is in danger. Slightly below unity.
	deltaRShrinkFactor = 0.99
)

// DeltaR is the default, steady-state control state: it drives the
// boundary-radius control error to zero while watching two independent
// danger predictors. Stateless; all working parameters live on Info.
type DeltaR struct{}

func (DeltaR) Name() Label { return LabelDeltaR }

func (DeltaR) Clone() State { return DeltaR{} }

// Update runs the DeltaR decision procedure. Exactly one branch fires:
// boundary danger outranks char-speed danger, which outranks the
// large-error timescale shrink, which outranks no-op.
func (DeltaR) Update(info *Info, args StateUpdateArgs, crossing CrossingTimeInfo) string {
	checkUpdateContract(info, crossing)

	boundaryDanger := crossing.BoundaryWillReachHorizonFirst &&
		crossing.timeToBoundaryOrInf() < info.DampingTime*deltaRDangerMargin
	speedDanger := crossing.CharSpeedWillReachZeroFirst &&
		crossing.timeToCharSpeedOrInf() < info.DampingTime &&
		!boundaryDanger

	var b strings.Builder

	switch {
	case speedDanger:
		b.WriteString("Current state DeltaR. Char speed in danger.")
		if crossing.HasTimeToComovingCharSpeed || args.MinComovingCharSpeed < 0 {
			// The comoving char speed is negative or about to cross zero,
			// so staying in DeltaR cannot rescue the char speed.
			info.DiscontinuousChangeOccurred = true
			info.State = AhSpeed{}
			info.TargetCharSpeed = args.MinCharSpeed * antiOscillationFactor
			fmt.Fprintf(&b, " Switching to AhSpeed.\n Target char speed = %g\n", info.TargetCharSpeed)
		} else {
			// A positive, non-crossing comoving speed means DeltaR will
			// rescue the char speed on its own; only the timescale needs
			// to come down.
			b.WriteString(" Staying in DeltaR.\n")
		}
		info.setSuggestedTimeScale(crossing.TimeToCharSpeed)
		fmt.Fprintf(&b, " Suggested timescale = %g", info.SuggestedTimeScale)

	case boundaryDanger:
		info.setSuggestedTimeScale(crossing.TimeToBoundary)
		b.WriteString("Current state DeltaR. Delta radius in danger. Staying in DeltaR.\n")
		fmt.Fprintf(&b, " Suggested timescale = %g", info.SuggestedTimeScale)

	case args.MinComovingCharSpeed > 0 && math.Abs(args.ControlError) > deltaRErrThreshold:
		info.setSuggestedTimeScale(info.DampingTime * deltaRShrinkFactor)
		fmt.Fprintf(&b,
			"Current state DeltaR. Min comoving char speed %g > 0 and abs(control error) %g > threshold %g. Staying in DeltaR.\n",
			args.MinComovingCharSpeed, math.Abs(args.ControlError), deltaRErrThreshold)
		fmt.Fprintf(&b, " Suggested timescale = %g", info.SuggestedTimeScale)

	default:
		b.WriteString("Current state DeltaR. No change necessary. Staying in DeltaR.")
	}
	// Transitions to DeltaRDriftInward and DeltaRDriftOutward will hook in
	// here once their trigger conditions are settled.

	return b.String()
}

// ControlError is the identity passthrough: DeltaR's error signal is
// exactly the measured boundary-radius error.
func (DeltaR) ControlError(_ Info, args ControlErrorArgs) float64 {
	return args.ControlError
}
