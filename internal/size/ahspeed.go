package size

import (
	"fmt"
	"strings"
)

// AhSpeed holds the minimum characteristic speed at or above
// Info.TargetCharSpeed instead of controlling the boundary radius. It is
// entered only when the char speed is in imminent danger that DeltaR
// cannot rescue, and hands control back to DeltaR once the speed has
// climbed past the target and the comoving speed is healthy again.
type AhSpeed struct{}

func (AhSpeed) Name() Label { return LabelAhSpeed }

func (AhSpeed) Clone() State { return AhSpeed{} }

func (AhSpeed) Update(info *Info, args StateUpdateArgs, crossing CrossingTimeInfo) string {
	checkUpdateContract(info, crossing)

	boundaryDanger := crossing.BoundaryWillReachHorizonFirst &&
		crossing.timeToBoundaryOrInf() < info.DampingTime*deltaRDangerMargin
	speedDanger := crossing.CharSpeedWillReachZeroFirst &&
		crossing.timeToCharSpeedOrInf() < info.DampingTime &&
		!boundaryDanger

	var b strings.Builder

	switch {
	case boundaryDanger:
		// Nothing AhSpeed can do about a boundary crossing beyond asking
		// for a faster tuner response.
		info.setSuggestedTimeScale(crossing.TimeToBoundary)
		b.WriteString("Current state AhSpeed. Delta radius in danger. Staying in AhSpeed.\n")
		fmt.Fprintf(&b, " Suggested timescale = %g", info.SuggestedTimeScale)

	case speedDanger:
		info.setSuggestedTimeScale(crossing.TimeToCharSpeed)
		b.WriteString("Current state AhSpeed. Char speed in danger. Staying in AhSpeed.\n")
		fmt.Fprintf(&b, " Suggested timescale = %g", info.SuggestedTimeScale)

	case args.MinCharSpeed > info.TargetCharSpeed &&
		args.MinComovingCharSpeed > 0 &&
		!crossing.HasTimeToComovingCharSpeed:
		// Danger has passed: the speed sits above target and DeltaR can
		// hold it there via the comoving speed. The entry-time target
		// padding guarantees this branch cannot fire on the cycle AhSpeed
		// was entered.
		info.DiscontinuousChangeOccurred = true
		info.State = DeltaR{}
		fmt.Fprintf(&b,
			"Current state AhSpeed. Min char speed %g above target %g and comoving char speed healthy. Switching to DeltaR.",
			args.MinCharSpeed, info.TargetCharSpeed)

	default:
		b.WriteString("Current state AhSpeed. No change necessary. Staying in AhSpeed.")
	}

	return b.String()
}

// ControlError converts the speed shortfall relative to the target into a
// radius-rate error via the averaged surface normal projection.
func (AhSpeed) ControlError(info Info, args ControlErrorArgs) float64 {
	return args.AvgNormalDotUnitVector * (info.TargetCharSpeed - args.MinCharSpeed)
}
