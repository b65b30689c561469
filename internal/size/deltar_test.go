package size

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInfo(dampingTime float64) *Info {
	return &Info{State: DeltaR{}, DampingTime: dampingTime}
}

func TestDeltaR_BoundaryDangerStaysAndSuggestsCrossingTime(t *testing.T) {
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		BoundaryWillReachHorizonFirst: true,
		HasTimeToBoundary:             true,
		TimeToBoundary:                0.5,
	}

	diag := DeltaR{}.Update(info, StateUpdateArgs{}, crossing)

	assert.Equal(t, LabelDeltaR, info.State.Name())
	require.True(t, info.HasSuggestedTimeScale)
	assert.Equal(t, 0.5, info.SuggestedTimeScale)
	assert.False(t, info.DiscontinuousChangeOccurred)
	assert.Contains(t, diag, "Delta radius in danger")
}

func TestDeltaR_SpeedDangerSwitchesToAhSpeed(t *testing.T) {
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		CharSpeedWillReachZeroFirst: true,
		HasTimeToCharSpeed:          true,
		TimeToCharSpeed:             0.5,
	}
	args := StateUpdateArgs{
		MinComovingCharSpeed: -0.1,
		MinCharSpeed:         0.2,
	}

	diag := DeltaR{}.Update(info, args, crossing)

	assert.Equal(t, LabelAhSpeed, info.State.Name())
	assert.InDelta(t, 0.202, info.TargetCharSpeed, 1e-15)
	require.True(t, info.HasSuggestedTimeScale)
	assert.Equal(t, 0.5, info.SuggestedTimeScale)
	assert.True(t, info.DiscontinuousChangeOccurred)
	assert.Contains(t, diag, "Switching to AhSpeed")
}

func TestDeltaR_SpeedDangerComovingCrossingForcesSwitch(t *testing.T) {
	// Comoving speed is positive but itself predicted to cross zero, so
	// DeltaR cannot rescue the char speed.
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		CharSpeedWillReachZeroFirst: true,
		HasTimeToCharSpeed:          true,
		TimeToCharSpeed:             0.3,
		HasTimeToComovingCharSpeed:  true,
		TimeToComovingCharSpeed:     0.8,
	}
	args := StateUpdateArgs{MinComovingCharSpeed: 0.4, MinCharSpeed: 0.1}

	DeltaR{}.Update(info, args, crossing)

	assert.Equal(t, LabelAhSpeed, info.State.Name())
	assert.InDelta(t, 0.101, info.TargetCharSpeed, 1e-15)
	assert.True(t, info.DiscontinuousChangeOccurred)
}

func TestDeltaR_SpeedDangerSelfCorrectingStays(t *testing.T) {
	// Positive comoving speed with no predicted comoving crossing: DeltaR
	// rescues the speed on its own, only the timescale comes down.
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		CharSpeedWillReachZeroFirst: true,
		HasTimeToCharSpeed:          true,
		TimeToCharSpeed:             0.7,
	}
	args := StateUpdateArgs{MinComovingCharSpeed: 0.4, MinCharSpeed: 0.1}

	diag := DeltaR{}.Update(info, args, crossing)

	assert.Equal(t, LabelDeltaR, info.State.Name())
	require.True(t, info.HasSuggestedTimeScale)
	assert.Equal(t, 0.7, info.SuggestedTimeScale)
	assert.False(t, info.DiscontinuousChangeOccurred)
	assert.Contains(t, diag, "Staying in DeltaR")
}

func TestDeltaR_BoundaryDangerOutranksSpeedDanger(t *testing.T) {
	// Both crossing times below threshold; the tie-break flag says the
	// boundary goes first, and boundary danger must win regardless of the
	// char-speed prediction being present.
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		BoundaryWillReachHorizonFirst: true,
		HasTimeToBoundary:             true,
		TimeToBoundary:                0.4,
		HasTimeToCharSpeed:            true,
		TimeToCharSpeed:               0.5,
	}
	args := StateUpdateArgs{MinComovingCharSpeed: -0.1}

	DeltaR{}.Update(info, args, crossing)

	assert.Equal(t, LabelDeltaR, info.State.Name())
	assert.Equal(t, 0.4, info.SuggestedTimeScale)
	assert.False(t, info.DiscontinuousChangeOccurred)
}

func TestDeltaR_LargeErrorShrinksTimescale(t *testing.T) {
	info := newTestInfo(1.0)
	args := StateUpdateArgs{
		ControlError:         0.01,
		MinComovingCharSpeed: 0.5,
	}

	diag := DeltaR{}.Update(info, args, CrossingTimeInfo{})

	assert.Equal(t, LabelDeltaR, info.State.Name())
	require.True(t, info.HasSuggestedTimeScale)
	assert.InDelta(t, 0.99, info.SuggestedTimeScale, 1e-15)
	assert.Contains(t, diag, "Staying in DeltaR")
}

func TestDeltaR_SmallErrorNoChange(t *testing.T) {
	info := newTestInfo(1.0)
	args := StateUpdateArgs{
		ControlError:         0.0001,
		MinComovingCharSpeed: 0.5,
	}

	diag := DeltaR{}.Update(info, args, CrossingTimeInfo{})

	assert.Equal(t, LabelDeltaR, info.State.Name())
	assert.False(t, info.HasSuggestedTimeScale)
	assert.False(t, info.DiscontinuousChangeOccurred)
	assert.Contains(t, diag, "No change necessary")
}

func TestDeltaR_NegativeComovingSpeedWithoutDangerNoChange(t *testing.T) {
	// The large-error shrink requires a positive comoving speed.
	info := newTestInfo(1.0)
	args := StateUpdateArgs{
		ControlError:         0.5,
		MinComovingCharSpeed: -0.2,
	}

	DeltaR{}.Update(info, args, CrossingTimeInfo{})

	assert.False(t, info.HasSuggestedTimeScale)
}

func TestDeltaR_AbsentCrossingTimeIsNotDanger(t *testing.T) {
	// A raised tie-break flag without a crossing-time prediction compares
	// as never-crossing.
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{BoundaryWillReachHorizonFirst: true}

	DeltaR{}.Update(info, StateUpdateArgs{}, crossing)

	assert.Equal(t, LabelDeltaR, info.State.Name())
	assert.False(t, info.HasSuggestedTimeScale)
}

func TestDeltaR_BoundaryCrossingAtMarginIsNotDanger(t *testing.T) {
	// The boundary test uses damping_time * 0.99 as its threshold.
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		BoundaryWillReachHorizonFirst: true,
		HasTimeToBoundary:             true,
		TimeToBoundary:                0.995,
	}

	DeltaR{}.Update(info, StateUpdateArgs{}, crossing)

	assert.False(t, info.HasSuggestedTimeScale)
}

func TestDeltaR_ExactlyOneBranchFires(t *testing.T) {
	// Sweep a grid of inputs and check the branch outcomes are mutually
	// exclusive and total: every input lands in exactly one of switch,
	// boundary-stay, shrink, or no-op.
	dampingTime := 1.0
	times := []struct {
		has bool
		t   float64
	}{{false, 0}, {true, 0.5}, {true, 2.0}}

	for _, boundaryFirst := range []bool{false, true} {
		for _, speedFirst := range []bool{false, true} {
			if boundaryFirst && speedFirst {
				continue
			}
			for _, tb := range times {
				for _, ts := range times {
					for _, comoving := range []float64{-0.1, 0.0, 0.3} {
						for _, cerr := range []float64{0.0, 0.01} {
							info := newTestInfo(dampingTime)
							crossing := CrossingTimeInfo{
								BoundaryWillReachHorizonFirst: boundaryFirst,
								HasTimeToBoundary:             tb.has,
								TimeToBoundary:                tb.t,
								CharSpeedWillReachZeroFirst:   speedFirst,
								HasTimeToCharSpeed:            ts.has,
								TimeToCharSpeed:               ts.t,
							}
							args := StateUpdateArgs{
								ControlError:         cerr,
								MinComovingCharSpeed: comoving,
								MinCharSpeed:         0.2,
							}

							diag := DeltaR{}.Update(info, args, crossing)

							require.NotEmpty(t, diag)
							switched := info.State.Name() == LabelAhSpeed
							if switched {
								assert.True(t, info.DiscontinuousChangeOccurred)
								assert.True(t, info.HasSuggestedTimeScale)
							} else {
								assert.Equal(t, LabelDeltaR, info.State.Name())
								assert.False(t, info.DiscontinuousChangeOccurred)
							}
						}
					}
				}
			}
		}
	}
}

func TestDeltaR_ControlErrorIsPassthrough(t *testing.T) {
	for _, v := range []float64{-3.5, -1e-3, 0, 1e-9, 0.25} {
		got := DeltaR{}.ControlError(*newTestInfo(2.0), ControlErrorArgs{ControlError: v})
		assert.Equal(t, v, got)
	}
}

func TestDeltaR_UpdateRejectsNonPositiveDampingTime(t *testing.T) {
	info := newTestInfo(1.0)
	info.DampingTime = 0
	assert.Panics(t, func() {
		DeltaR{}.Update(info, StateUpdateArgs{}, CrossingTimeInfo{})
	})
}

func TestDeltaR_UpdateRejectsBothTieBreakFlags(t *testing.T) {
	info := newTestInfo(1.0)
	crossing := CrossingTimeInfo{
		BoundaryWillReachHorizonFirst: true,
		CharSpeedWillReachZeroFirst:   true,
	}
	assert.Panics(t, func() {
		DeltaR{}.Update(info, StateUpdateArgs{}, crossing)
	})
}
