package size

// Info is the single mutable record for one tracked horizon. It owns the
// active state and is mutated only by the active state's Update. One Info
// per horizon; concurrent calls on the same Info are unsupported.
type Info struct {
	// State is the active control state. Replaced atomically from the
	// caller's view when a transition fires.
	State State

	// DampingTime is written by the tuner before every Update. Always
	// positive.
	DampingTime float64

	// TargetCharSpeed is meaningful only while State is AhSpeed.
	TargetCharSpeed float64

	// SuggestedTimeScale, when present, is the positive corrective
	// timescale the state asks the tuner to adopt. Cleared by the caller
	// after it is consumed.
	HasSuggestedTimeScale bool
	SuggestedTimeScale    float64

	// DiscontinuousChangeOccurred is a one-shot flag: true exactly on the
	// cycle a transition fires, so the tuner can reset its smoothing
	// state.
	DiscontinuousChangeOccurred bool
}

// NewInfo returns the pre-first-measurement record for one horizon.
func NewInfo(dampingTime float64) *Info {
	return &Info{
		State:       Initial{},
		DampingTime: dampingTime,
	}
}

// Clone returns an independent deep copy, including the owned state.
func (i *Info) Clone() *Info {
	out := *i
	out.State = i.State.Clone()
	return &out
}

// setSuggestedTimeScale records a timescale suggestion for the tuner.
func (i *Info) setSuggestedTimeScale(t float64) {
	i.HasSuggestedTimeScale = true
	i.SuggestedTimeScale = t
}

// ClearSuggestion resets the one-shot outputs after the tuner has
// consumed them.
func (i *Info) ClearSuggestion() {
	i.HasSuggestedTimeScale = false
	i.SuggestedTimeScale = 0
	i.DiscontinuousChangeOccurred = false
}
