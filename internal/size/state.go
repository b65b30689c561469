package size

import "fmt"

// Label identifies a control state variant. The set is closed: the codec
// and every dispatch switch enumerate exactly these five.
type Label string

const (
	LabelInitial            Label = "Initial"
	LabelDeltaR             Label = "DeltaR"
	LabelAhSpeed            Label = "AhSpeed"
	LabelDeltaRDriftInward  Label = "DeltaRDriftInward"
	LabelDeltaRDriftOutward Label = "DeltaRDriftOutward"
)

// State is the contract every size-control state implements.
//
// Update may overwrite fields of info, including replacing the active
// state with a different variant, but never mutates its receiver. The
// returned text describes the decision for logging only; control logic
// never consumes it. ControlError is pure.
type State interface {
	Name() Label
	Clone() State
	Update(info *Info, args StateUpdateArgs, crossing CrossingTimeInfo) string
	ControlError(info Info, args ControlErrorArgs) float64
}

// NewState constructs the zero-parameter form of the named variant.
func NewState(label Label) (State, error) {
	switch label {
	case LabelInitial:
		return Initial{}, nil
	case LabelDeltaR:
		return DeltaR{}, nil
	case LabelAhSpeed:
		return AhSpeed{}, nil
	case LabelDeltaRDriftInward:
		return DeltaRDriftInward{}, nil
	case LabelDeltaRDriftOutward:
		return DeltaRDriftOutward{}, nil
	default:
		return nil, fmt.Errorf("unknown size-control state %q", label)
	}
}

// checkUpdateContract fails fast on inputs that indicate an upstream bug
// rather than a recoverable runtime condition.
func checkUpdateContract(info *Info, crossing CrossingTimeInfo) {
	if info.DampingTime <= 0 {
		panic(fmt.Sprintf("size control: damping time must be positive, got %g", info.DampingTime))
	}
	if crossing.BoundaryWillReachHorizonFirst && crossing.CharSpeedWillReachZeroFirst {
		panic("size control: boundary and char-speed crossings both flagged first")
	}
}
