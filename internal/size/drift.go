package size

// DeltaRDriftInward and DeltaRDriftOutward are reserved pre-emptive
// radius-drift strategies. Their trigger conditions are not settled yet,
// so they are registered in the variant set and the codec but refuse to
// run: reaching one of them at runtime is a wiring bug, not a supported
// configuration.

type DeltaRDriftInward struct{}

func (DeltaRDriftInward) Name() Label { return LabelDeltaRDriftInward }

func (DeltaRDriftInward) Clone() State { return DeltaRDriftInward{} }

func (DeltaRDriftInward) Update(*Info, StateUpdateArgs, CrossingTimeInfo) string {
	panic("size control: DeltaRDriftInward is reserved and not yet supported")
}

func (DeltaRDriftInward) ControlError(Info, ControlErrorArgs) float64 {
	panic("size control: DeltaRDriftInward is reserved and not yet supported")
}

type DeltaRDriftOutward struct{}

func (DeltaRDriftOutward) Name() Label { return LabelDeltaRDriftOutward }

func (DeltaRDriftOutward) Clone() State { return DeltaRDriftOutward{} }

func (DeltaRDriftOutward) Update(*Info, StateUpdateArgs, CrossingTimeInfo) string {
	panic("size control: DeltaRDriftOutward is reserved and not yet supported")
}

func (DeltaRDriftOutward) ControlError(Info, ControlErrorArgs) float64 {
	panic("size control: DeltaRDriftOutward is reserved and not yet supported")
}
