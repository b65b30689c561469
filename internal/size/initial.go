package size

// Initial is the pre-first-measurement default. The first Update hands
// off to DeltaR: it runs the DeltaR decision procedure on the fresh
// measurements and leaves DeltaR (or whatever DeltaR transitioned to) as
// the active state. The handoff itself is smooth, so it does not set the
// one-shot discontinuity flag unless DeltaR's own logic fired a
// transition.
type Initial struct{}

func (Initial) Name() Label { return LabelInitial }

func (Initial) Clone() State { return Initial{} }

func (Initial) Update(info *Info, args StateUpdateArgs, crossing CrossingTimeInfo) string {
	info.State = DeltaR{}
	return "Current state Initial. First measurement received. Handing off to DeltaR.\n" +
		DeltaR{}.Update(info, args, crossing)
}

func (Initial) ControlError(_ Info, args ControlErrorArgs) float64 {
	return args.ControlError
}
