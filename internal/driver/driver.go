// Package driver runs the per-horizon control loop: it gathers each
// cycle's measurements, invokes the active control state, and routes the
// outcome to the tuner, the metrics surface, and the stores.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samueltootle/spectre/internal/alert"
	"github.com/samueltootle/spectre/internal/domain/model"
	"github.com/samueltootle/spectre/internal/metrics"
	"github.com/samueltootle/spectre/internal/size"
	"github.com/samueltootle/spectre/internal/size/predictor"
	"github.com/samueltootle/spectre/internal/size/tuner"
	"github.com/samueltootle/spectre/internal/store"
)

var allStateLabels = []size.Label{
	size.LabelInitial,
	size.LabelDeltaR,
	size.LabelAhSpeed,
	size.LabelDeltaRDriftInward,
	size.LabelDeltaRDriftOutward,
}

// Measurements is one coarse cycle's input from the horizon-finding
// pipeline.
type Measurements struct {
	Time                 float64
	BoundaryHorizonGap   float64
	MinCharSpeed         float64
	MinComovingCharSpeed float64
	ControlError         float64
}

// Outcome summarizes one cycle for the caller.
type Outcome struct {
	Cycle              int64
	StateBefore        size.Label
	StateAfter         size.Label
	Transitioned       bool
	SuggestedTimeScale float64
	HasSuggestion      bool
	DampingTime        float64
	Diagnostics        string
}

// Options configures a Driver. Decisions and Checkpoints are optional;
// nil disables persistence of that kind.
type Options struct {
	Horizon     string
	RunID       uuid.UUID
	Tuner       *tuner.Tuner
	Predictor   *predictor.Predictor
	Decisions   store.DecisionRepository
	Checkpoints store.CheckpointStore
	Logger      *slog.Logger
	Alerter     alert.Alerter

	// DiagnosticsPerSecond rate-limits per-cycle diagnostic log lines.
	// Zero means a sensible default; transitions always log.
	DiagnosticsPerSecond float64
}

// Driver owns exactly one Info and is not safe for concurrent use: the
// control loop is single-threaded by design.
type Driver struct {
	horizon     string
	runID       uuid.UUID
	info        *size.Info
	tuner       *tuner.Tuner
	predictor   *predictor.Predictor
	decisions   store.DecisionRepository
	checkpoints store.CheckpointStore
	logger      *slog.Logger
	alerter     alert.Alerter
	diagLimiter *rate.Limiter
	tracer      trace.Tracer
	cycle       int64
}

func New(opts Options) (*Driver, error) {
	if opts.Horizon == "" {
		return nil, fmt.Errorf("driver: horizon is required")
	}
	if opts.Tuner == nil {
		return nil, fmt.Errorf("driver: tuner is required")
	}
	if opts.Predictor == nil {
		opts.Predictor = predictor.New(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	if opts.Alerter == nil {
		opts.Alerter = &alert.NoopAlerter{}
	}
	perSecond := opts.DiagnosticsPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	return &Driver{
		horizon:     opts.Horizon,
		runID:       opts.RunID,
		info:        size.NewInfo(opts.Tuner.Timescale()),
		tuner:       opts.Tuner,
		predictor:   opts.Predictor,
		decisions:   opts.Decisions,
		checkpoints: opts.Checkpoints,
		logger:      opts.Logger.With("horizon", opts.Horizon),
		alerter:     opts.Alerter,
		diagLimiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		tracer:      otel.Tracer("sizecontrol/driver"),
	}, nil
}

// RunID identifies this driver's run in the decision and checkpoint
// stores.
func (d *Driver) RunID() uuid.UUID { return d.runID }

// ActiveState returns the active control state's tag.
func (d *Driver) ActiveState() size.Label { return d.info.State.Name() }

// Restore replaces the driver's state with the latest checkpoint, if one
// exists. Call before the first Tick.
func (d *Driver) Restore(ctx context.Context) error {
	if d.checkpoints == nil {
		return nil
	}
	snapshot, err := d.checkpoints.Load(ctx, d.runID, d.horizon)
	if err != nil {
		return fmt.Errorf("restore %s: %w", d.horizon, err)
	}
	if snapshot == nil {
		return nil
	}
	info, err := size.UnmarshalInfo(snapshot)
	if err != nil {
		return fmt.Errorf("restore %s: %w", d.horizon, err)
	}
	d.info = info
	d.logger.Info("state restored from checkpoint", "state", info.State.Name())
	return nil
}

// Tick runs one coarse control-update cycle.
func (d *Driver) Tick(ctx context.Context, m Measurements) (Outcome, error) {
	ctx, span := d.tracer.Start(ctx, "driver.tick",
		trace.WithAttributes(
			attribute.String("horizon", d.horizon),
			attribute.Int64("cycle", d.cycle),
		))
	defer span.End()

	d.cycle++
	metrics.UpdateCyclesTotal.WithLabelValues(d.horizon).Inc()

	d.predictor.Record(predictor.Sample{
		Time:                 m.Time,
		BoundaryHorizonGap:   m.BoundaryHorizonGap,
		MinCharSpeed:         m.MinCharSpeed,
		MinComovingCharSpeed: m.MinComovingCharSpeed,
	})
	crossing := d.predictor.Predict()

	// The tuner owns the damping time; stamp it before every update.
	d.info.DampingTime = d.tuner.Timescale()
	d.info.ClearSuggestion()

	before := d.info.State.Name()
	diagnostics := d.info.State.Update(d.info, size.StateUpdateArgs{
		ControlError:         m.ControlError,
		MinComovingCharSpeed: m.MinComovingCharSpeed,
		MinCharSpeed:         m.MinCharSpeed,
	}, crossing)
	after := d.info.State.Name()

	outcome := Outcome{
		Cycle:              d.cycle,
		StateBefore:        before,
		StateAfter:         after,
		Transitioned:       d.info.DiscontinuousChangeOccurred,
		HasSuggestion:      d.info.HasSuggestedTimeScale,
		SuggestedTimeScale: d.info.SuggestedTimeScale,
		DampingTime:        d.info.DampingTime,
		Diagnostics:        diagnostics,
	}

	d.applyToTuner(outcome)
	d.publishMetrics(outcome)
	d.logDiagnostics(outcome)
	d.notify(ctx, outcome)
	d.persist(ctx, outcome, m)

	span.SetAttributes(
		attribute.String("state", string(after)),
		attribute.Bool("transitioned", outcome.Transitioned),
	)
	return outcome, nil
}

// Substep runs one fine-cadence tuner substep and returns the control
// error fed to the tuner's primary loop.
func (d *Driver) Substep(args size.ControlErrorArgs) float64 {
	err := d.info.State.ControlError(*d.info, args)
	d.tuner.Observe(err)
	metrics.ControlErrorMagnitude.WithLabelValues(d.horizon).Observe(math.Abs(err))
	metrics.DampingTimescale.WithLabelValues(d.horizon).Set(d.tuner.Timescale())
	return err
}

func (d *Driver) applyToTuner(o Outcome) {
	if o.Transitioned {
		d.tuner.Reset()
	}
	if o.HasSuggestion {
		d.tuner.Suggest(o.SuggestedTimeScale)
	}
	metrics.DampingTimescale.WithLabelValues(d.horizon).Set(d.tuner.Timescale())
}

func (d *Driver) publishMetrics(o Outcome) {
	if o.Transitioned {
		metrics.StateTransitionsTotal.
			WithLabelValues(d.horizon, string(o.StateBefore), string(o.StateAfter)).Inc()
	}
	if o.HasSuggestion {
		metrics.TimescaleSuggestionsTotal.WithLabelValues(d.horizon, string(o.StateAfter)).Inc()
	}
	for _, label := range allStateLabels {
		v := 0.0
		if label == o.StateAfter {
			v = 1.0
		}
		metrics.ActiveState.WithLabelValues(d.horizon, string(label)).Set(v)
	}
}

func (d *Driver) logDiagnostics(o Outcome) {
	if o.Transitioned {
		d.logger.Info("control state transition",
			"cycle", o.Cycle,
			"from", o.StateBefore,
			"to", o.StateAfter,
			"diagnostics", o.Diagnostics,
		)
		return
	}
	if d.diagLimiter.Allow() {
		d.logger.Debug("control update",
			"cycle", o.Cycle,
			"state", o.StateAfter,
			"diagnostics", o.Diagnostics,
		)
	}
}

func (d *Driver) notify(ctx context.Context, o Outcome) {
	if !o.Transitioned {
		return
	}
	typ := alert.AlertTypeTransition
	if o.StateAfter == size.LabelDeltaR {
		typ = alert.AlertTypeRecovery
	}
	err := d.alerter.Send(ctx, alert.Alert{
		Type:    typ,
		Horizon: d.horizon,
		Title:   fmt.Sprintf("control state switched to %s", o.StateAfter),
		Message: o.Diagnostics,
		Fields: map[string]string{
			"cycle": fmt.Sprintf("%d", o.Cycle),
			"from":  string(o.StateBefore),
			"to":    string(o.StateAfter),
		},
	})
	if err != nil {
		d.logger.Warn("transition alert failed", "error", err)
	}
}

func (d *Driver) persist(ctx context.Context, o Outcome, m Measurements) {
	if d.decisions != nil {
		rec := &model.DecisionRecord{
			ID:                          uuid.New(),
			RunID:                       d.runID,
			Horizon:                     d.horizon,
			Cycle:                       o.Cycle,
			StateBefore:                 string(o.StateBefore),
			StateAfter:                  string(o.StateAfter),
			DampingTime:                 o.DampingTime,
			ControlError:                m.ControlError,
			HasSuggestedTimeScale:       o.HasSuggestion,
			SuggestedTimeScale:          o.SuggestedTimeScale,
			DiscontinuousChangeOccurred: o.Transitioned,
			Diagnostics:                 o.Diagnostics,
			CreatedAt:                   time.Now().UTC(),
		}
		if err := d.decisions.Insert(ctx, rec); err != nil {
			metrics.DecisionPersistErrors.WithLabelValues(d.horizon).Inc()
			d.logger.Error("persist decision failed", "cycle", o.Cycle, "error", err)
			if alertErr := d.alerter.Send(ctx, alert.Alert{
				Type:    alert.AlertTypePersistErr,
				Horizon: d.horizon,
				Title:   "decision write failed",
				Message: err.Error(),
				Fields:  map[string]string{"cycle": fmt.Sprintf("%d", o.Cycle)},
			}); alertErr != nil {
				d.logger.Warn("persist alert failed", "error", alertErr)
			}
		}
	}

	if d.checkpoints != nil {
		snapshot, err := size.MarshalInfo(d.info)
		if err != nil {
			d.logger.Error("marshal checkpoint failed", "cycle", o.Cycle, "error", err)
			return
		}
		if err := d.checkpoints.Save(ctx, d.runID, d.horizon, snapshot); err != nil {
			d.logger.Error("save checkpoint failed", "cycle", o.Cycle, "error", err)
			return
		}
		metrics.CheckpointWritesTotal.WithLabelValues(d.horizon).Inc()
	}
}
