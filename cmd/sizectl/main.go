package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/samueltootle/spectre/internal/alert"
	"github.com/samueltootle/spectre/internal/circuitbreaker"
	"github.com/samueltootle/spectre/internal/config"
	"github.com/samueltootle/spectre/internal/driver"
	"github.com/samueltootle/spectre/internal/replay"
	"github.com/samueltootle/spectre/internal/size"
	"github.com/samueltootle/spectre/internal/size/predictor"
	"github.com/samueltootle/spectre/internal/size/tuner"
	"github.com/samueltootle/spectre/internal/store"
	"github.com/samueltootle/spectre/internal/store/postgres"
	redispkg "github.com/samueltootle/spectre/internal/store/redis"
	"github.com/samueltootle/spectre/internal/tracing"
)

// syntheticSource produces a deterministic measurement stream for runs
// without a horizon-finder feed: the excision boundary relaxes toward a
// target gap while the characteristic speeds breathe slowly around a
// positive baseline.
type syntheticSource struct {
	step      int
	gap       float64
	targetGap float64
	dt        float64
}

func newSyntheticSource(dt float64) *syntheticSource {
	return &syntheticSource{gap: 12.0, targetGap: 10.0, dt: dt}
}

func (s *syntheticSource) next() driver.Measurements {
	t := float64(s.step) * s.dt
	s.step++

	// Exponential relaxation with a small oscillatory residue.
	s.gap = s.targetGap + (s.gap-s.targetGap)*0.98
	phase := math.Sin(t / 5.0)

	return driver.Measurements{
		Time:                 t,
		BoundaryHorizonGap:   s.gap,
		MinCharSpeed:         0.25 + 0.05*phase,
		MinComovingCharSpeed: 0.15 + 0.05*phase,
		ControlError:         (s.gap - s.targetGap) / s.targetGap,
	}
}

func buildDecisionRepo(cfg *config.Config, logger *slog.Logger) (store.DecisionRepository, func(), error) {
	if cfg.DB.URL == "" {
		logger.Info("no database configured, decision history disabled")
		return nil, func() {}, nil
	}
	db, err := postgres.New(postgres.Config{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.EnsureSchema(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("connected to database")

	guarded := store.NewGuardedDecisionRepo(postgres.NewDecisionRepo(db), circuitbreaker.Config{
		Name: "decisions",
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("decision store breaker state change", "from", from, "to", to)
		},
	})
	return guarded, func() { db.Close() }, nil
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	var channels []alert.Alerter
	if cfg.Alert.SlackWebhookURL != "" {
		channels = append(channels, alert.NewSlackAlerter(cfg.Alert.SlackWebhookURL))
	}
	if cfg.Alert.WebhookURL != "" {
		channels = append(channels, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
	}
	if len(channels) == 0 {
		return &alert.NoopAlerter{}
	}
	logger.Info("alerting enabled", "channels", len(channels), "cooldown", cfg.Alert.Cooldown)
	return alert.NewMultiAlerter(cfg.Alert.Cooldown, logger, channels...)
}

func buildCheckpointStore(cfg *config.Config, logger *slog.Logger) (store.CheckpointStore, error) {
	if cfg.Redis.URL == "" {
		logger.Info("no redis configured, using in-memory checkpoints")
		return store.NewInMemoryCheckpoint(), nil
	}
	cp, err := redispkg.NewCheckpoint(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("redis checkpoints enabled")
	return cp, nil
}

func runReplay(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fixture, err := replay.LoadFixture(cfg.Control.FixturePath)
	if err != nil {
		return err
	}

	h := replay.NewHarness(tuner.Config{
		InitialTimescale: cfg.Control.InitialTimescale,
		MinTimescale:     cfg.Control.MinTimescale,
		MaxTimescale:     cfg.Control.MaxTimescale,
	})
	result, err := h.Run(ctx, fixture)
	if err != nil {
		return err
	}

	logger.Info("replay finished",
		"fixture", cfg.Control.FixturePath,
		"horizon", fixture.Horizon,
		"cycles", result.CyclesRun,
		"matching", result.Matching,
		"divergent", len(result.Divergent),
		"final_state", result.FinalState,
	)
	for _, d := range result.Divergent {
		logger.Warn("replay divergence",
			"cycle", d.Cycle,
			"field", d.Field,
			"got", d.Got,
			"expected", d.Expected,
		)
	}
	if result.HasMismatch() {
		return fmt.Errorf("replay diverged on %d cycle(s)", len(result.Divergent))
	}
	return nil
}

func runControlLoop(ctx context.Context, d *driver.Driver, ctl config.ControlConfig, logger *slog.Logger) error {
	interval := time.Duration(ctl.UpdateIntervalMs) * time.Millisecond
	source := newSyntheticSource(interval.Seconds())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("control loop stopped")
			return nil
		case <-ticker.C:
			m := source.next()
			if _, err := d.Tick(ctx, m); err != nil {
				return fmt.Errorf("control tick: %w", err)
			}
			for i := 0; i < ctl.SubstepsPerCycle; i++ {
				d.Substep(size.ControlErrorArgs{
					ControlError:           m.ControlError,
					MinCharSpeed:           m.MinCharSpeed,
					AvgNormalDotUnitVector: 0.5,
				})
			}
		}
	}
}

func runMetricsServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server shutdown error", "error", err)
		}
	}()

	logger.Info("metrics server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func main() {
	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting sizectl",
		"horizons", cfg.Control.Horizons,
		"update_interval_ms", cfg.Control.UpdateIntervalMs,
		"substeps_per_cycle", cfg.Control.SubstepsPerCycle,
		"initial_timescale", cfg.Control.InitialTimescale,
	)

	shutdownTracing, err := tracing.Init(context.Background(), "sizectl", cfg.Tracing.Endpoint, cfg.Tracing.Insecure)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	if cfg.Control.FixturePath != "" {
		if err := runReplay(context.Background(), cfg, logger); err != nil {
			logger.Error("replay failed", "error", err)
			os.Exit(1)
		}
		return
	}

	decisions, closeDB, err := buildDecisionRepo(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize decision store", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	checkpoints, err := buildCheckpointStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize checkpoint store", "error", err)
		os.Exit(1)
	}

	alerter := buildAlerter(cfg, logger)

	runID := uuid.New()
	drivers := make([]*driver.Driver, 0, len(cfg.Control.Horizons))
	for _, horizon := range cfg.Control.Horizons {
		tn, err := tuner.New(tuner.Config{
			InitialTimescale: cfg.Control.InitialTimescale,
			MinTimescale:     cfg.Control.MinTimescale,
			MaxTimescale:     cfg.Control.MaxTimescale,
		})
		if err != nil {
			logger.Error("failed to build tuner", "horizon", horizon, "error", err)
			os.Exit(1)
		}
		d, err := driver.New(driver.Options{
			Horizon:     horizon,
			RunID:       runID,
			Tuner:       tn,
			Predictor:   predictor.New(cfg.Control.PredictorWindow),
			Decisions:   decisions,
			Checkpoints: checkpoints,
			Logger:      logger,
			Alerter:     alerter,
		})
		if err != nil {
			logger.Error("failed to build driver", "horizon", horizon, "error", err)
			os.Exit(1)
		}
		if err := d.Restore(context.Background()); err != nil {
			logger.Error("failed to restore checkpoint", "horizon", horizon, "error", err)
			os.Exit(1)
		}
		drivers = append(drivers, d)
	}
	logger.Info("run started", "run_id", runID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runMetricsServer(gCtx, cfg.Server.MetricsPort, logger)
	})

	for i, d := range drivers {
		d := d
		horizon := cfg.Control.Horizons[i]
		g.Go(func() error {
			return runControlLoop(gCtx, d, cfg.Control, logger.With("horizon", horizon))
		})
	}

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("sizectl exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("sizectl shut down gracefully")
}
