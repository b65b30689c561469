package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB      DBConfig
	Redis   RedisConfig
	Control ControlConfig
	Server  ServerConfig
	Tracing TracingConfig
	Alert   AlertConfig
	Log     LogConfig
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ControlConfig paces the control loop and bounds the tuner.
type ControlConfig struct {
	Horizons         []string
	UpdateIntervalMs int
	SubstepsPerCycle int
	PredictorWindow  int

	InitialTimescale float64
	MinTimescale     float64
	MaxTimescale     float64

	FixturePath string
}

type ServerConfig struct {
	MetricsPort int
}

type TracingConfig struct {
	Endpoint string
	Insecure bool
}

// AlertConfig names the outbound alert channels. Empty URLs disable the
// channel.
type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
	Cooldown        time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		DB: DBConfig{
			URL:             getEnv("DB_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Control: ControlConfig{
			UpdateIntervalMs: getEnvInt("UPDATE_INTERVAL_MS", 100),
			SubstepsPerCycle: getEnvInt("SUBSTEPS_PER_CYCLE", 4),
			PredictorWindow:  getEnvInt("PREDICTOR_WINDOW", 4),
			InitialTimescale: getEnvFloat("INITIAL_TIMESCALE", 1.0),
			MinTimescale:     getEnvFloat("MIN_TIMESCALE", 1e-4),
			MaxTimescale:     getEnvFloat("MAX_TIMESCALE", 20.0),
			FixturePath:      getEnv("FIXTURE_PATH", ""),
		},
		Server: ServerConfig{
			MetricsPort: getEnvInt("METRICS_PORT", 8080),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTLP_ENDPOINT", ""),
			Insecure: getEnvBool("OTLP_INSECURE", true),
		},
		Alert: AlertConfig{
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			Cooldown:        time.Duration(getEnvInt("ALERT_COOLDOWN_SEC", 300)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if horizons := getEnv("HORIZONS", "ah-a"); horizons != "" {
		for _, h := range strings.Split(horizons, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				cfg.Control.Horizons = append(cfg.Control.Horizons, h)
			}
		}
	}

	if path := getEnv("RUN_CONFIG", ""); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runOverlay is the YAML run-definition file layered over env defaults.
// Only set fields override.
type runOverlay struct {
	Horizons         []string `yaml:"horizons"`
	UpdateIntervalMs int      `yaml:"update_interval_ms"`
	SubstepsPerCycle int      `yaml:"substeps_per_cycle"`
	PredictorWindow  int      `yaml:"predictor_window"`
	InitialTimescale float64  `yaml:"initial_timescale"`
	MinTimescale     float64  `yaml:"min_timescale"`
	MaxTimescale     float64  `yaml:"max_timescale"`
	FixturePath      string   `yaml:"fixture_path"`
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read run config: %w", err)
	}
	var o runOverlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse run config %s: %w", path, err)
	}
	if len(o.Horizons) > 0 {
		c.Control.Horizons = o.Horizons
	}
	if o.UpdateIntervalMs > 0 {
		c.Control.UpdateIntervalMs = o.UpdateIntervalMs
	}
	if o.SubstepsPerCycle > 0 {
		c.Control.SubstepsPerCycle = o.SubstepsPerCycle
	}
	if o.PredictorWindow > 0 {
		c.Control.PredictorWindow = o.PredictorWindow
	}
	if o.InitialTimescale > 0 {
		c.Control.InitialTimescale = o.InitialTimescale
	}
	if o.MinTimescale > 0 {
		c.Control.MinTimescale = o.MinTimescale
	}
	if o.MaxTimescale > 0 {
		c.Control.MaxTimescale = o.MaxTimescale
	}
	if o.FixturePath != "" {
		c.Control.FixturePath = o.FixturePath
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Control.Horizons) == 0 {
		return fmt.Errorf("at least one horizon is required")
	}
	if c.Control.UpdateIntervalMs <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL_MS must be positive")
	}
	if c.Control.SubstepsPerCycle <= 0 {
		return fmt.Errorf("SUBSTEPS_PER_CYCLE must be positive")
	}
	if c.Control.InitialTimescale <= 0 {
		return fmt.Errorf("INITIAL_TIMESCALE must be positive")
	}
	if c.Control.MinTimescale <= 0 || c.Control.MaxTimescale < c.Control.MinTimescale {
		return fmt.Errorf("timescale bounds invalid: min %g max %g", c.Control.MinTimescale, c.Control.MaxTimescale)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
