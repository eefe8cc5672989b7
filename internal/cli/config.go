package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	autosplit "github.com/goliatone/go-autosplit"
)

// Config is read from AUTOSPLIT_* environment variables. Flags override it.
type Config struct {
	StepTimeout      time.Duration `env:"AUTOSPLIT_STEP_TIMEOUT"      envDefault:"250ms"`
	StepInstructions int64         `env:"AUTOSPLIT_STEP_INSTRUCTIONS" envDefault:"10000000"`
	InitTimeout      time.Duration `env:"AUTOSPLIT_INIT_TIMEOUT"      envDefault:"5s"`
	InitInstructions int64         `env:"AUTOSPLIT_INIT_INSTRUCTIONS" envDefault:"100000000"`
	MaxReadSize      int           `env:"AUTOSPLIT_MAX_READ_SIZE"     envDefault:"4096"`
	DefaultTickRate  int           `env:"AUTOSPLIT_DEFAULT_TICK_RATE" envDefault:"120"`
	LogLevel         string        `env:"AUTOSPLIT_LOG_LEVEL"         envDefault:"warn"`
	ProfileDir       string        `env:"AUTOSPLIT_PROFILE_DIR"`
}

// LoadConfig parses the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level returns the configured log level, or debug when verbose.
func (c Config) Level(verbose bool) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// RuntimeOptions maps the config onto runtime options.
func (c Config) RuntimeOptions() []autosplit.Option {
	return []autosplit.Option{
		autosplit.WithStepBudget(autosplit.Budget{Timeout: c.StepTimeout, Instructions: c.StepInstructions}),
		autosplit.WithInitBudget(autosplit.Budget{Timeout: c.InitTimeout, Instructions: c.InitInstructions}),
		autosplit.WithMaxReadSize(c.MaxReadSize),
		autosplit.WithDefaultTickRate(c.DefaultTickRate),
	}
}
