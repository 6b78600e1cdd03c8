// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/backtest"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/hedge"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

// EnvPrefix namespaces environment overrides, e.g. STATARB_BACKTEST_CAPITAL.
const EnvPrefix = "STATARB"

// App captures process-wide runtime settings such as name, metrics, and logging.
type App struct {
	Name        string `yaml:"name" envconfig:"NAME"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat   string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"omitempty,oneof=json console"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// Yahoo tunes the chart API client.
type Yahoo struct {
	Hosts       []string `yaml:"hosts" envconfig:"HOSTS"`
	RPS         float64  `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst       int      `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
	Concurrency int      `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=0"`
}

// Data selects where daily closes come from.
type Data struct {
	Provider string `yaml:"provider" envconfig:"PROVIDER" validate:"oneof=yahoo csv"`
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required_if=Provider csv"`
	Yahoo    Yahoo  `yaml:"yahoo" envconfig:"YAHOO"`
}

// Backtest holds the run parameters.
type Backtest struct {
	Universe   []string `yaml:"universe" envconfig:"UNIVERSE" validate:"min=2,dive,required"`
	Start      string   `yaml:"start" envconfig:"START" validate:"required,datetime=2006-01-02"`
	End        string   `yaml:"end" envconfig:"END" validate:"required,datetime=2006-01-02"`
	Capital    float64  `yaml:"capital" envconfig:"CAPITAL" validate:"gt=0"`
	TargetVol  float64  `yaml:"target_vol" envconfig:"TARGET_VOL" validate:"gt=0,lte=1"`
	MaxPairs   int      `yaml:"max_pairs" envconfig:"MAX_PAIRS" validate:"gte=1"`
	HalfSpread float64  `yaml:"half_spread" envconfig:"HALF_SPREAD" validate:"gte=0"`
	SlipCoef   float64  `yaml:"slip_coef" envconfig:"SLIP_COEF" validate:"gte=0"`
	MaxWeight  float64  `yaml:"max_weight" envconfig:"MAX_WEIGHT" validate:"gt=0,lte=1"`
	VolWindow  int      `yaml:"vol_window" envconfig:"VOL_WINDOW" validate:"gte=2"`
	Policy     string   `yaml:"policy" envconfig:"POLICY" validate:"oneof=adaptive_band sign_reversion"`
	RankPolicy string   `yaml:"rank_policy" envconfig:"RANK_POLICY" validate:"oneof=adaptive_band sign_reversion"`
}

// Screener holds the pair filter thresholds.
type Screener struct {
	MinOverlap     int     `yaml:"min_overlap" envconfig:"MIN_OVERLAP" validate:"gte=20"`
	MinCorrelation float64 `yaml:"min_correlation" envconfig:"MIN_CORRELATION" validate:"gte=-1,lte=1"`
	MaxPValue      float64 `yaml:"max_p_value" envconfig:"MAX_P_VALUE" validate:"gt=0,lte=1"`
}

// Hedge holds the hedge ratio estimator tunables.
type Hedge struct {
	KalmanR       float64 `yaml:"kalman_r" envconfig:"KALMAN_R" validate:"gt=0,lt=1"`
	KalmanQ       float64 `yaml:"kalman_q" envconfig:"KALMAN_Q" validate:"gt=0"`
	RollingWindow int     `yaml:"rolling_window" envconfig:"ROLLING_WINDOW" validate:"gte=2"`
}

// Strategy holds the signal policy knobs.
type Strategy struct {
	HalfLifeMult    float64 `yaml:"half_life_mult" envconfig:"HALF_LIFE_MULT" validate:"gt=0"`
	MinZWindow      int     `yaml:"min_z_window" envconfig:"MIN_Z_WINDOW" validate:"gte=2"`
	MaxZWindow      int     `yaml:"max_z_window" envconfig:"MAX_Z_WINDOW" validate:"gtefield=MinZWindow"`
	BandWindow      int     `yaml:"band_window" envconfig:"BAND_WINDOW" validate:"gte=2"`
	EntryQuantile   float64 `yaml:"entry_quantile" envconfig:"ENTRY_QUANTILE" validate:"gt=0,lte=1"`
	ExitQuantile    float64 `yaml:"exit_quantile" envconfig:"EXIT_QUANTILE" validate:"gt=0,lte=1"`
	ReversionWindow int     `yaml:"reversion_window" envconfig:"REVERSION_WINDOW" validate:"gte=2"`
}

// Output names optional artifacts written after a run.
type Output struct {
	LedgerPath string `yaml:"ledger_path" envconfig:"LEDGER_PATH"`
	XLSXPath   string `yaml:"xlsx_path" envconfig:"XLSX_PATH"`
	PNGPath    string `yaml:"png_path" envconfig:"PNG_PATH"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app" envconfig:"APP"`
	Data     Data     `yaml:"data" envconfig:"DATA"`
	Backtest Backtest `yaml:"backtest" envconfig:"BACKTEST"`
	Screener Screener `yaml:"screener" envconfig:"SCREENER"`
	Hedge    Hedge    `yaml:"hedge" envconfig:"HEDGE"`
	Strategy Strategy `yaml:"strategy" envconfig:"STRATEGY"`
	Output   Output   `yaml:"output" envconfig:"OUTPUT"`
}

// Default returns the reference research configuration.
func Default() *Config {
	opts := backtest.DefaultOptions()
	return &Config{
		App:  App{Name: "statarb", LogLevel: "info", LogFormat: "json"},
		Data: Data{Provider: "yahoo", DataDir: "data", Yahoo: Yahoo{RPS: 2, Burst: 2, Concurrency: 4}},
		Backtest: Backtest{
			Universe:   opts.Universe,
			Start:      opts.Start.Format(time.DateOnly),
			End:        opts.End.Format(time.DateOnly),
			Capital:    opts.Capital,
			TargetVol:  opts.TargetVol,
			MaxPairs:   opts.MaxPairs,
			HalfSpread: opts.HalfSpread,
			SlipCoef:   opts.SlipCoef,
			MaxWeight:  opts.MaxWeight,
			VolWindow:  opts.VolWindow,
			Policy:     opts.Policy,
			RankPolicy: opts.RankPolicy,
		},
		Screener: Screener{
			MinOverlap:     opts.Screener.MinOverlap,
			MinCorrelation: opts.Screener.MinCorrelation,
			MaxPValue:      opts.Screener.MaxPValue,
		},
		Hedge: Hedge{KalmanR: opts.Hedge.R, KalmanQ: opts.Hedge.Q, RollingWindow: opts.Hedge.RollingWindow},
		Strategy: Strategy{
			HalfLifeMult:    opts.Strategy.HalfLifeMult,
			MinZWindow:      opts.Strategy.MinZWindow,
			MaxZWindow:      opts.Strategy.MaxZWindow,
			BandWindow:      opts.Strategy.BandWindow,
			EntryQuantile:   opts.Strategy.EntryQuantile,
			ExitQuantile:    opts.Strategy.ExitQuantile,
			ReversionWindow: opts.Strategy.ReversionWindow,
		},
	}
}

// Load reads a YAML file from disk on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// ApplyEnv loads envFiles (best-effort, .env when none given) and applies STATARB_*
// overrides. Variables already set in the process win over the files.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	_ = godotenv.Load(envFiles...) // best-effort
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("apply env: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and that the backtest window is ordered.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	start, _ := time.Parse(time.DateOnly, cfg.Backtest.Start)
	end, _ := time.Parse(time.DateOnly, cfg.Backtest.End)
	if !start.Before(end) {
		return fmt.Errorf("validate config: start %s must be before end %s", cfg.Backtest.Start, cfg.Backtest.End)
	}
	return nil
}

// Resolve loads path when it exists (defaults otherwise), applies the environment and validates.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts the configuration into the immutable backtest options.
func (c *Config) Options() (backtest.Options, error) {
	start, err := time.Parse(time.DateOnly, c.Backtest.Start)
	if err != nil {
		return backtest.Options{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, c.Backtest.End)
	if err != nil {
		return backtest.Options{}, fmt.Errorf("parse end: %w", err)
	}
	return backtest.Options{
		Universe:   append([]string(nil), c.Backtest.Universe...),
		Start:      start,
		End:        end,
		Capital:    c.Backtest.Capital,
		TargetVol:  c.Backtest.TargetVol,
		MaxPairs:   c.Backtest.MaxPairs,
		HalfSpread: c.Backtest.HalfSpread,
		SlipCoef:   c.Backtest.SlipCoef,
		MaxWeight:  c.Backtest.MaxWeight,
		VolWindow:  c.Backtest.VolWindow,
		Screener: coint.ScreenerConfig{
			MinOverlap:     c.Screener.MinOverlap,
			MinCorrelation: c.Screener.MinCorrelation,
			MaxPValue:      c.Screener.MaxPValue,
		},
		Hedge: hedge.Config{R: c.Hedge.KalmanR, Q: c.Hedge.KalmanQ, RollingWindow: c.Hedge.RollingWindow},
		Strategy: strategy.Params{
			HalfLifeMult:    c.Strategy.HalfLifeMult,
			MinZWindow:      c.Strategy.MinZWindow,
			MaxZWindow:      c.Strategy.MaxZWindow,
			BandWindow:      c.Strategy.BandWindow,
			EntryQuantile:   c.Strategy.EntryQuantile,
			ExitQuantile:    c.Strategy.ExitQuantile,
			ReversionWindow: c.Strategy.ReversionWindow,
		},
		Policy:     c.Backtest.Policy,
		RankPolicy: c.Backtest.RankPolicy,
	}, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
