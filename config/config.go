// Package config loads glaubfit sessions from a configuration file and the
// environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/decibelcooper/centfit/fit"
	"github.com/decibelcooper/centfit/glauber"
)

// Config represents a complete fit session
type Config struct {
	Ensemble  EnsembleConfig  `mapstructure:"ensemble"`
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Fit       FitConfig       `mapstructure:"fit"`
	Grid      GridConfig      `mapstructure:"grid"`
	Minimizer MinimizerConfig `mapstructure:"minimizer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// EnsembleConfig locates the Glauber Monte-Carlo ntuple
type EnsembleConfig struct {
	File    string `mapstructure:"file"`
	Tree    string `mapstructure:"tree"`
	Entries int64  `mapstructure:"entries"`
}

// InputConfig lists the measured distributions
type InputConfig struct {
	File       string   `mapstructure:"file"`
	Histograms []string `mapstructure:"histograms"`
}

// OutputConfig names the files written by a session. Empty names disable
// the optional outputs.
type OutputConfig struct {
	File    string `mapstructure:"file"`
	YODA    string `mapstructure:"yoda"`
	ScanLog string `mapstructure:"scan_log"`
	ScanDB  string `mapstructure:"scan_db"`
	Ntuple  string `mapstructure:"ntuple"`
	Plot    string `mapstructure:"plot"`
}

// FitConfig holds the per-distribution fit settings
type FitConfig struct {
	Method  string  `mapstructure:"method"`
	Rebin   int     `mapstructure:"rebin"`
	MultMin float64 `mapstructure:"mult_min"`
	MultMax float64 `mapstructure:"mult_max"`
	Mode    string  `mapstructure:"mode"`
	Score   string  `mapstructure:"score"`
	Seed    uint64  `mapstructure:"seed"`
	Workers int     `mapstructure:"workers"`
	MuShift float64 `mapstructure:"mu_shift"`
}

// GridConfig holds the grid search axes
type GridConfig struct {
	Alpha fit.Axis `mapstructure:"alpha"`
	Mu    fit.Axis `mapstructure:"mu"`
	K     fit.Axis `mapstructure:"k"`
	Eff   fit.Axis `mapstructure:"eff"`
}

// ParamsConfig is a set of fit parameter values
type ParamsConfig struct {
	Alpha float64 `mapstructure:"alpha"`
	Mu    float64 `mapstructure:"mu"`
	K     float64 `mapstructure:"k"`
	Eff   float64 `mapstructure:"eff"`
}

func (p ParamsConfig) params() glauber.Params {
	return glauber.Params{Alpha: p.Alpha, Mu: p.Mu, K: p.K, Eff: p.Eff}
}

// MinimizerConfig overrides the mode dependent minimizer defaults. Unset
// values keep the defaults of the mixing mode.
type MinimizerConfig struct {
	Bounded      *bool         `mapstructure:"bounded"`
	Start        *ParamsConfig `mapstructure:"start"`
	Step         *ParamsConfig `mapstructure:"step"`
	Lower        *ParamsConfig `mapstructure:"lower"`
	Upper        *ParamsConfig `mapstructure:"upper"`
	SimplexCalls int           `mapstructure:"simplex_calls"`
	GradCalls    int           `mapstructure:"grad_calls"`
	Tolerance    float64       `mapstructure:"tolerance"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the file at path, when not empty, and from
// CENTFIT_ prefixed environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CENTFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("ensemble.tree", "nt_Pb_Pb")
	v.SetDefault("ensemble.entries", 100000)

	v.SetDefault("output.file", "glauber_fit.root")
	v.SetDefault("output.scan_log", "parameters.txt")

	v.SetDefault("fit.method", "grid")
	v.SetDefault("fit.rebin", 1)
	v.SetDefault("fit.mode", "nbd")
	v.SetDefault("fit.score", "chi2")
	v.SetDefault("fit.seed", 1)
	v.SetDefault("fit.workers", 1)
	v.SetDefault("fit.mu_shift", fit.DefaultMuShift)

	for _, axis := range []struct {
		name      string
		n         int
		low, high float64
	}{
		{"alpha", 10, 0.78, 0.88},
		{"mu", 10, 25, 35},
		{"k", 10, 0.8, 2.0},
		{"eff", 5, 0.95, 1.0},
	} {
		v.SetDefault("grid."+axis.name+".n", axis.n)
		v.SetDefault("grid."+axis.name+".low", axis.low)
		v.SetDefault("grid."+axis.name+".high", axis.high)
	}

	v.SetDefault("minimizer.simplex_calls", 100)
	v.SetDefault("minimizer.grad_calls", 1000)
	v.SetDefault("minimizer.tolerance", 0.1)

	v.SetDefault("logging.level", "info")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Ensemble.File == "" {
		return fmt.Errorf("ensemble.file is required")
	}
	if c.Ensemble.Tree == "" {
		return fmt.Errorf("ensemble.tree is required")
	}
	if c.Input.File == "" {
		return fmt.Errorf("input.file is required")
	}
	if len(c.Input.Histograms) == 0 {
		return fmt.Errorf("input.histograms must contain at least one histogram")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file is required")
	}

	if _, err := fit.ParseStrategy(c.Fit.Method); err != nil {
		return fmt.Errorf("fit.method: %w", err)
	}
	if _, err := glauber.ParseMode(c.Fit.Mode); err != nil {
		return fmt.Errorf("fit.mode: %w", err)
	}
	if _, err := glauber.ParseMethod(c.Fit.Score); err != nil {
		return fmt.Errorf("fit.score: %w", err)
	}
	if c.Fit.Rebin < 1 {
		return fmt.Errorf("fit.rebin must be at least 1")
	}
	if c.Fit.Workers < 1 {
		return fmt.Errorf("fit.workers must be at least 1")
	}
	if !(c.Fit.MultMin < c.Fit.MultMax) {
		return fmt.Errorf("fit.mult_min must be below fit.mult_max")
	}
	if c.Fit.MuShift < 0 || c.Fit.MuShift >= 1 {
		return fmt.Errorf("fit.mu_shift must be in [0, 1)")
	}

	if err := c.grid().Validate(); err != nil {
		return err
	}

	if c.Minimizer.SimplexCalls < 0 || c.Minimizer.GradCalls < 0 {
		return fmt.Errorf("minimizer call budgets must not be negative")
	}
	if !(c.Minimizer.Tolerance > 0) {
		return fmt.Errorf("minimizer.tolerance must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

func (c *Config) grid() fit.Grid {
	return fit.Grid{
		Alpha:   c.Grid.Alpha,
		Mu:      c.Grid.Mu,
		K:       c.Grid.K,
		Eff:     c.Grid.Eff,
		MuShift: c.Fit.MuShift,
	}
}

// MixMode returns the configured mixing mode
func (c *Config) MixMode() (glauber.Mode, error) {
	return glauber.ParseMode(c.Fit.Mode)
}

// FitOptions converts the configuration to session options
func (c *Config) FitOptions() (fit.Options, error) {
	strategy, err := fit.ParseStrategy(c.Fit.Method)
	if err != nil {
		return fit.Options{}, err
	}
	method, err := glauber.ParseMethod(c.Fit.Score)
	if err != nil {
		return fit.Options{}, err
	}
	mode, err := c.MixMode()
	if err != nil {
		return fit.Options{}, err
	}

	m := fit.DefaultMinimizer(mode)
	if c.Minimizer.Bounded != nil {
		m.Bounded = *c.Minimizer.Bounded
	}
	if c.Minimizer.Start != nil {
		m.Start = c.Minimizer.Start.params()
	}
	if c.Minimizer.Step != nil {
		m.Step = c.Minimizer.Step.params()
	}
	if c.Minimizer.Lower != nil {
		m.Lower = c.Minimizer.Lower.params()
	}
	if c.Minimizer.Upper != nil {
		m.Upper = c.Minimizer.Upper.params()
	}
	m.SimplexCalls = c.Minimizer.SimplexCalls
	m.GradCalls = c.Minimizer.GradCalls
	m.Tolerance = c.Minimizer.Tolerance

	return fit.Options{
		Strategy:  strategy,
		Method:    method,
		Rebin:     c.Fit.Rebin,
		MultMin:   c.Fit.MultMin,
		MultMax:   c.Fit.MultMax,
		Grid:      c.grid(),
		Minimizer: m,
		Workers:   c.Fit.Workers,
	}, nil
}
