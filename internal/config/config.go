// Package config provides configuration management.
package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"green-roi/core/types"
	"green-roi/internal/errors"
	"green-roi/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Catalog selects the reference tables
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Projection contains projection defaults
	Projection ProjectionConfig `json:"projection" yaml:"projection"`

	// Estimator contains default savings rates
	Estimator EstimatorConfig `json:"estimator" yaml:"estimator"`

	// Output contains output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// CatalogConfig locates the reference tables
type CatalogConfig struct {
	// Path is an HCL catalog file; empty uses the built-in tables
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ProjectionConfig contains projection defaults
type ProjectionConfig struct {
	// NoiseFraction is the series noise standard deviation relative to savings
	NoiseFraction float64 `json:"noise_fraction" yaml:"noise_fraction"`

	// DefaultHorizonYears is used when a request omits the horizon
	DefaultHorizonYears int `json:"default_horizon_years" yaml:"default_horizon_years"`

	// SearchCeiling bounds the bill-to-usage search
	SearchCeiling int64 `json:"search_ceiling" yaml:"search_ceiling"`
}

// EstimatorConfig contains the fallback savings rates
type EstimatorConfig struct {
	SavingsPerKW           float64 `json:"savings_per_kw" yaml:"savings_per_kw"`
	KWhPerKW               float64 `json:"kwh_per_kw" yaml:"kwh_per_kw"`
	BillSavingsFraction    float64 `json:"bill_savings_fraction" yaml:"bill_savings_fraction"`
	WaterEfficiencyPercent float64 `json:"water_efficiency_percent" yaml:"water_efficiency_percent"`
	GenericMonthlySavings  float64 `json:"generic_monthly_savings" yaml:"generic_monthly_savings"`

	// DefaultHouse is the house type used when a solar request names none
	DefaultHouse string `json:"default_house" yaml:"default_house"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" yaml:"default_format"`

	// ShowBreakdown prints the tier breakdown with bills
	ShowBreakdown bool `json:"show_breakdown" yaml:"show_breakdown"`

	// ShowSeries prints the monthly series instead of the yearly rollup
	ShowSeries bool `json:"show_series" yaml:"show_series"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// ShutdownSeconds bounds graceful shutdown
	ShutdownSeconds int `json:"shutdown_seconds" yaml:"shutdown_seconds"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Projection: ProjectionConfig{
			NoiseFraction:       0.05,
			DefaultHorizonYears: 5,
			SearchCeiling:       5000,
		},
		Estimator: EstimatorConfig{
			SavingsPerKW:           60,
			KWhPerKW:               100,
			BillSavingsFraction:    0.2,
			WaterEfficiencyPercent: 20,
			GenericMonthlySavings:  1000,
			DefaultHouse:           "terrace",
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowBreakdown: true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownSeconds: 10,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	p := c.Projection
	if p.NoiseFraction < 0 || math.IsNaN(p.NoiseFraction) || math.IsInf(p.NoiseFraction, 0) {
		return errors.Configf("projection.noise_fraction must be >= 0, got %v", p.NoiseFraction)
	}
	if p.DefaultHorizonYears < types.MinHorizonYears || p.DefaultHorizonYears > types.MaxHorizonYears {
		return errors.Configf("projection.default_horizon_years must be in [%d,%d], got %d",
			types.MinHorizonYears, types.MaxHorizonYears, p.DefaultHorizonYears)
	}
	if p.SearchCeiling <= 0 {
		return errors.Configf("projection.search_ceiling must be positive, got %d", p.SearchCeiling)
	}

	e := c.Estimator
	if e.SavingsPerKW <= 0 || e.KWhPerKW <= 0 {
		return errors.Config("estimator.savings_per_kw and estimator.kwh_per_kw must be positive")
	}
	if e.BillSavingsFraction < 0 || e.BillSavingsFraction > 1 {
		return errors.Configf("estimator.bill_savings_fraction must be in [0,1], got %v", e.BillSavingsFraction)
	}
	if e.WaterEfficiencyPercent <= 0 || e.WaterEfficiencyPercent > 100 {
		return errors.Configf("estimator.water_efficiency_percent must be in (0,100], got %v", e.WaterEfficiencyPercent)
	}
	if e.GenericMonthlySavings < 0 {
		return errors.Configf("estimator.generic_monthly_savings must not be negative, got %v", e.GenericMonthlySavings)
	}

	switch c.Output.DefaultFormat {
	case "cli", "json", "csv":
	default:
		return errors.Configf("output.default_format must be cli, json or csv, got %q", c.Output.DefaultFormat)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads configuration from a file.
// A missing file yields the defaults. YAML is chosen by extension, JSON otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read config %s", path)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to decode config %s", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
