// Package config loads and validates the itinerary tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/roteiro.report/internal/bairro"
	"github.com/banshee-data/roteiro.report/internal/units"
)

// Config represents the tuning parameters for segmentation, refinement
// and reporting. Fields are pointers so a partial JSON file only
// overrides what it names; the Get* accessors supply the documented
// defaults for everything else.
type Config struct {
	// Segmenter thresholds
	StationaryMaxSpeedKmh   *float64 `json:"stationary_max_speed_kmh,omitempty"`
	StationaryMaxDistanceKm *float64 `json:"stationary_max_distance_km,omitempty"`

	// Refiner thresholds
	MinMovementDurationSeconds *float64 `json:"min_movement_duration_seconds,omitempty"`
	MinMovementDistanceKm      *float64 `json:"min_movement_distance_km,omitempty"`

	// Bairro extraction
	BairroRules    []bairro.Rule `json:"bairro_rules,omitempty"`
	FoldBairroCase *bool         `json:"fold_bairro_case,omitempty"`

	// Reporting
	Timezone       *string `json:"timezone,omitempty"`
	TopN           *int    `json:"top_n,omitempty"`
	FilterDebounce *string `json:"filter_debounce,omitempty"` // duration string like "150ms"

	// Intake (enforced by the file-handling layer, not the core)
	MaxFileSizeBytes *int64 `json:"max_file_size_bytes,omitempty"`
}

// ConfigurationError marks an invalid tuning value. It is fatal at
// configuration-load time, before any data is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Default returns a Config with all fields unset, so every accessor
// reports its documented default.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file and validates it. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all set fields. Any violation is a ConfigurationError.
func (c *Config) Validate() error {
	if c.StationaryMaxSpeedKmh != nil && *c.StationaryMaxSpeedKmh <= 0 {
		return &ConfigurationError{Field: "stationary_max_speed_kmh", Reason: fmt.Sprintf("must be positive, got %v", *c.StationaryMaxSpeedKmh)}
	}
	if c.StationaryMaxDistanceKm != nil && *c.StationaryMaxDistanceKm < 0 {
		return &ConfigurationError{Field: "stationary_max_distance_km", Reason: fmt.Sprintf("must be non-negative, got %v", *c.StationaryMaxDistanceKm)}
	}
	if c.MinMovementDurationSeconds != nil && *c.MinMovementDurationSeconds < 0 {
		return &ConfigurationError{Field: "min_movement_duration_seconds", Reason: fmt.Sprintf("must be non-negative, got %v", *c.MinMovementDurationSeconds)}
	}
	if c.MinMovementDistanceKm != nil && *c.MinMovementDistanceKm < 0 {
		return &ConfigurationError{Field: "min_movement_distance_km", Reason: fmt.Sprintf("must be non-negative, got %v", *c.MinMovementDistanceKm)}
	}
	if c.Timezone != nil && !units.IsTimezoneValid(*c.Timezone) {
		return &ConfigurationError{Field: "timezone", Reason: fmt.Sprintf("unknown timezone %q", *c.Timezone)}
	}
	if c.TopN != nil && *c.TopN < 1 {
		return &ConfigurationError{Field: "top_n", Reason: fmt.Sprintf("must be at least 1, got %d", *c.TopN)}
	}
	if c.FilterDebounce != nil && *c.FilterDebounce != "" {
		if d, err := time.ParseDuration(*c.FilterDebounce); err != nil {
			return &ConfigurationError{Field: "filter_debounce", Reason: err.Error()}
		} else if d < 0 {
			return &ConfigurationError{Field: "filter_debounce", Reason: "must be non-negative"}
		}
	}
	if c.MaxFileSizeBytes != nil && *c.MaxFileSizeBytes <= 0 {
		return &ConfigurationError{Field: "max_file_size_bytes", Reason: fmt.Sprintf("must be positive, got %d", *c.MaxFileSizeBytes)}
	}
	// Compile the rule list once here so a bad pattern fails at load time
	// rather than mid-ingest.
	if _, err := bairro.NewExtractor(c.BairroRules, c.GetFoldBairroCase()); err != nil {
		return &ConfigurationError{Field: "bairro_rules", Reason: err.Error()}
	}
	return nil
}

// GetStationaryMaxSpeedKmh returns the stationary speed ceiling or the default.
func (c *Config) GetStationaryMaxSpeedKmh() float64 {
	if c.StationaryMaxSpeedKmh == nil {
		return 2.0 // slow walking pace; anything under this is jitter
	}
	return *c.StationaryMaxSpeedKmh
}

// GetStationaryMaxDistanceKm returns the stationary displacement ceiling or the default.
func (c *Config) GetStationaryMaxDistanceKm() float64 {
	if c.StationaryMaxDistanceKm == nil {
		return 0.05 // 50m, typical urban GPS scatter
	}
	return *c.StationaryMaxDistanceKm
}

// GetMinMovementDurationSeconds returns the short-movement duration floor or the default.
func (c *Config) GetMinMovementDurationSeconds() float64 {
	if c.MinMovementDurationSeconds == nil {
		return 60
	}
	return *c.MinMovementDurationSeconds
}

// GetMinMovementDistanceKm returns the short-movement distance floor or the default.
func (c *Config) GetMinMovementDistanceKm() float64 {
	if c.MinMovementDistanceKm == nil {
		return 0.2
	}
	return *c.MinMovementDistanceKm
}

// GetFoldBairroCase reports whether bairro names are case/diacritic
// folded before counting. Default off: source labels are kept verbatim.
func (c *Config) GetFoldBairroCase() bool {
	if c.FoldBairroCase == nil {
		return false
	}
	return *c.FoldBairroCase
}

// GetTimezone returns the reporting timezone name or the default.
func (c *Config) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return "America/Sao_Paulo"
	}
	return *c.Timezone
}

// Location resolves the reporting timezone. Validate has already
// checked it, so failures fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.GetTimezone())
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetTopN returns the bairro ranking size or the default.
func (c *Config) GetTopN() int {
	if c.TopN == nil {
		return 5
	}
	return *c.TopN
}

// GetFilterDebounce parses and returns the filter debounce window.
func (c *Config) GetFilterDebounce() time.Duration {
	if c.FilterDebounce == nil || *c.FilterDebounce == "" {
		return 150 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.FilterDebounce)
	if err != nil {
		return 150 * time.Millisecond
	}
	return d
}

// GetMaxFileSizeBytes returns the intake file-size ceiling or the default.
func (c *Config) GetMaxFileSizeBytes() int64 {
	if c.MaxFileSizeBytes == nil {
		return 50 * 1024 * 1024 // 50MB
	}
	return *c.MaxFileSizeBytes
}

// NewExtractor builds the bairro extractor from the configured rules.
func (c *Config) NewExtractor() (*bairro.Extractor, error) {
	return bairro.NewExtractor(c.BairroRules, c.GetFoldBairroCase())
}
