package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/pipeline.defaults.json"

// PipelineConfig represents the root configuration for the planning
// pipeline. Fields omitted from the JSON file retain their baked-in
// defaults, so partial configs are safe.
type PipelineConfig struct {
	// Run params
	StepSeconds    *float64 `json:"step_seconds,omitempty"`
	HorizonHours   *float64 `json:"horizon_hours,omitempty"`
	GapMarkerSecs  *float64 `json:"gap_marker_seconds,omitempty"`
	PoiWorkers     *int     `json:"poi_workers,omitempty"`
	StreamChunk    *int     `json:"stream_chunk,omitempty"`
	GridCellDeg    *float64 `json:"grid_cell_deg,omitempty"`
	EmitMetaHeader *bool    `json:"emit_meta_header,omitempty"`

	// Dataset paths
	TerritoryCSV *string `json:"territory_csv,omitempty"`
	PoiCSV       *string `json:"poi_csv,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
// Use LoadPipelineConfig to load actual values from a file.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the current directory. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *PipelineConfig) Validate() error {
	if c.StepSeconds != nil && *c.StepSeconds <= 0 {
		return fmt.Errorf("step_seconds must be positive, got %f", *c.StepSeconds)
	}
	if c.HorizonHours != nil && *c.HorizonHours <= 0 {
		return fmt.Errorf("horizon_hours must be positive, got %f", *c.HorizonHours)
	}
	if c.PoiWorkers != nil && *c.PoiWorkers < 0 {
		return fmt.Errorf("poi_workers must be non-negative, got %d", *c.PoiWorkers)
	}
	if c.StreamChunk != nil && *c.StreamChunk < 0 {
		return fmt.Errorf("stream_chunk must be non-negative, got %d", *c.StreamChunk)
	}
	if c.GridCellDeg != nil && (*c.GridCellDeg <= 0 || *c.GridCellDeg > 90) {
		return fmt.Errorf("grid_cell_deg must be in (0, 90], got %f", *c.GridCellDeg)
	}
	return nil
}

// GetStepSeconds returns the sample spacing or the 1 Hz default.
func (c *PipelineConfig) GetStepSeconds() float64 {
	if c.StepSeconds == nil {
		return 1.0
	}
	return *c.StepSeconds
}

// GetHorizonHours returns the run horizon or the one-day default.
func (c *PipelineConfig) GetHorizonHours() float64 {
	if c.HorizonHours == nil {
		return 24.0
	}
	return *c.HorizonHours
}

// GetGapMarkerSeconds returns the separator threshold or the default.
func (c *PipelineConfig) GetGapMarkerSeconds() float64 {
	if c.GapMarkerSecs == nil {
		return 30.0
	}
	return *c.GapMarkerSecs
}

// GetPoiWorkers returns the forced pool size; zero means auto-size.
func (c *PipelineConfig) GetPoiWorkers() int {
	if c.PoiWorkers == nil {
		return 0
	}
	return *c.PoiWorkers
}

// GetStreamChunk returns the streaming batch bound or the default.
func (c *PipelineConfig) GetStreamChunk() int {
	if c.StreamChunk == nil || *c.StreamChunk == 0 {
		return 20000
	}
	return *c.StreamChunk
}

// GetGridCellDeg returns the spatial index cell size. The 1° default is
// validated against the 3×3 probe; override with care.
func (c *PipelineConfig) GetGridCellDeg() float64 {
	if c.GridCellDeg == nil {
		return 1.0
	}
	return *c.GridCellDeg
}

// GetEmitMetaHeader reports whether exports carry the comment preamble.
func (c *PipelineConfig) GetEmitMetaHeader() bool {
	if c.EmitMetaHeader == nil {
		return true
	}
	return *c.EmitMetaHeader
}

// GetTerritoryCSV returns the territory dataset path or the default.
func (c *PipelineConfig) GetTerritoryCSV() string {
	if c.TerritoryCSV == nil {
		return "data/territories.csv"
	}
	return *c.TerritoryCSV
}

// GetPoiCSV returns the POI dataset path or the default.
func (c *PipelineConfig) GetPoiCSV() string {
	if c.PoiCSV == nil {
		return "data/pois.csv"
	}
	return *c.PoiCSV
}
