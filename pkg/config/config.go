// Package config loads the optional YAML run configuration. Flags win
// over file values; file values win over the built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kass/go-trip-splitter/pkg/geometry"
	"github.com/kass/go-trip-splitter/pkg/pipeline"
)

// File mirrors the YAML schema. Absent fields leave the defaults in
// place, which is why the scalars are pointers.
type File struct {
	MaxTimeGapMinutes    *float64 `yaml:"max_time_gap_minutes"`
	MaxDistanceJumpKM    *float64 `yaml:"max_distance_jump_km"`
	DropSinglePointTrips *bool    `yaml:"drop_single_point_trips"`
	SimplifyTolerance    *float64 `yaml:"simplify_tolerance"`
	Colors               []string `yaml:"colors"`
}

// Load reads and validates a config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.MaxTimeGapMinutes != nil && *f.MaxTimeGapMinutes <= 0 {
		return fmt.Errorf("max_time_gap_minutes must be positive, got %v", *f.MaxTimeGapMinutes)
	}
	if f.MaxDistanceJumpKM != nil && *f.MaxDistanceJumpKM <= 0 {
		return fmt.Errorf("max_distance_jump_km must be positive, got %v", *f.MaxDistanceJumpKM)
	}
	if f.SimplifyTolerance != nil && *f.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify_tolerance must not be negative, got %v", *f.SimplifyTolerance)
	}
	for i, c := range f.Colors {
		if c == "" {
			return fmt.Errorf("colors[%d] is empty", i)
		}
	}
	return nil
}

// Apply overlays the file's values onto the pipeline config and the
// geometry options.
func (f *File) Apply(cfg *pipeline.Config, opts *geometry.Options) {
	if f.MaxTimeGapMinutes != nil {
		cfg.MaxTimeGapMinutes = *f.MaxTimeGapMinutes
	}
	if f.MaxDistanceJumpKM != nil {
		cfg.MaxDistanceJumpKM = *f.MaxDistanceJumpKM
	}
	if f.DropSinglePointTrips != nil {
		opts.DropSinglePointTrips = *f.DropSinglePointTrips
	}
	if f.SimplifyTolerance != nil {
		opts.SimplifyTolerance = *f.SimplifyTolerance
	}
	if len(f.Colors) > 0 {
		opts.Colors = f.Colors
	}
}
