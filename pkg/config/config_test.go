package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-trip-splitter/pkg/geometry"
	"github.com/kass/go-trip-splitter/pkg/pipeline"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeConfig(t, `
max_time_gap_minutes: 15.0
max_distance_jump_km: 1.5
drop_single_point_trips: true
simplify_tolerance: 0.0005
colors:
  - "#FF0000"
  - "#00FF00"
`)

	f, err := Load(path)
	require.NoError(t, err)

	cfg := pipeline.DefaultConfig()
	opts := geometry.Options{}
	f.Apply(&cfg, &opts)

	assert.Equal(t, 15.0, cfg.MaxTimeGapMinutes)
	assert.Equal(t, 1.5, cfg.MaxDistanceJumpKM)
	assert.True(t, opts.DropSinglePointTrips)
	assert.Equal(t, 0.0005, opts.SimplifyTolerance)
	assert.Equal(t, []string{"#FF0000", "#00FF00"}, opts.Colors)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "max_time_gap_minutes: 40.0\n")

	f, err := Load(path)
	require.NoError(t, err)

	cfg := pipeline.DefaultConfig()
	opts := geometry.Options{}
	f.Apply(&cfg, &opts)

	assert.Equal(t, 40.0, cfg.MaxTimeGapMinutes)
	assert.Equal(t, 2.0, cfg.MaxDistanceJumpKM)
	assert.False(t, opts.DropSinglePointTrips)
	assert.Zero(t, opts.SimplifyTolerance)
	assert.Empty(t, opts.Colors)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"zero gap", "max_time_gap_minutes: 0\n"},
		{"negative gap", "max_time_gap_minutes: -5\n"},
		{"zero jump", "max_distance_jump_km: 0\n"},
		{"negative tolerance", "simplify_tolerance: -0.1\n"},
		{"empty color", "colors:\n  - \"#FF0000\"\n  - \"\"\n"},
		{"not yaml", "{{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
