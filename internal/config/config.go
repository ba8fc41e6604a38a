// Package config handles glyph cloud configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all settings.
type Config struct {
	Sampling  SamplingConfig  `yaml:"sampling"`
	Effects   EffectsConfig   `yaml:"effects"`
	Chaos     ChaosConfig     `yaml:"chaos"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Source is the file the config was loaded from, empty for defaults only.
	Source string `yaml:"-"`
}

// SamplingConfig controls how the mesh surface is turned into sample points.
type SamplingConfig struct {
	Density              int      `yaml:"density"`                 // Take every Nth vertex and face
	MaxCharacters        int      `yaml:"max_characters"`          // Hard cap on sample points
	LargeFaceRatio       float32  `yaml:"large_face_ratio"`        // area > ratio*avg marks a face large
	MaxSubdivision       int      `yaml:"max_subdivision"`         // Upper bound of the large-face grid
	SubdivisionBias      int      `yaml:"subdivision_bias"`        // Added to ceil(area/avg)
	FillGapBones         []string `yaml:"fill_gap_bones"`          // Bone name substrings that get bone points
	BonePointsPerSegment int      `yaml:"bone_points_per_segment"` // Points per fill-gap bone
	Seed                 uint64   `yaml:"seed"`                    // Seed for disperse directions
}

// EffectsConfig holds effect engine tuning.
type EffectsConfig struct {
	DefaultIntensity float32 `yaml:"default_intensity"`
	DefaultSpeed     float32 `yaml:"default_speed"`
	DecayRate        float32 `yaml:"decay_rate"`     // Per-tick multiplier while returning
	RestThreshold    float32 `yaml:"rest_threshold"` // Below this the fade completes
	DisperseScale    float32 `yaml:"disperse_scale"`
	DisperseRate     float32 `yaml:"disperse_rate"`
	SpiralFlowWaves  int     `yaml:"spiral_flow_waves"`
	SpiralFlowRate   float32 `yaml:"spiral_flow_rate"`
}

// ChaosConfig holds the autonomous driver tuning.
type ChaosConfig struct {
	Seed                uint64        `yaml:"seed"`
	EntropyBaseline     float32       `yaml:"entropy_baseline"`
	EntropyRampSeconds  float32       `yaml:"entropy_ramp_seconds"`
	FibTimeUnit         time.Duration `yaml:"fib_time_unit"`
	MaxActive           int           `yaml:"max_active"`
	ActivateThreshold   float32       `yaml:"activate_threshold"`
	DeactivateThreshold float32       `yaml:"deactivate_threshold"`
	Gentle              []string      `yaml:"gentle"`
}

// RenderConfig holds display and glyph settings.
type RenderConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Fullscreen  bool    `yaml:"fullscreen"`
	VSync       bool    `yaml:"vsync"`
	Glyph       string  `yaml:"glyph"`
	GlyphSize   float32 `yaml:"glyph_size"`
	Orientation string  `yaml:"orientation"` // "billboard" or "surface"
}

// TelemetryConfig holds CSV telemetry output settings.
type TelemetryConfig struct {
	OutputDir      string `yaml:"output_dir"` // Empty disables output
	IntervalFrames int    `yaml:"interval_frames"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"` // 0 keeps the logger default
	MaxBackups int    `yaml:"max_backups"`
	Quiet      bool   `yaml:"quiet"` // No console output, file only
}

// Validation errors. Validate joins every failure it finds.
var (
	ErrInvalidDensity       = errors.New("sampling density must be positive")
	ErrInvalidMaxCharacters = errors.New("max characters must be positive")
	ErrInvalidDecayRate     = errors.New("decay rate must be in (0, 1)")
	ErrInvalidThreshold     = errors.New("rest threshold must be positive")
	ErrInvalidWaves         = errors.New("spiral flow waves must be positive")
	ErrInvalidMaxActive     = errors.New("chaos max active must be positive")
	ErrInvalidGlyphSize     = errors.New("glyph size must be positive")
	ErrInvalidOrientation   = errors.New("orientation must be billboard or surface")
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Density:              1,
			MaxCharacters:        12000,
			LargeFaceRatio:       2.0,
			MaxSubdivision:       10,
			SubdivisionBias:      3,
			FillGapBones:         []string{"tail"},
			BonePointsPerSegment: 20,
			Seed:                 1,
		},
		Effects: EffectsConfig{
			DefaultIntensity: 1.0,
			DefaultSpeed:     1.0,
			DecayRate:        0.98,
			RestThreshold:    0.01,
			DisperseScale:    2.0,
			DisperseRate:     3.0,
			SpiralFlowWaves:  5,
			SpiralFlowRate:   0.25,
		},
		Chaos: ChaosConfig{
			Seed:                7,
			EntropyBaseline:     0.1,
			EntropyRampSeconds:  120,
			FibTimeUnit:         500 * time.Millisecond,
			MaxActive:           3,
			ActivateThreshold:   0.35,
			DeactivateThreshold: 0.15,
			Gentle:              []string{"hover", "wave", "spiral"},
		},
		Render: RenderConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			Glyph:       "✦",
			GlyphSize:   0.15,
			Orientation: "billboard",
		},
		Telemetry: TelemetryConfig{
			OutputDir:      "",
			IntervalFrames: 30,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Sampling.Density <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidDensity, c.Sampling.Density))
	}
	if c.Sampling.MaxCharacters <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidMaxCharacters, c.Sampling.MaxCharacters))
	}
	if c.Effects.DecayRate <= 0 || c.Effects.DecayRate >= 1 {
		errs = append(errs, fmt.Errorf("%w: got %g", ErrInvalidDecayRate, c.Effects.DecayRate))
	}
	if c.Effects.RestThreshold <= 0 {
		errs = append(errs, ErrInvalidThreshold)
	}
	if c.Effects.SpiralFlowWaves <= 0 {
		errs = append(errs, ErrInvalidWaves)
	}
	if c.Chaos.MaxActive <= 0 {
		errs = append(errs, ErrInvalidMaxActive)
	}
	if c.Render.GlyphSize <= 0 {
		errs = append(errs, ErrInvalidGlyphSize)
	}
	if c.Render.Orientation != "billboard" && c.Render.Orientation != "surface" {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidOrientation, c.Render.Orientation))
	}
	return errors.Join(errs...)
}
