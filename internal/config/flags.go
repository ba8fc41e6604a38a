package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagDensity   = flag.Int("density", 0, "Sampling density (every Nth vertex/face)")
	flagMax       = flag.Int("max", 0, "Maximum number of glyph instances")
	flagGlyph     = flag.String("glyph", "", "Glyph rendered at every sample point")
	flagTelemetry = flag.String("telemetry", "", "Directory for CSV telemetry output")
	flagWidth     = flag.Int("width", 0, "Window width")
	flagHeight    = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDensity > 0 {
		cfg.Sampling.Density = *flagDensity
	}
	if *flagMax > 0 {
		cfg.Sampling.MaxCharacters = *flagMax
	}
	if *flagGlyph != "" {
		cfg.Render.Glyph = *flagGlyph
	}
	if *flagTelemetry != "" {
		cfg.Telemetry.OutputDir = *flagTelemetry
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
}
