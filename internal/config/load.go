package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfig names an explicit config file when --config is not given.
const EnvConfig = "GLYPHCLOUD_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
// The file comes from --config, then $GLYPHCLOUD_CONFIG, then the search path.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		cfg.Source = path
	}

	applyFlags(cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing file on the search path:
// ./glyphcloud.yaml, ./config.yaml, then the user config directory.
func findConfigFile() string {
	candidates := []string{
		"glyphcloud.yaml",
		"config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "GlyphCloud")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "GlyphCloud")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "glyphcloud")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "glyphcloud")
	}
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected so a
// misspelt effect or sampling setting does not silently fall back to its default.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// normalize canonicalises names typed by hand: orientation and effect and
// bone names are matched case-insensitively, and a blank glyph means the default.
func (c *Config) normalize() {
	c.Render.Orientation = strings.ToLower(strings.TrimSpace(c.Render.Orientation))
	if strings.TrimSpace(c.Render.Glyph) == "" {
		c.Render.Glyph = Default().Render.Glyph
	}
	c.Chaos.Gentle = lowerUnique(c.Chaos.Gentle)
	c.Sampling.FillGapBones = lowerUnique(c.Sampling.FillGapBones)
}

func lowerUnique(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
