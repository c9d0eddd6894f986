// Package config loads codestrip settings from a YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/codestrip/compose"
	"github.com/ByLCY/codestrip/partition"
	"github.com/ByLCY/codestrip/renderer"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "codestrip.yaml"

// Config holds all codestrip configuration.
type Config struct {
	Partition PartitionConfig `yaml:"partition"`
	Render    RenderConfig    `yaml:"render"`
	Output    OutputConfig    `yaml:"output"`
	Batch     BatchConfig     `yaml:"batch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PartitionConfig configures pivot selection.
type PartitionConfig struct {
	Segments     int    `yaml:"segments"`
	Break        string `yaml:"break"` // auto, uniform, or a run length
	SearchBudget int    `yaml:"search_budget"`
}

// RenderConfig configures text rasterization.
type RenderConfig struct {
	Font        string  `yaml:"font"` // empty = bitmap 7x13, builtin:<name>, or a path
	FontSize    float64 `yaml:"font_size"`
	DPI         float64 `yaml:"dpi"`
	TabWidth    int     `yaml:"tab_width"`
	Padding     int     `yaml:"padding"`
	LineSpacing int     `yaml:"line_spacing"`
	LineNumbers bool    `yaml:"line_numbers"`
	Foreground  string  `yaml:"foreground"`
	Background  string  `yaml:"background"`
}

// OutputConfig configures composition and encoding.
type OutputConfig struct {
	Format     string  `yaml:"format"` // pdf, svg, png, jpeg
	Layout     string  `yaml:"layout"` // row, grid
	Align      string  `yaml:"align"`
	Gap        int     `yaml:"gap"`
	Margin     int     `yaml:"margin"`
	Frame      int     `yaml:"frame"`
	FrameColor string  `yaml:"frame_color"`
	Quality    int     `yaml:"quality"`
	Scale      float64 `yaml:"scale"` // bitmap sheet scale factor, 0 or 1 keeps the size
	Width      int     `yaml:"width"` // bitmap sheet width in px, overrides scale when > 0
	Debug      bool    `yaml:"debug"` // write <output>.json next to each output
}

// BatchConfig configures parallel job execution.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Partition: PartitionConfig{
			Segments:     2,
			Break:        "auto",
			SearchBudget: partition.DefaultSearchBudget,
		},
		Render: RenderConfig{
			FontSize:   14,
			DPI:        96,
			TabWidth:   4,
			Padding:    10,
			Foreground: "#000000",
			Background: "#ffffff",
		},
		Output: OutputConfig{
			Format:     "png",
			Layout:     "row",
			Align:      "start",
			Gap:        16,
			Frame:      1,
			FrameColor: "#cccccc",
			Quality:    90,
			Scale:      1,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file; a missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CODESTRIP_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv("CODESTRIP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("CODESTRIP_SEGMENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CODESTRIP_SEGMENTS %q: %w", v, err)
		}
		c.Partition.Segments = n
	}
	if v := os.Getenv("CODESTRIP_BREAK"); v != "" {
		c.Partition.Break = v
	}
	if v := os.Getenv("CODESTRIP_FONT"); v != "" {
		c.Render.Font = v
	}
	return nil
}

// Criterion parses Partition.Break.
func (c *Config) Criterion() (partition.Criterion, error) {
	return partition.ParseCriterion(c.Partition.Break)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Partition.Segments <= 0 {
		return fmt.Errorf("partition.segments must be positive, got %d: %w", c.Partition.Segments, partition.ErrInvalidSegmentCount)
	}
	if _, err := c.Criterion(); err != nil {
		return fmt.Errorf("partition.break: %w", err)
	}
	if _, err := renderer.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if _, err := compose.ParseAlign(c.Output.Align); err != nil {
		return fmt.Errorf("output.align: %w", err)
	}
	for name, value := range map[string]string{
		"render.foreground":  c.Render.Foreground,
		"render.background":  c.Render.Background,
		"output.frame_color": c.Output.FrameColor,
	} {
		if _, err := compose.ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Output.Scale < 0 {
		return fmt.Errorf("output.scale must not be negative, got %g", c.Output.Scale)
	}
	if c.Output.Width < 0 {
		return fmt.Errorf("output.width must not be negative, got %d", c.Output.Width)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	return nil
}
