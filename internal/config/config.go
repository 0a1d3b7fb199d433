package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config describes one offline export run. Values come from DefaultConfig,
// then an optional YAML file, then OVERLAY2VIDEO_* environment variables, then
// command-line flags.
type Config struct {
	ManifestPath string   `yaml:"manifest" env:"OVERLAY2VIDEO_MANIFEST"`
	Categories   []string `yaml:"categories,omitempty" env:"OVERLAY2VIDEO_CATEGORIES" envSeparator:","`

	// Background frames composited under the annotations (PDF or images).
	BackgroundPath  string  `yaml:"background,omitempty" env:"OVERLAY2VIDEO_BACKGROUND"`
	FrameIntervalMs float64 `yaml:"frame_interval_ms" env:"OVERLAY2VIDEO_FRAME_INTERVAL_MS"`
	DPI             int     `yaml:"dpi" env:"OVERLAY2VIDEO_DPI"`
	// Background video overlaid by ffmpeg; decoding never happens in-process.
	BackgroundVideo string `yaml:"background_video,omitempty" env:"OVERLAY2VIDEO_BACKGROUND_VIDEO"`

	OutputVideo  string `yaml:"output,omitempty" env:"OVERLAY2VIDEO_OUTPUT"`
	OutputFrames string `yaml:"frames_dir,omitempty" env:"OVERLAY2VIDEO_FRAMES_DIR"`

	Width   int     `yaml:"width" env:"OVERLAY2VIDEO_WIDTH"`
	Height  int     `yaml:"height" env:"OVERLAY2VIDEO_HEIGHT"`
	FPS     int     `yaml:"fps" env:"OVERLAY2VIDEO_FPS"`
	StartMs float64 `yaml:"start_ms" env:"OVERLAY2VIDEO_START_MS"`
	EndMs   float64 `yaml:"end_ms" env:"OVERLAY2VIDEO_END_MS"`
	Workers int     `yaml:"workers" env:"OVERLAY2VIDEO_WORKERS"`

	VideoEncoder string `yaml:"encoder,omitempty" env:"OVERLAY2VIDEO_ENCODER"`
	Quality      int    `yaml:"quality" env:"OVERLAY2VIDEO_QUALITY"`

	DebugMode    bool   `yaml:"debug" env:"OVERLAY2VIDEO_DEBUG"`
	ShowStats    bool   `yaml:"stats" env:"OVERLAY2VIDEO_STATS"`
	BuildVersion string `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		FrameIntervalMs: 1000,
		DPI:             150,
		Width:           1280,
		Height:          720,
		FPS:             30,
		EndMs:           -1,
		Workers:         runtime.NumCPU(),
	}
}

// Load reads a YAML config on top of DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ParseEnv overlays OVERLAY2VIDEO_* variables onto cfg. Unset variables leave
// fields untouched.
func ParseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings an export cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.ManifestPath == "" {
		errs = append(errs, errors.New("manifest path is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("size %dx%d must be even for yuv420p", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("invalid fps %d", c.FPS))
	}
	if c.EndMs >= 0 && c.EndMs < c.StartMs {
		errs = append(errs, fmt.Errorf("end %.0fms before start %.0fms", c.EndMs, c.StartMs))
	}
	if c.OutputVideo == "" && c.OutputFrames == "" {
		errs = append(errs, errors.New("either an output video or a frames directory is required"))
	}
	return errors.Join(errs...)
}

// DefaultQuality picks a quality value suited to the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // битрейт = Q*100 кбит/с
	case "h264_nvenc":
		return 28 // эквивалент CRF для NVENC
	default:
		return 23 // стандартный CRF для x264
	}
}
