package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSpacing    = 5.0
	DefaultVelocity   = 1500.0
	DefaultPadding    = 50
	DefaultTaper      = 0.007
	DefaultIterations = 300
	DefaultAmp        = 1.0
	DefaultFCut       = 40.0
)

type Config struct {
	Rows       int     `yaml:"rows"`
	Cols       int     `yaml:"cols"`
	Spacing    float64 `yaml:"spacing"`
	SpacingZ   float64 `yaml:"spacing_z"` // 0 means isotropic
	Dt         float64 `yaml:"dt"`        // 0 means derive from the kernel
	Padding    int     `yaml:"padding"`
	Taper      float64 `yaml:"taper"`
	Iterations int     `yaml:"iterations"`

	Store   StoreConfig    `yaml:"store"`
	Model   ModelConfig    `yaml:"model"`
	Sources []SourceConfig `yaml:"sources"`
}

type StoreConfig struct {
	Path        string `yaml:"path"` // empty means a transient temp file
	ChunkRows   int    `yaml:"chunk_rows"`
	Compression string `yaml:"compression"`
	Shuffle     bool   `yaml:"shuffle"`
}

type ModelConfig struct {
	Velocity float64       `yaml:"velocity"` // uniform model when no layers given
	Layers   []LayerConfig `yaml:"layers"`
}

type LayerConfig struct {
	Rows     int     `yaml:"rows"`
	Velocity float64 `yaml:"velocity"`
}

type SourceConfig struct {
	Row     int     `yaml:"row"`
	Col     int     `yaml:"col"`
	Wavelet string  `yaml:"wavelet"` // ricker or gaussian
	Amp     float64 `yaml:"amp"`
	FCut    float64 `yaml:"fcut"`
	Delay   float64 `yaml:"delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Rows:       100,
		Cols:       100,
		Spacing:    DefaultSpacing,
		Padding:    DefaultPadding,
		Taper:      DefaultTaper,
		Iterations: DefaultIterations,
		Model:      ModelConfig{Velocity: DefaultVelocity},
		Sources: []SourceConfig{
			{Row: 50, Col: 50, Wavelet: "ricker", Amp: DefaultAmp, FCut: DefaultFCut},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate catches config mistakes the driver would reject later, with
// friendlier messages for CLI users.
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("config: rows and cols must be positive, got (%d, %d)", c.Rows, c.Cols)
	}
	if c.Spacing <= 0 {
		return fmt.Errorf("config: spacing must be positive, got %g", c.Spacing)
	}
	if c.Padding < 0 {
		return fmt.Errorf("config: padding must be non-negative, got %d", c.Padding)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("config: iterations must be non-negative, got %d", c.Iterations)
	}
	if len(c.Model.Layers) == 0 && c.Model.Velocity <= 0 {
		return fmt.Errorf("config: model velocity must be positive, got %g", c.Model.Velocity)
	}
	for i, s := range c.Sources {
		if s.Row < 0 || s.Row >= c.Rows || s.Col < 0 || s.Col >= c.Cols {
			return fmt.Errorf("config: source %d at (%d, %d) outside domain (%d, %d)", i, s.Row, s.Col, c.Rows, c.Cols)
		}
		switch s.Wavelet {
		case "ricker", "gaussian":
		default:
			return fmt.Errorf("config: source %d has unknown wavelet %q", i, s.Wavelet)
		}
		if s.FCut <= 0 {
			return fmt.Errorf("config: source %d needs a positive fcut, got %g", i, s.FCut)
		}
	}
	return nil
}
