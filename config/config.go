// Package config - Tunable parameters and OSC endpoints, persisted as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvr-ai/go-depthtrack/images"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the tracker looks for its configuration.
const DefaultPath = "config.yaml"

// Tuning holds the numeric parameters of the blob path. They are read-only to
// the pipeline and only swapped between ticks.
type Tuning struct {
	// StepSize is the distance between threshold sweep levels.
	StepSize int `json:"step_size" yaml:"step_size"`
	// BlurAmount is the box blur kernel size.
	BlurAmount int `json:"blur_amount" yaml:"blur_amount"`
	// Contrast multiplies pixels after binarization.
	Contrast float64 `json:"contrast" yaml:"contrast"`
	// Brightness is added after the contrast multiplier.
	Brightness int `json:"brightness" yaml:"brightness"`
	// Threshold is the binarization cutoff of the raw frame.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// OSC holds the event channel endpoints.
type OSC struct {
	// Host receives outbound events.
	Host string `json:"host" yaml:"host"`
	// OutPort is the listener's port.
	OutPort int `json:"out_port" yaml:"out_port"`
	// InPort is where commands are accepted.
	InPort int `json:"in_port" yaml:"in_port"`
}

// Config is the root of the configuration file.
type Config struct {
	Tuning Tuning `json:"tuning" yaml:"tuning"`
	OSC    OSC    `json:"osc" yaml:"osc"`
}

// DefaultTuning returns the parameters used when no file is present.
func DefaultTuning() Tuning {
	p := images.DefaultPreprocessConfig()
	return Tuning{
		StepSize:   images.DefaultStepSize,
		BlurAmount: p.BlurAmount,
		Contrast:   p.Contrast,
		Brightness: p.Brightness,
		Threshold:  p.Threshold,
	}
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Tuning: DefaultTuning(),
		OSC: OSC{
			Host:    "localhost",
			OutPort: 3000,
			InPort:  3001,
		},
	}
}

// Preprocess maps the tuning onto the preprocessing stage.
func (t Tuning) Preprocess() images.PreprocessConfig {
	return images.PreprocessConfig{
		Threshold:  t.Threshold,
		Contrast:   t.Contrast,
		Brightness: t.Brightness,
		BlurAmount: t.BlurAmount,
	}
}

// Validate checks every parameter against the ranges of the parameter panel.
func (t Tuning) Validate() error {
	if t.StepSize < 1 || t.StepSize > 255 {
		return fmt.Errorf("step_size must be between 1 and 255, got %d", t.StepSize)
	}
	if t.BlurAmount < 3 || t.BlurAmount > 55 {
		return fmt.Errorf("blur_amount must be between 3 and 55, got %d", t.BlurAmount)
	}
	if t.Contrast < 1 || t.Contrast > 3 {
		return fmt.Errorf("contrast must be between 1 and 3, got %g", t.Contrast)
	}
	if t.Brightness < 0 || t.Brightness > 255 {
		return fmt.Errorf("brightness must be between 0 and 255, got %d", t.Brightness)
	}
	if t.Threshold < 0 || t.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255, got %g", t.Threshold)
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Tuning.Validate(); err != nil {
		return err
	}
	if c.OSC.Host == "" {
		return fmt.Errorf("osc.host must not be empty")
	}
	for name, port := range map[string]int{"osc.out_port": c.OSC.OutPort, "osc.in_port": c.OSC.InPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
		}
	}
	return nil
}

// Load reads a configuration file. A missing file yields the defaults; keys
// absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), errors.Wrapf(err, "invalid configuration in %s", path)
	}
	return cfg, nil
}

// Save writes the configuration, replacing the file atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid configuration")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
