package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 52, cfg.Tuning.StepSize)
	assert.Equal(t, 11, cfg.Tuning.BlurAmount)
	assert.Equal(t, 2.2, cfg.Tuning.Contrast)
	assert.Equal(t, 59, cfg.Tuning.Brightness)
	assert.Equal(t, 20.0, cfg.Tuning.Threshold)
	assert.Equal(t, OSC{Host: "localhost", OutPort: 3000, InPort: 3001}, cfg.OSC)
}

func TestTuningValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{name: "step too small", mutate: func(t *Tuning) { t.StepSize = 0 }},
		{name: "step too large", mutate: func(t *Tuning) { t.StepSize = 256 }},
		{name: "blur too small", mutate: func(t *Tuning) { t.BlurAmount = 2 }},
		{name: "blur too large", mutate: func(t *Tuning) { t.BlurAmount = 56 }},
		{name: "contrast too low", mutate: func(t *Tuning) { t.Contrast = 0.5 }},
		{name: "contrast too high", mutate: func(t *Tuning) { t.Contrast = 3.1 }},
		{name: "negative brightness", mutate: func(t *Tuning) { t.Brightness = -1 }},
		{name: "threshold too high", mutate: func(t *Tuning) { t.Threshold = 300 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuning := DefaultTuning()
			tt.mutate(&tuning)
			assert.Error(t, tuning.Validate())
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tuning:\n  step_size: 32\nosc:\n  out_port: 9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Tuning.StepSize = 32
	want.OSC.OutPort = 9000
	assert.Equal(t, want, cfg)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("tuning: [unclosed"), 0o644))
	_, err := Load(garbage)
	assert.Error(t, err)

	outOfRange := filepath.Join(dir, "range.yaml")
	require.NoError(t, os.WriteFile(outOfRange, []byte("tuning:\n  blur_amount: 99\n"), 0o644))
	cfg, err := Load(outOfRange)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Tuning.Contrast = 1.5
	cfg.Tuning.Threshold = 42
	cfg.OSC.Host = "10.0.0.7"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	bad := cfg
	bad.OSC.InPort = 0
	assert.Error(t, Save(path, bad))
}

func TestPreprocessMapping(t *testing.T) {
	tuning := Tuning{StepSize: 10, BlurAmount: 5, Contrast: 1.2, Brightness: 3, Threshold: 7}
	p := tuning.Preprocess()
	assert.Equal(t, 5, p.BlurAmount)
	assert.Equal(t, 1.2, p.Contrast)
	assert.Equal(t, 3, p.Brightness)
	assert.Equal(t, 7.0, p.Threshold)
}
