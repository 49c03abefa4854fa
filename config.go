package kizuna

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML shape of an on-disk configuration file. Durations
// use Go duration syntax ("30m", "1h"). Unset fields fall back to the
// defaults from NewOptions.
type FileConfig struct {
	DataDir            string `yaml:"dataDir"`
	SessionTimeout     string `yaml:"sessionTimeout"`
	RotationInterval   string `yaml:"rotationInterval"`
	DisposableLifetime string `yaml:"disposableLifetime"`
	PairingTimeout     string `yaml:"pairingTimeout"`
}

// LoadOptions reads a YAML configuration file and merges it over the
// defaults. The master password never lives in the file; callers set it on
// the returned options.
func LoadOptions(configPath string) (*Options, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	options := NewOptions()
	if parsed.DataDir != "" {
		options.DataDir = parsed.DataDir
	}
	if err := mergeDuration(&options.SessionTimeout, "sessionTimeout", parsed.SessionTimeout); err != nil {
		return nil, err
	}
	if err := mergeDuration(&options.RotationInterval, "rotationInterval", parsed.RotationInterval); err != nil {
		return nil, err
	}
	if err := mergeDuration(&options.DisposableLifetime, "disposableLifetime", parsed.DisposableLifetime); err != nil {
		return nil, err
	}
	if err := mergeDuration(&options.PairingTimeout, "pairingTimeout", parsed.PairingTimeout); err != nil {
		return nil, err
	}

	return options, nil
}

func mergeDuration(dst *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse config: %s must be positive", name)
	}
	*dst = d
	return nil
}
