// Package pactconfig loads and saves the mock server's own small
// configuration surface — bind address, shutdown grace period, and an
// optional cap on reported mismatches — as a YAML or JSON file.
package pactconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrFileNotFound is returned when Load is given a path that does not
// exist.
var ErrFileNotFound = errors.New("pactconfig: file not found")

// MockServerConfig is the set of knobs a caller may want to supply
// instead of accepting mockserver's defaults.
type MockServerConfig struct {
	BindAddr      string        `yaml:"bindAddr" json:"bindAddr"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace" json:"shutdownGrace"`
	MaxMismatches int           `yaml:"maxMismatches" json:"maxMismatches"`
}

// DefaultConfig returns a loopback, ephemeral-port bind address, the same
// 100ms shutdown grace as mockserver.DefaultShutdownGrace, and a zero
// MaxMismatches.
func DefaultConfig() MockServerConfig {
	return MockServerConfig{
		BindAddr:      "127.0.0.1:0",
		ShutdownGrace: 100 * time.Millisecond,
		MaxMismatches: 0,
	}
}

// Load reads a MockServerConfig from path, auto-detecting YAML
// (.yaml/.yml) vs JSON by extension.
func Load(path string) (MockServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MockServerConfig{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return MockServerConfig{}, fmt.Errorf("pactconfig: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return MockServerConfig{}, fmt.Errorf("pactconfig: parse YAML %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return MockServerConfig{}, fmt.Errorf("pactconfig: parse JSON %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically (temp sibling + rename), choosing
// YAML or JSON by path's extension.
func Save(path string, cfg MockServerConfig) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("pactconfig: marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pactconfig: create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("pactconfig: write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("pactconfig: rename temporary file into place: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
