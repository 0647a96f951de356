// Package config loads process settings from easel.yml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds process-level settings loaded from easel.yml.
type Config struct {
	Addr                string  `yaml:"addr,omitempty"`
	MCPAddr             string  `yaml:"mcpAddr,omitempty"`
	StorePath           string  `yaml:"storePath,omitempty"`
	ImagesPerIteration  int     `yaml:"imagesPerIteration,omitempty"`
	IoUThreshold        float64 `yaml:"iouThreshold,omitempty"`
	RetryAttempts       int     `yaml:"retryAttempts,omitempty"`
	RecommendDelayMs    int     `yaml:"recommendDelayMs,omitempty"`
	Verbose             bool    `yaml:"verbose,omitempty"`
}

// Load attempts to read easel.yml or easel.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"easel.yml", "easel.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// RecommendDelay converts the configured debounce window to a Duration.
// Zero means "use the pipeline default".
func (c *Config) RecommendDelay() time.Duration {
	return time.Duration(c.RecommendDelayMs) * time.Millisecond
}
