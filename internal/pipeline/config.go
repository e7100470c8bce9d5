// File path: internal/pipeline/config.go
package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultMaxConcurrent = 8

// Config controls how a comparison job is executed. The oracle adapter
// fronts a rate-limited external service, so the fan-out is always bounded.
type Config struct {
	MaxConcurrent int `json:"max_concurrent"`
}

// Merge overlays non-zero override fields onto the receiver.
func (c Config) Merge(override Config) Config {
	result := c
	if override.MaxConcurrent > 0 {
		result.MaxConcurrent = override.MaxConcurrent
	}
	return result
}

// LoadConfig reads pipeline settings from the environment and applies
// defaults.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if v := strings.TrimSpace(os.Getenv("SQLVERDICT_MAX_CONCURRENT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("pipeline: invalid SQLVERDICT_MAX_CONCURRENT: %w", err)
		}
		cfg.MaxConcurrent = n
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
}
