// CLAUDE:SUMMARY YAML configuration for the publisher: remote connection, pacing, limits, checkpoint path.
package publish

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/depeche/batch"
	"github.com/hazyhaar/depeche/engine"
	"github.com/hazyhaar/depeche/remote"
)

// Config is the top-level publisher configuration.
type Config struct {
	Remote     RemoteConfig     `yaml:"remote"`
	Engine     EngineConfig     `yaml:"engine"`
	Batch      BatchConfig      `yaml:"batch"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// RemoteConfig describes the platform connection. Token supports ${ENV_VAR}
// expansion so config files never carry the secret itself.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Version string        `yaml:"version"`
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig tunes pacing and retry.
type EngineConfig struct {
	CallsPerSecond float64       `yaml:"calls_per_second"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseBackoff    time.Duration `yaml:"base_backoff"`
	RowDelay       time.Duration `yaml:"row_delay"`
}

// BatchConfig overrides the packing ceilings. Zero keeps the defaults.
type BatchConfig struct {
	MaxBlocks     int `yaml:"max_blocks"`
	MaxBatchBytes int `yaml:"max_batch_bytes"`
	MaxBlockBytes int `yaml:"max_block_bytes"`
}

// CheckpointConfig locates the run state database.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("publish: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("publish: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Remote.Token = os.Expand(c.Remote.Token, os.Getenv)
	if c.Checkpoint.Path == "" {
		c.Checkpoint.Path = "depeche.db"
	}
}

func (c *Config) remoteConfig() remote.Config {
	return remote.Config{
		BaseURL: c.Remote.BaseURL,
		Token:   c.Remote.Token,
		Version: c.Remote.Version,
		Timeout: c.Remote.Timeout,
	}
}

func (c *Config) engineConfig() engine.Config {
	return engine.Config{
		CallsPerSecond: c.Engine.CallsPerSecond,
		MaxAttempts:    c.Engine.MaxAttempts,
		BaseBackoff:    c.Engine.BaseBackoff,
		RowDelay:       c.Engine.RowDelay,
	}
}

func (c *Config) batchLimits() batch.Limits {
	return batch.Limits{
		MaxBlocks:     c.Batch.MaxBlocks,
		MaxBatchBytes: c.Batch.MaxBatchBytes,
		MaxBlockBytes: c.Batch.MaxBlockBytes,
	}
}
