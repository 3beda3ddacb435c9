// Package config loads and validates telepathy service configuration from
// environment variables (TELEPATHY_*), optional .env files, and an optional
// YAML config file.
package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/telepathy/internal/logger"
)

// Config is the root configuration for the telepathy service.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Host         string   `yaml:"host" mapstructure:"host"`
	Port         int      `yaml:"port" mapstructure:"port"`
	ReadTimeout  int      `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int      `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds, 0 disables
	IdleTimeout  int      `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	FFprobePath  string   `yaml:"ffprobe_path" mapstructure:"ffprobe_path"`

	Logging  logger.Config  `yaml:"log" mapstructure:"log"`
	Model    ModelConfig    `yaml:"model" mapstructure:"model"`
	AutoAVSR AutoAVSRConfig `yaml:"autoavsr" mapstructure:"autoavsr"`
	OTel     OTelConfig     `yaml:"otel" mapstructure:"otel"`
}

// ModelConfig selects the transcription backend.
type ModelConfig struct {
	// Backend names the transcriber variant. Unknown names degrade to the
	// stub at selection time rather than failing validation here.
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// AutoAVSRConfig configures the real lipreading backend.
type AutoAVSRConfig struct {
	Repo     string        `yaml:"repo" mapstructure:"repo"`
	Config   string        `yaml:"config" mapstructure:"config"`
	Detector string        `yaml:"detector" mapstructure:"detector"`
	Device   string        `yaml:"device" mapstructure:"device"`
	GPUIdx   int           `yaml:"gpu_idx" mapstructure:"gpu_idx"`
	Python   string        `yaml:"python" mapstructure:"python"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 disables per-call deadline
}

// OTelConfig configures optional OpenTelemetry export. Telemetry stays off
// while Endpoint is empty.
type OTelConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// Enabled reports whether telemetry export is configured.
func (c OTelConfig) Enabled() bool { return c.Endpoint != "" }

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "telepathy"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 17845
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 60
	}
	// WriteTimeout stays 0 unless set: a transcription holds the response
	// open while the engine runs, with no upper bound in the default policy.
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 64 << 20
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	c.Logging.ApplyDefaults()
	if c.Model.Backend == "" {
		c.Model.Backend = "autoavsr"
	}
	if c.AutoAVSR.Config == "" {
		c.AutoAVSR.Config = "configs/LRS3_V_WER19.1.ini"
	}
	if c.AutoAVSR.Detector == "" {
		c.AutoAVSR.Detector = "mediapipe"
	}
	if c.AutoAVSR.Device == "" {
		c.AutoAVSR.Device = "mps"
	}
	if c.AutoAVSR.Python == "" {
		c.AutoAVSR.Python = "python3"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("config.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("config.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("config.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config.max_body_bytes must be positive (got: %d)", c.MaxBodyBytes)
	}
	if c.AutoAVSR.Timeout < 0 {
		return fmt.Errorf("config.autoavsr.timeout must be non-negative (got: %s)", c.AutoAVSR.Timeout)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.log: %w", err)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from the standard sources, applies defaults, and
// validates the result.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	opts = append([]LoaderOption{WithDefaults(map[string]any{
		// Zero is a valid cuda index, so the sentinel must be seeded before
		// unmarshal rather than patched in ApplyDefaults.
		"autoavsr.gpu_idx": -1,
	})}, opts...)
	if err := LoadConfig("telepathy", cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
