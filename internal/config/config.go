// Package config loads the ivrflow project configuration from ivrflow.yaml and IVRFLOW_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "ivrflow.yaml"

// ErrInvalidConfig wraps every load or validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the project configuration shared by the CLI commands.
type Config struct {
	LogLevel   string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	DeadBranch string `yaml:"dead_branch" validate:"omitempty,oneof=reprompt hangup"`
	Server     Server `yaml:"server"`
	Store      Store  `yaml:"store"`
}

// Server configures `ivrflow serve` and the SSE transport of `ivrflow mcp`.
type Server struct {
	Addr     string        `yaml:"addr" validate:"required"`
	Metrics  bool          `yaml:"metrics"`
	LockTTL  time.Duration `yaml:"lock_ttl" validate:"gte=0"`
	MCPPort  int           `yaml:"mcp_port" validate:"gte=0,lte=65535"`
	JSONLogs bool          `yaml:"json_logs"`
}

// Store selects the FlowStore backend.
type Store struct {
	Driver string        `yaml:"driver" validate:"oneof=memory file redis sqlite"`
	Path   string        `yaml:"path" validate:"required_if=Driver file,required_if=Driver sqlite"`
	Redis  string        `yaml:"redis" validate:"required_if=Driver redis"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=0"`

	// EncryptionKey is a base64 AES-256 key; when set, documents are sealed at rest.
	EncryptionKey string   `yaml:"encryption_key" validate:"omitempty,base64"`
	FallbackKeys  []string `yaml:"fallback_keys" validate:"dive,base64"`
	// Redact lists regular expressions of config field names masked before saving.
	Redact []string `yaml:"redact"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: Server{
			Addr:    ":8080",
			Metrics: true,
			MCPPort: 8081,
		},
		Store: Store{
			Driver: DriverMemory,
		},
	}
}

// Load reads path over the defaults, applies IVRFLOW_* overrides and validates the result.
// An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"IVRFLOW_LOG_LEVEL":      &c.LogLevel,
		"IVRFLOW_DEAD_BRANCH":    &c.DeadBranch,
		"IVRFLOW_ADDR":           &c.Server.Addr,
		"IVRFLOW_STORE":          &c.Store.Driver,
		"IVRFLOW_STORE_PATH":     &c.Store.Path,
		"IVRFLOW_REDIS_ADDR":     &c.Store.Redis,
		"IVRFLOW_STORE_PREFIX":   &c.Store.Prefix,
		"IVRFLOW_ENCRYPTION_KEY": &c.Store.EncryptionKey,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("IVRFLOW_METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: IVRFLOW_METRICS: %v", ErrInvalidConfig, err)
		}
		c.Server.Metrics = b
	}
	if v, ok := os.LookupEnv("IVRFLOW_STORE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: IVRFLOW_STORE_TTL: %v", ErrInvalidConfig, err)
		}
		c.Store.TTL = d
	}
	return nil
}

var validate = validator.New()

// Validate checks the struct tags and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
