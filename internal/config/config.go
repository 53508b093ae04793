package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/scenario"
)

const (
	DefaultSystem          = "dc_motor"
	DefaultDataDir         = ".ctrlsim"
	DefaultAddr            = ":8000"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultKp              = 1.0
	DefaultKi              = 0.0
	DefaultKd              = 0.0
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 28
)

// DefaultOrigins are the front-ends allowed to call the HTTP service.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://controlverse-frontend.vercel.app",
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CTRLSIM_"

type Config struct {
	System   string         `yaml:"system"`
	Gains    control.Gains  `yaml:"default_gains"`
	DataDir  string         `yaml:"data_dir"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Sessions SessionsConfig `yaml:"sessions"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Debug      bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SessionsConfig selects where simulation sessions are logged. An empty
// Path disables the local store; an empty Redis.Addr disables Redis.
type SessionsConfig struct {
	Path  string      `yaml:"path"`
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

func DefaultConfig() *Config {
	return &Config{
		System: DefaultSystem,
		Gains: control.Gains{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
		DataDir: DefaultDataDir,
		Log: LogConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			AllowedOrigins:  append([]string(nil), DefaultOrigins...),
			ShutdownTimeout: DefaultShutdownTimeout,
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault reads path when it exists and falls back to the defaults
// otherwise. Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from CTRLSIM_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	str("SYSTEM", &c.System)
	str("DATA_DIR", &c.DataDir)
	str("LOG_FILE", &c.Log.File)
	str("ADDR", &c.Server.Addr)
	str("SESSIONS_PATH", &c.Sessions.Path)
	str("REDIS_ADDR", &c.Sessions.Redis.Addr)
	str("REDIS_PASSWORD", &c.Sessions.Redis.Password)

	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", EnvPrefix, err)
		}
		c.Log.Debug = debug
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := scenario.ParseSystemType(c.System); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config: negative shutdown_timeout %s", c.Server.ShutdownTimeout)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
