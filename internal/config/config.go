// Package config loads ruleviz settings from a TOML file and the environment.
//
// Values are resolved with the precedence flag > env > file > default. This
// package covers the last three; commands apply their flags on top of the
// loaded [Config].
package config

import (
	stderrors "errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/ruleclient"
)

const (
	// AppName names the config and cache directories.
	AppName = "ruleviz"

	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	// DefaultServer is the rule service address used when none is configured.
	DefaultServer = "http://localhost:5000"

	// DefaultListen is the address served by "ruleviz serve".
	DefaultListen = "127.0.0.1:8080"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvServer    = "RULEVIZ_SERVER"
	EnvTimeout   = "RULEVIZ_TIMEOUT"
	EnvRetries   = "RULEVIZ_RETRIES"
	EnvListen    = "RULEVIZ_LISTEN"
	EnvCache     = "RULEVIZ_CACHE"
	EnvRedisAddr = "RULEVIZ_REDIS_ADDR"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the resolved ruleviz configuration.
type Config struct {
	Server   string        `toml:"server"`
	Timeout  time.Duration `toml:"timeout"`
	Retries  int           `toml:"retries"`
	Width    float64       `toml:"width"`
	Height   float64       `toml:"height"`
	MaxDepth int           `toml:"max_depth"`
	Listen   string        `toml:"listen"`
	Cache    Cache         `toml:"cache"`
}

// Cache configures the cache backend.
type Cache struct {
	Backend   string        `toml:"backend"`
	TTL       time.Duration `toml:"ttl"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   DefaultServer,
		Timeout:  ruleclient.DefaultTimeout,
		Width:    pipeline.DefaultWidth,
		Height:   pipeline.DefaultHeight,
		MaxDepth: pipeline.DefaultMaxDepth,
		Listen:   DefaultListen,
		Cache: Cache{
			Backend: BackendFile,
			TTL:     ruleclient.DefaultASTTTL,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/ruleviz/config.toml, falling back to
// the platform config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Load reads the config file at path over the defaults, then applies the
// environment. An empty path means [DefaultPath], which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			cfg.ApplyEnv(os.LookupEnv)
			return cfg, cfg.Validate()
		}
		path = p
	}

	if err := cfg.ReadFile(path); err != nil {
		if explicit || !stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// ReadFile decodes the TOML file at path into c. Keys missing from the
// file keep their current values.
func (c *Config) ReadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// ApplyEnv overrides c with the RULEVIZ_* variables found by lookup.
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServer); ok && v != "" {
		c.Server = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v, ok := lookup(EnvRetries); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		c.Cache.Backend = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.RedisAddr = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.Server); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "server")
	}
	if c.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "retries must not be negative, got %d", c.Retries)
	}
	if !positiveFinite(c.Width) || !positiveFinite(c.Height) {
		return errors.New(errors.ErrCodeInvalidDimensions, "width and height must be positive, got %vx%v", c.Width, c.Height)
	}
	if c.MaxDepth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_depth must be positive, got %d", c.MaxDepth)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	return nil
}

// PipelineOptions returns the layout settings of c.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Width:    c.Width,
		Height:   c.Height,
		MaxDepth: c.MaxDepth,
	}
}

// ClientOptions returns the rule client settings of c, without the cache.
func (c Config) ClientOptions() []ruleclient.Option {
	opts := []ruleclient.Option{ruleclient.WithTimeout(c.Timeout)}
	if c.Retries > 0 {
		opts = append(opts, ruleclient.WithRetries(c.Retries, ruleclient.DefaultRetryDelay))
	}
	return opts
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
