package config

import (
	"slices"
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/yogaclub/core/validator"
	"github.com/kochabx/yogaclub/log"
)

// Config manages application configuration
type Config struct {
	mu        sync.RWMutex
	viper     *viper.Viper
	validate  validator.Validator
	target    any
	loader    Loader
	name      string
	paths     []string
	envPrefix string
	defaults  map[string]any
	onChange  []func()
}

// Option is a function that configures a Config
type Option func(*Config)

// WithFile sets the config file name and search paths
func WithFile(name string, paths ...string) Option {
	return func(c *Config) {
		c.name = name
		if len(paths) > 0 {
			c.paths = paths
		}
	}
}

// WithEnvPrefix sets the environment variable prefix
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithDefaults registers default values keyed by dotted config path
func WithDefaults(defaults map[string]any) Option {
	return func(c *Config) {
		for k, v := range defaults {
			c.defaults[k] = v
		}
	}
}

// WithValidator sets a custom validator
func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// OnChange registers a callback run after a successful reload
func OnChange(fn func()) Option {
	return func(c *Config) {
		c.onChange = append(c.onChange, fn)
	}
}

// New creates a Config for target. Without a loader a FileLoader reads
// config.yaml from "." and "./configs".
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		name:     "config.yaml",
		paths:    []string{".", "./configs"},
		defaults: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}

	for k, v := range c.defaults {
		c.viper.SetDefault(k, v)
	}
	if c.loader == nil {
		c.loader = NewFileLoader(c.name, c.paths, c.envPrefix, c.viper, c.validate)
	}
	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.Load(c.target)
}

// Read runs fn while holding the read lock, for callers that read the target
// concurrently with a hot reload.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch hot-reloads the configuration on file change
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		if err := c.Load(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}
		c.mu.RLock()
		callbacks := slices.Clone(c.onChange)
		c.mu.RUnlock()
		for _, fn := range callbacks {
			fn()
		}
		log.Info().Msg("config reloaded successfully")
	})
}

// Subscribe registers a callback run after a successful reload. Unlike
// OnChange it may be called once the Config exists, so components built from
// the loaded values can subscribe to their own settings.
func (c *Config) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Viper returns the underlying viper instance
func (c *Config) Viper() *viper.Viper {
	return c.viper
}
