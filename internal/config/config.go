// Package config loads ffopts CLI and server settings from ffopts.yaml and
// FFOPTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	ffopts "github.com/goliatone/go-ffoptions"
	"github.com/goliatone/go-ffoptions/pkg/logging"
	"github.com/goliatone/go-ffoptions/pkg/state"
)

// EnvPrefix prefixes every environment override, e.g. FFOPTS_STORE_TYPE.
const EnvPrefix = "FFOPTS"

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Log    logging.Config `mapstructure:"log"`
	Store  StoreConfig    `mapstructure:"store"`
	Server ServerConfig   `mapstructure:"server"`
	Rules  RulesConfig    `mapstructure:"rules"`
}

type StoreConfig struct {
	Type   string       `mapstructure:"type"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Domain served when a request does not name one.
	Domain string `mapstructure:"domain"`
}

type RulesConfig struct {
	Engine string `mapstructure:"engine"`
}

// Load reads path when set, otherwise looks for ffopts.yaml in the working
// directory and ./config. A missing default file is not an error; an
// explicitly named one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ffopts")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service", "ffopts")
	v.SetDefault("store.type", StoreMemory)
	v.SetDefault("store.sqlite.path", "ffopts.db")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", state.DefaultRedisPrefix)
	v.SetDefault("store.redis.ttl", time.Duration(0))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.domain", "playback")
	v.SetDefault("rules.engine", "expr")
}

// Validate rejects unknown store backends and rule engines.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}
	switch c.Rules.Engine {
	case "", "expr", "cel", "js":
	default:
		return fmt.Errorf("config: unknown rules engine %q", c.Rules.Engine)
	}
	return nil
}

// OpenStore opens the configured snapshot backend. The returned closer is
// never nil.
func (c *Config) OpenStore() (state.Store, io.Closer, error) {
	switch c.Store.Type {
	case StoreSQLite:
		store, err := state.OpenSQLiteStore(c.Store.SQLite.Path)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return store, store, nil
	case StoreRedis:
		store, err := state.NewRedisStore(state.RedisConfig{
			Address:  c.Store.Redis.Address,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
			TTL:      c.Store.Redis.TTL,
		})
		if err != nil {
			return nil, nopCloser{}, err
		}
		return store, store, nil
	default:
		return state.NewMemoryStore(), nopCloser{}, nil
	}
}

// Evaluator builds the rule evaluator named by rules.engine.
func (c *Config) Evaluator() (ffopts.Evaluator, error) {
	return ffopts.EvaluatorByName(c.Rules.Engine, ffopts.NewMapProgramCache(), ffopts.NewPlaybackFunctionRegistry())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
