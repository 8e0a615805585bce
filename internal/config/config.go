// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package config loads authplay settings from, in increasing precedence,
// built-in defaults, a YAML file, the environment and command-line flags.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/authplay/authplay/internal/auth"
	"github.com/authplay/authplay/internal/auth/postgres"
	"github.com/authplay/authplay/internal/store"
)

// EnvPrefix marks environment variables that override config keys.
// AUTHPLAY_DATABASE__MAX_CONNS sets database.max_conns.
const EnvPrefix = "AUTHPLAY_"

// DatabaseURLEnv is read when database.url is not otherwise set.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the full authplay configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" jsonschema:"description=PostgreSQL connection pool"`
	Hashing  HashingConfig  `koanf:"hashing" jsonschema:"description=argon2id cost parameters"`
	Sessions SessionsConfig `koanf:"sessions"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL         string `koanf:"url" jsonschema:"description=postgres:// connection URL"`
	MinConns    int32  `koanf:"min_conns" jsonschema:"minimum=0"`
	MaxConns    int32  `koanf:"max_conns" jsonschema:"minimum=1"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// HashingConfig holds the argon2id cost parameters.
type HashingConfig struct {
	Time      uint32 `koanf:"time" jsonschema:"minimum=1"`
	MemoryKiB uint32 `koanf:"memory_kib" jsonschema:"minimum=8"`
	Threads   uint8  `koanf:"threads" jsonschema:"minimum=1,maximum=255"`
}

// SessionsConfig tunes session id allocation and cleanup.
type SessionsConfig struct {
	IDAttempts    int           `koanf:"id_attempts" jsonschema:"minimum=1"`
	PurgeInterval time.Duration `koanf:"purge_interval" jsonschema:"description=Go duration; 0 disables the purge loop"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Format string `koanf:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig configures the observability server. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			MinConns:    store.DefaultMinConns,
			MaxConns:    store.DefaultMaxConns,
			AutoMigrate: true,
		},
		Hashing: HashingConfig{
			Time:      auth.DefaultArgon2Time,
			MemoryKiB: auth.DefaultArgon2MemoryKiB,
			Threads:   auth.DefaultArgon2Threads,
		},
		Sessions: SessionsConfig{
			IDAttempts:    postgres.DefaultIDAttempts,
			PurgeInterval: 10 * time.Minute,
		},
		Log:     LogConfig{Format: "json", Level: "info"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

func (c Config) toMap() map[string]any {
	return map[string]any{
		"database.url":            c.Database.URL,
		"database.min_conns":      c.Database.MinConns,
		"database.max_conns":      c.Database.MaxConns,
		"database.auto_migrate":   c.Database.AutoMigrate,
		"hashing.time":            c.Hashing.Time,
		"hashing.memory_kib":      c.Hashing.MemoryKiB,
		"hashing.threads":         c.Hashing.Threads,
		"sessions.id_attempts":    c.Sessions.IDAttempts,
		"sessions.purge_interval": c.Sessions.PurgeInterval.String(),
		"log.format":              c.Log.Format,
		"log.level":               c.Log.Level,
		"metrics.addr":            c.Metrics.Addr,
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"database-url":           "database.url",
	"db-min-conns":           "database.min_conns",
	"db-max-conns":           "database.max_conns",
	"auto-migrate":           "database.auto_migrate",
	"session-purge-interval": "sessions.purge_interval",
	"log-format":             "log.format",
	"log-level":              "log.level",
	"metrics-addr":           "metrics.addr",
}

// Loader reads configuration. The zero value reads the real environment.
type Loader struct {
	// Path is an optional YAML file.
	Path string
	// Flags, when set, supplies overrides for flags the user changed.
	Flags *pflag.FlagSet
	// Environ defaults to os.Environ.
	Environ func() []string
}

// Load builds and validates a Config.
func (l Loader) Load() (*Config, error) {
	k := koanf.New(".")

	for key, val := range Defaults().toMap() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if l.Path != "" {
		provider := file.Provider(l.Path)
		data, err := provider.ReadBytes()
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", l.Path).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.With("path", l.Path).Wrap(err)
		}
		if err := k.Load(provider, yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", l.Path).Wrap(err)
		}
	}

	if err := l.loadEnv(k); err != nil {
		return nil, err
	}

	if l.Flags != nil {
		provider := posflag.ProviderWithFlag(l.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(l.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l Loader) loadEnv(k *koanf.Koanf) error {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}

	provider := env.Provider(".", env.Opt{
		Prefix:      EnvPrefix,
		EnvironFunc: environ,
		TransformFunc: func(name, value string) (string, any) {
			rest := strings.TrimPrefix(name, EnvPrefix)
			if rest == "" {
				return "", nil
			}
			return strings.ToLower(strings.ReplaceAll(rest, "__", ".")), value
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if k.String("database.url") != "" {
		return nil
	}
	for _, kv := range environ() {
		if value, ok := strings.CutPrefix(kv, DatabaseURLEnv+"="); ok && value != "" {
			if err := k.Set("database.url", value); err != nil {
				return oops.Code("CONFIG_LOAD_FAILED").With("env", DatabaseURLEnv).Wrap(err)
			}
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	invalid := func(key string, value any, msg string) error {
		return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf("%s: %s", key, msg)
	}

	switch {
	case c.Database.URL == "":
		return invalid("database.url", "", "required (or set "+DatabaseURLEnv+")")
	case c.Database.MinConns < 0:
		return invalid("database.min_conns", c.Database.MinConns, "must not be negative")
	case c.Database.MaxConns < 1:
		return invalid("database.max_conns", c.Database.MaxConns, "must be at least 1")
	case c.Database.MinConns > c.Database.MaxConns:
		return invalid("database.min_conns", c.Database.MinConns, "must not exceed database.max_conns")
	case c.Hashing.Time < 1:
		return invalid("hashing.time", c.Hashing.Time, "must be at least 1")
	case c.Hashing.Threads < 1:
		return invalid("hashing.threads", c.Hashing.Threads, "must be at least 1")
	case c.Hashing.MemoryKiB < 8*uint32(c.Hashing.Threads):
		return invalid("hashing.memory_kib", c.Hashing.MemoryKiB, "must be at least 8 KiB per thread")
	case c.Sessions.IDAttempts < 1:
		return invalid("sessions.id_attempts", c.Sessions.IDAttempts, "must be at least 1")
	case c.Sessions.PurgeInterval < 0:
		return invalid("sessions.purge_interval", c.Sessions.PurgeInterval, "must not be negative")
	case c.Log.Format != "json" && c.Log.Format != "text":
		return invalid("log.format", c.Log.Format, `must be "json" or "text"`)
	}
	return nil
}

// Argon2Params converts the hashing section for auth.NewArgon2idHasher.
func (c Config) Argon2Params() auth.Argon2Params {
	return auth.Argon2Params{
		Time:      c.Hashing.Time,
		MemoryKiB: c.Hashing.MemoryKiB,
		Threads:   c.Hashing.Threads,
	}
}

// PoolConfig converts the database section for store.NewPool.
func (c Config) PoolConfig() store.PoolConfig {
	return store.PoolConfig{
		URL:      c.Database.URL,
		MinConns: c.Database.MinConns,
		MaxConns: c.Database.MaxConns,
	}
}
