// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

// Package config loads server settings. Sources are layered: built-in
// defaults, then an optional YAML file, then command-line flags that were
// set explicitly, then SHOPFRONT_* environment variables.
package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/shopfront/shopfront/internal/auth"
	"github.com/shopfront/shopfront/internal/logging"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// MailConfig selects and configures the mailer. An empty Host selects the
// logging mailer.
type MailConfig struct {
	Host     string `koanf:"host"     env:"SHOPFRONT_MAIL_HOST"`
	Port     int    `koanf:"port"     env:"SHOPFRONT_MAIL_PORT"`
	Username string `koanf:"username" env:"SHOPFRONT_MAIL_USERNAME"`
	Password string `koanf:"password" env:"SHOPFRONT_MAIL_PASSWORD"`
	From     string `koanf:"from"     env:"SHOPFRONT_MAIL_FROM"`
}

// Config holds the settings of the serve command.
type Config struct {
	HTTPAddr    string        `koanf:"http_addr"    env:"SHOPFRONT_HTTP_ADDR"`
	MetricsAddr string        `koanf:"metrics_addr" env:"SHOPFRONT_METRICS_ADDR"`
	LogFormat   string        `koanf:"log_format"   env:"SHOPFRONT_LOG_FORMAT"`
	LogLevel    string        `koanf:"log_level"    env:"SHOPFRONT_LOG_LEVEL"`
	Store       string        `koanf:"store"        env:"SHOPFRONT_STORE"`
	DatabaseURL string        `koanf:"database_url" env:"SHOPFRONT_DATABASE_URL"`
	JWTSecret   string        `koanf:"jwt_secret"   env:"SHOPFRONT_JWT_SECRET"`
	SessionTTL  time.Duration `koanf:"session_ttl"  env:"SHOPFRONT_SESSION_TTL"`
	FrontendURL string        `koanf:"frontend_url" env:"SHOPFRONT_FRONTEND_URL"`
	Mail        MailConfig    `koanf:"mail"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:    ":4444",
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
		LogLevel:    "info",
		Store:       StorePostgres,
		SessionTTL:  auth.SessionArtifactMaxAge,
		FrontendURL: "http://localhost:7777",
		Mail:        MailConfig{Port: 587, From: "shopfront@localhost"},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":    "http_addr",
	"metrics-addr": "metrics_addr",
	"log-format":   "log_format",
	"log-level":    "log_level",
	"store":        "store",
	"database-url": "database_url",
	"session-ttl":  "session_ttl",
	"frontend-url": "frontend_url",
}

// RegisterFlags adds the config flags to fs. The flag defaults shown in help
// are the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML config file")
	fs.String("http-addr", d.HTTPAddr, "API listen address")
	fs.String("metrics-addr", d.MetricsAddr, "metrics and health listen address (empty to disable)")
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("store", d.Store, "storage backend (postgres or memory)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Duration("session-ttl", d.SessionTTL, "session token lifetime")
	fs.String("frontend-url", d.FrontendURL, "frontend base URL used in e-mailed links")
}

// Load reads the config file named by the --config flag, or
// $XDG_CONFIG_HOME/shopfront/config.yaml when the flag is unset and that file
// exists. It then applies explicitly set flags and the environment, and
// validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, nil)
}

// load is Load with an injectable environment; a nil environ reads the
// process environment.
func load(fs *pflag.FlagSet, environ map[string]string) (*Config, error) {
	k := koanf.New(".")

	path := ""
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	if path == "" {
		path = DefaultFile(lookupFunc(environ))
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return invalid("http_addr", "http address is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log_format", "log format must be json or text, got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level", "unknown log level %q", c.LogLevel)
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return invalid("database_url", "database url is required for the postgres store")
		}
	case StoreMemory:
	default:
		return invalid("store", "store must be %s or %s, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if len(c.JWTSecret) < auth.MinSigningKeyLen {
		return invalid("jwt_secret", "jwt secret must be at least %d bytes", auth.MinSigningKeyLen)
	}
	if c.SessionTTL <= 0 {
		return invalid("session_ttl", "session ttl must be positive")
	}
	if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("frontend_url", "frontend url must be absolute, got %q", c.FrontendURL)
	}
	if c.Mail.Host != "" {
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			return invalid("mail.port", "mail port out of range: %d", c.Mail.Port)
		}
		if !strings.Contains(c.Mail.From, "@") {
			return invalid("mail.from", "mail from must be an address, got %q", c.Mail.From)
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
