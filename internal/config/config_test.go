// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/shopfront/pkg/errutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopfront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithMemoryStore(t *testing.T) {
	cfg, err := load(flags(t, "--store=memory"), map[string]string{"SHOPFRONT_JWT_SECRET": testSecret})
	require.NoError(t, err)

	want := Default()
	want.Store = StoreMemory
	want.JWTSecret = testSecret
	assert.Equal(t, want, *cfg)
}

func TestLoad_Layering(t *testing.T) {
	path := writeConfig(t, `
http_addr: ":8080"
log_format: text
store: postgres
database_url: postgres://file/shop
jwt_secret: `+testSecret+`
session_ttl: 24h
mail:
  host: smtp.example.com
  port: 2525
  from: shop@example.com
`)

	cfg, err := load(
		flags(t, "--config", path, "--http-addr", ":9090"),
		map[string]string{"SHOPFRONT_DATABASE_URL": "postgres://env/shop"},
	)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr, "explicit flag beats file")
	assert.Equal(t, "text", cfg.LogFormat, "file beats default")
	assert.Equal(t, "postgres://env/shop", cfg.DatabaseURL, "environment beats file")
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr, "unset keys keep defaults")
}

func TestLoad_UnchangedFlagsDoNotOverrideFile(t *testing.T) {
	path := writeConfig(t, "store: memory\nlog_level: debug\njwt_secret: "+testSecret+"\n")
	cfg, err := load(flags(t, "--config", path), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(flags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")), map[string]string{})
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_BadEnvironmentValue(t *testing.T) {
	_, err := load(flags(t), map[string]string{"SHOPFRONT_SESSION_TTL": "forever"})
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_NilFlagSet(t *testing.T) {
	cfg, err := load(nil, map[string]string{
		"SHOPFRONT_STORE":      "memory",
		"SHOPFRONT_JWT_SECRET": testSecret,
	})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Store = StoreMemory
		c.JWTSecret = testSecret
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantKey string
	}{
		{"missing http addr", func(c *Config) { c.HTTPAddr = "" }, "http_addr"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, "store"},
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, "database_url"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "jwt_secret"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "session_ttl"},
		{"relative frontend", func(c *Config) { c.FrontendURL = "/shop" }, "frontend_url"},
		{"mail port", func(c *Config) { c.Mail.Host = "smtp"; c.Mail.Port = 0 }, "mail.port"},
		{"mail from", func(c *Config) { c.Mail.Host = "smtp"; c.Mail.From = "nobody" }, "mail.from"},
	}

	c := valid()
	require.NoError(t, c.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.wantKey)
		})
	}
}
