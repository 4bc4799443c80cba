// Package config loads settings for the gophauth command-line client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. GOPHAUTH_CLIENT_* environment variables.
//  3. Command-line flags that were set explicitly.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "GOPHAUTH_CLIENT_"

// Config holds runtime settings for the CLI.
//
// Fields:
//   - Server: base URL of the gophauth HTTP API.
//   - APIPrefix: path prefix the server mounts its routes under.
//   - Token: session token sent by commands that need one.
//   - Timeout: per-request HTTP timeout.
type Config struct {
	Server    string        `koanf:"server"`
	APIPrefix string        `koanf:"api-prefix"`
	Token     string        `koanf:"token"`
	Timeout   time.Duration `koanf:"timeout"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Server = "http://127.0.0.1:3001"
	c.APIPrefix = "/api"
	c.Token = ""
	c.Timeout = 30 * time.Second
}

// RegisterFlags declares the client flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.String("server", d.Server, "base URL of the gophauth server")
	fs.String("api-prefix", d.APIPrefix, "path prefix of the HTTP API")
	fs.String("token", d.Token, "session token (or GOPHAUTH_CLIENT_TOKEN)")
	fs.Duration("timeout", d.Timeout, "request timeout")
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Load layers defaults, environment and flags. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	var d Config
	d.LoadDefaults()
	if err := k.Load(structs.Provider(d, "koanf"), nil); err != nil {
		return nil, oops.Code("CLIENT_CONFIG_LOAD").Wrapf(err, "load defaults")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CLIENT_CONFIG_LOAD").Wrapf(err, "load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CLIENT_CONFIG_LOAD").Wrapf(err, "load flags")
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CLIENT_CONFIG_LOAD").Wrapf(err, "decode config")
	}

	if strings.TrimSpace(cfg.Server) == "" {
		return nil, oops.Code("CLIENT_CONFIG_INVALID").With("key", "server").Errorf("server must not be empty")
	}

	return cfg, nil
}
