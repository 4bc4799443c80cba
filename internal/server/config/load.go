package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
// GOPHAUTH_SECRET_KEY sets "secret-key".
const EnvPrefix = "GOPHAUTH_"

// envKey maps GOPHAUTH_TOKEN_TTL to token-ttl.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Load builds a Config by applying defaults, then an optional config file
// named by the "config" flag, then the environment, and finally flags that
// were set explicitly. fs must have been populated by RegisterFlags and
// parsed; a nil fs skips the file and flag layers.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	var d Config
	d.LoadDefaults()
	if err := k.Load(structs.Provider(d, "koanf"), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD").Wrapf(err, "load defaults")
	}

	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			// YAML is a superset of JSON, one parser serves both.
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code("CONFIG_LOAD").With("path", path).Wrapf(err, "load config file")
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD").Wrapf(err, "load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD").Wrapf(err, "load flags")
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD").Wrapf(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
