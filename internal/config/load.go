// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix namespaces environment overrides: PASSGATE_HTTP__ADDR sets
// http.addr.
const EnvPrefix = "PASSGATE_"

// Gmail submission settings applied when only EMAIL and EMAIL_PASS are set.
const (
	legacySMTPHost = "smtp.gmail.com"
	legacySMTPPort = 587
)

// FlagKeys maps command-line flag names to config keys. Flags not listed
// are ignored by Load.
var FlagKeys = map[string]string{
	"addr":         "http.addr",
	"metrics-addr": "metrics.addr",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"store":        "store.driver",
	"mail":         "mail.provider",
}

// Load builds a Config from Default, then the YAML file at path (skipped when
// empty), then the legacy variables JWT_SECRET, PORT, EMAIL and EMAIL_PASS,
// then PASSGATE_* variables, then any flags in fs that were set.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(legacyEnv{}, nil); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_FAILED").With("source", "legacy").Wrap(err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_FAILED").With("source", EnvPrefix).Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return cfg, nil
}

// envKey turns PASSGATE_MAIL__SMTP__HOST into mail.smtp.host.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// legacyEnv maps the unprefixed variables earlier deployments used.
type legacyEnv struct{}

func (legacyEnv) ReadBytes() ([]byte, error) {
	return nil, oops.Code("CONFIG_UNSUPPORTED").Errorf("legacy env provider does not support ReadBytes")
}

func (legacyEnv) Read() (map[string]any, error) {
	flat := map[string]any{}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		flat["auth.jwt_secret"] = v
	}
	if v := os.Getenv("PORT"); v != "" {
		flat["http.addr"] = ":" + v
	}
	user, pass := os.Getenv("EMAIL"), os.Getenv("EMAIL_PASS")
	if user != "" {
		flat["mail.from"] = user
		flat["mail.smtp.username"] = user
	}
	if user != "" && pass != "" {
		flat["mail.smtp.password"] = pass
		flat["mail.provider"] = "smtp"
		flat["mail.smtp.host"] = legacySMTPHost
		flat["mail.smtp.port"] = legacySMTPPort
	}
	return maps.Unflatten(flat, "."), nil
}
