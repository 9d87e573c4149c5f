// Package config loads application settings from a YAML file and SQLMAP_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/Konsultn-Engineering/sqlmap/connector"
	"github.com/Konsultn-Engineering/sqlmap/dialect"
	"github.com/Konsultn-Engineering/sqlmap/schema"
)

// FileNames are looked up in the working directory when no path is given.
var FileNames = []string{"sqlmap.yaml", "sqlmap.yml"}

// EnvPrefix prefixes environment overrides. A double underscore separates nesting
// levels: SQLMAP_CONNECTION__HOST sets connection.host.
const EnvPrefix = "SQLMAP_"

type Config struct {
	Driver string `koanf:"driver"`
	// Dialect overrides the dialect implied by Driver.
	Dialect    string           `koanf:"dialect"`
	Connection connector.Config `koanf:"connection"`
	Mappers    []string         `koanf:"mappers"`
	Log        LogConfig        `koanf:"log"`
	Cache      CacheConfig      `koanf:"cache"`
	Decoder    DecoderConfig    `koanf:"decoder"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text or json
}

type CacheConfig struct {
	Plans       int `koanf:"plans"`
	Expressions int `koanf:"expressions"`
	Types       int `koanf:"types"`
}

type DecoderConfig struct {
	TagName       string `koanf:"tag_name"`
	Naming        string `koanf:"naming"`
	CaseSensitive bool   `koanf:"case_sensitive"`
	Normalize     *bool  `koanf:"normalize"`
}

// flagKeys maps command line flags onto config keys. Flags not listed use their
// name with dashes turned into underscores.
var flagKeys = map[string]string{
	"mapper":    "mappers",
	"log-level": "log.level",
	"dsn":       "connection.dsn",
}

// Load reads path, or the first of FileNames found when path is empty. Precedence,
// highest first: explicitly set flags, SQLMAP_ environment variables, the file,
// defaults. A missing default file is not an error and flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"driver":     "postgres",
		"log.level":  "info",
		"log.format": "text",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "postgres"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Cache.Plans == 0 {
		c.Cache.Plans = 512
	}
	if c.Cache.Expressions == 0 {
		c.Cache.Expressions = 1024
	}
	if c.Cache.Types == 0 {
		c.Cache.Types = schema.DefaultCacheSize
	}
	if c.Decoder.TagName == "" {
		c.Decoder.TagName = "db"
	}
	if c.Decoder.Naming == "" {
		c.Decoder.Naming = "snake"
	}
	if c.Decoder.Normalize == nil {
		normalize := true
		c.Decoder.Normalize = &normalize
	}
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := c.ResolveDialect(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("config: log format must be text or json, got %q", c.Log.Format))
	}
	if _, ok := schema.ParseColumnNaming(c.Decoder.Naming); !ok {
		errs = append(errs, fmt.Errorf("config: unknown decoder naming %q", c.Decoder.Naming))
	}
	return errors.Join(errs...)
}

// ResolveDialect returns the configured dialect, else the one named by Driver.
func (c *Config) ResolveDialect() (dialect.Dialect, error) {
	name := c.Dialect
	if name == "" {
		name = c.Driver
	}
	return dialect.Lookup(name)
}

// NewLogger builds a logger writing to w at the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", s)
	}
	return level, nil
}

// NewDecoder builds the row decoder described by the decoder section.
func (c *Config) NewDecoder() *schema.Decoder {
	opts := []schema.Option{
		schema.WithTagName(c.Decoder.TagName),
		schema.WithCaseSensitive(c.Decoder.CaseSensitive),
		schema.WithCacheSize(c.Cache.Types),
	}
	if c.Decoder.Normalize != nil {
		opts = append(opts, schema.WithNormalization(*c.Decoder.Normalize))
	}
	if naming, ok := schema.ParseColumnNaming(c.Decoder.Naming); ok {
		opts = append(opts, schema.WithNamingStrategy(naming))
	}
	return schema.New(opts...)
}
