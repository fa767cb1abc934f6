package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Neumenon/plist/plist"
)

// Config holds the settings shared by all commands. Values come from flags,
// PLIST_* environment variables and an optional .plist.yaml file, in that
// order of precedence.
type Config struct {
	Style      string `mapstructure:"style"`
	Indent     string `mapstructure:"indent"`
	DataWrap   int    `mapstructure:"data-wrap"`
	MaxDepth   int    `mapstructure:"max-depth"`
	Duplicates string `mapstructure:"duplicates"`
	Workers    int    `mapstructure:"workers"`
	Verbose    bool   `mapstructure:"verbose"`
	Color      string `mapstructure:"color"`
}

const (
	styleCanonical = "canonical"
	styleGlyphs    = "glyphs"

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

func defaultConfig() Config {
	return Config{
		Style:      styleCanonical,
		Indent:     plist.DefaultSerializeOptions().Indent,
		MaxDepth:   plist.DefaultMaxDepth,
		Duplicates: plist.RejectDuplicates.String(),
		Color:      colorAuto,
	}
}

// registerFlags adds the persistent configuration flags to fs.
func registerFlags(fs *pflag.FlagSet) {
	def := defaultConfig()
	fs.String("config", "", "config file (default: .plist.yaml in the working or home directory)")
	fs.String("style", def.Style, "output style: canonical or glyphs")
	fs.String("indent", def.Indent, "indent unit for the canonical style")
	fs.Int("data-wrap", def.DataWrap, "bytes per line of <data> output; 0 keeps data on one line")
	fs.Int("max-depth", def.MaxDepth, "maximum container nesting")
	fs.String("duplicates", def.Duplicates, "duplicate dictionary keys: reject or last-wins")
	fs.IntP("workers", "j", def.Workers, "parallel workers for multi-file commands; 0 uses all CPUs")
	fs.BoolP("verbose", "v", def.Verbose, "log debug output")
	fs.String("color", def.Color, "color diagnostics: auto, always or never")
}

// loadConfig resolves the configuration for the parsed flags in fs.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	cfg := defaultConfig()

	if err := v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("PLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := v.GetString("config")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(".plist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown enumerated values.
func (c Config) Validate() error {
	switch c.Style {
	case styleCanonical, styleGlyphs:
	default:
		return fmt.Errorf("unknown style %q (want %s or %s)", c.Style, styleCanonical, styleGlyphs)
	}
	switch c.Color {
	case colorAuto, colorAlways, colorNever:
	default:
		return fmt.Errorf("unknown color mode %q (want %s, %s or %s)", c.Color, colorAuto, colorAlways, colorNever)
	}
	if _, err := c.duplicatePolicy(); err != nil {
		return err
	}
	if c.DataWrap < 0 {
		return fmt.Errorf("data-wrap must not be negative, got %d", c.DataWrap)
	}
	return nil
}

func (c Config) duplicatePolicy() (plist.DuplicatePolicy, error) {
	switch c.Duplicates {
	case plist.RejectDuplicates.String():
		return plist.RejectDuplicates, nil
	case plist.LastWins.String():
		return plist.LastWins, nil
	default:
		return 0, fmt.Errorf("unknown duplicates policy %q (want %s or %s)",
			c.Duplicates, plist.RejectDuplicates, plist.LastWins)
	}
}

// ParseOptions converts the configuration to parser options.
func (c Config) ParseOptions() plist.ParseOptions {
	dup, err := c.duplicatePolicy()
	if err != nil {
		dup = plist.RejectDuplicates
	}
	return plist.ParseOptions{MaxDepth: c.MaxDepth, Duplicates: dup}
}

// SerializeOptions converts the configuration to serializer options.
func (c Config) SerializeOptions() plist.SerializeOptions {
	opts := plist.DefaultSerializeOptions()
	if c.Style == styleGlyphs {
		opts = plist.GlyphsSerializeOptions()
	} else {
		opts.Indent = c.Indent
	}
	opts.DataWrap = c.DataWrap
	return opts
}
