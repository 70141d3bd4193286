// Package config loads cmakeparse settings from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/cmakeparse/pkgs/parser"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Names are the file names Discover looks for, in order
var Names = []string{".cmakeparse.yaml", ".cmakeparse.yml", ".cmakeparse.toml"}

// Config holds the settings shared by every subcommand
type Config struct {
	KeepComments bool     `mapstructure:"keep_comments"`
	SplitLists   bool     `mapstructure:"split_lists"`
	Strict       bool     `mapstructure:"strict"`
	Color        string   `mapstructure:"color"`
	Ignore       []string `mapstructure:"ignore"` // command names lint accepts

	Path string `mapstructure:"-"` // file the config was loaded from, if any
}

// Default returns the settings used when no config file exists
func Default() Config {
	return Config{Color: ColorAuto}
}

// Load reads the config file at path. The format is chosen by extension:
// .yaml and .yml are YAML, .toml is TOML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return Config{}, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, err := decode(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Discover loads the first of Names found in dir, or returns Default when
// there is none.
func Discover(dir string) (Config, error) {
	for _, name := range Names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, err
		}
		return Load(path)
	}
	return Default(), nil
}

func decode(raw map[string]any) (Config, error) {
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, err
	}

	cfg.Color = strings.ToLower(cfg.Color)
	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return Config{}, fmt.Errorf("color must be %s, %s or %s, got %q", ColorAuto, ColorAlways, ColorNever, cfg.Color)
	}
	return cfg, nil
}

// ParserOptions translates the settings into parser options
func (c Config) ParserOptions() []parser.ParserOpt {
	var opts []parser.ParserOpt
	if c.KeepComments {
		opts = append(opts, parser.WithComments())
	}
	if c.SplitLists {
		opts = append(opts, parser.WithListSplitting())
	}
	return opts
}

// Ignored reports whether lint should accept the command name
func (c Config) Ignored(name string) bool {
	for _, ignored := range c.Ignore {
		if strings.EqualFold(ignored, name) {
			return true
		}
	}
	return false
}
