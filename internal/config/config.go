// Package config loads pgm-stego settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// Environment variables that override file values.
const (
	EnvWidth    = "PGM_STEGO_WIDTH"
	EnvHeight   = "PGM_STEGO_HEIGHT"
	EnvLogLevel = "PGM_STEGO_LOG_LEVEL"
)

// Default file names used by the embed/extract run.
const (
	DefaultCover     = "baboon.pgm"
	DefaultSecret    = "farm.pgm"
	DefaultComposite = "stego_image_bin.pgm"
	DefaultRecovered = "extracted_secret.pgm"
)

// Config holds the raster size, the run's file names, and logging options.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Files Files `yaml:"files"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Files names the four files of one run.
type Files struct {
	Cover     string `yaml:"cover"`
	Secret    string `yaml:"secret"`
	Composite string `yaml:"composite"`
	Recovered string `yaml:"recovered"`
}

// Default returns the built-in configuration: 512x512 rasters, the classic
// baboon/farm file names, info-level text logs.
func Default() *Config {
	return &Config{
		Width:  512,
		Height: 512,
		Files: Files{
			Cover:     DefaultCover,
			Secret:    DefaultSecret,
			Composite: DefaultComposite,
			Recovered: DefaultRecovered,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error; an empty path skips the file entirely.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	conf := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, conf); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := conf.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Save writes conf to path as YAML.
func Save(path string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects non-positive dimensions and empty file names.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d: width and height must be positive", c.Width, c.Height)
	}
	if c.Width*c.Height > pgm.MaxPixels {
		return fmt.Errorf("invalid dimensions %dx%d: more than %d samples", c.Width, c.Height, pgm.MaxPixels)
	}
	for name, v := range map[string]string{
		"cover":     c.Files.Cover,
		"secret":    c.Files.Secret,
		"composite": c.Files.Composite,
		"recovered": c.Files.Recovered,
	} {
		if v == "" {
			return fmt.Errorf("missing %s file name", name)
		}
	}
	return nil
}

// Dimensions returns the configured raster size.
func (c *Config) Dimensions() pgm.Dimensions {
	return pgm.Dimensions{Width: c.Width, Height: c.Height}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWidth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWidth, v, err)
		}
		c.Width = n
	}
	if v, ok := lookup(EnvHeight); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHeight, v, err)
		}
		c.Height = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}
