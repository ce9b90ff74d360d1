// Package config handles spritetool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
)

// ErrInvalidColor is returned for a background colour that is not
// "#RRGGBB" or "#AARRGGBB".
var ErrInvalidColor = errors.New("invalid colour")

// Config holds all spritetool settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Outfit  OutfitConfig  `yaml:"outfit"`
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds atlas rendering settings.
type RenderConfig struct {
	Background   string `yaml:"background"` // "#RRGGBB", "#AARRGGBB" or empty
	Scale        int    `yaml:"scale"`
	OutputDir    string `yaml:"output_dir"`
	CacheEntries int    `yaml:"cache_entries"`
}

// OutfitConfig is the outfit used when a command is not given one.
type OutfitConfig struct {
	Head   int   `yaml:"head"`
	Body   int   `yaml:"body"`
	Legs   int   `yaml:"legs"`
	Feet   int   `yaml:"feet"`
	Addons uint8 `yaml:"addons"`
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxScale       int           `yaml:"max_scale"`
}

// DataConfig holds input file paths.
type DataConfig struct {
	Manifest string `yaml:"manifest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Scale:        1,
			OutputDir:    ".",
			CacheEntries: 64,
		},
		Outfit: OutfitConfig{
			Head: 0,
			Body: 0,
			Legs: 0,
			Feet: 0,
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxScale:       8,
		},
		Data: DataConfig{
			Manifest: "things.yaml",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Data converts the configured outfit.
func (o OutfitConfig) Data() outfit.Data {
	return outfit.Data{Head: o.Head, Body: o.Body, Legs: o.Legs, Feet: o.Feet, Addons: o.Addons}
}

// setData stores an outfit selection.
func (o *OutfitConfig) setData(d outfit.Data) {
	*o = OutfitConfig{Head: d.Head, Body: d.Body, Legs: d.Legs, Feet: d.Feet, Addons: d.Addons}
}

// BackgroundARGB parses Render.Background. An empty string is transparent.
func (c *Config) BackgroundARGB() (uint32, error) {
	return ParseColor(c.Render.Background)
}

// ParseColor parses "#RRGGBB" (opaque) or "#AARRGGBB" into 0xAARRGGBB.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return uint32(v), nil
}

// Validate reports settings no command can work with.
func (c *Config) Validate() error {
	if _, err := c.BackgroundARGB(); err != nil {
		return err
	}
	if c.Render.Scale < 1 {
		return fmt.Errorf("render.scale must be at least 1, got %d", c.Render.Scale)
	}
	if c.Server.MaxScale < 1 {
		return fmt.Errorf("server.max_scale must be at least 1, got %d", c.Server.MaxScale)
	}
	for name, v := range map[string]int{"head": c.Outfit.Head, "body": c.Outfit.Body, "legs": c.Outfit.Legs, "feet": c.Outfit.Feet} {
		if v < 0 || v >= outfit.PaletteSize {
			return fmt.Errorf("outfit.%s %d out of palette range", name, v)
		}
	}
	return nil
}
