package config

import (
	"flag"
	"fmt"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
)

// Flags holds the command-line overrides shared by every subcommand.
type Flags struct {
	ConfigPath string
	Debug      bool
	Background string
	Scale      int
	OutputDir  string
	Outfit     string
	Listen     string
}

// Register adds the override flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Background, "bg", "", "Background colour (#RRGGBB or #AARRGGBB)")
	fs.IntVar(&f.Scale, "scale", 0, "Integer upscale factor for PNG output")
	fs.StringVar(&f.OutputDir, "outdir", "", "Directory for written images")
	fs.StringVar(&f.Outfit, "outfit", "", "Outfit as head,body,legs,feet[,addons]")
	fs.StringVar(&f.Listen, "listen", "", "Preview server listen address")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) error {
	if f == nil {
		return nil
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Background != "" {
		cfg.Render.Background = f.Background
	}
	if f.Scale > 0 {
		cfg.Render.Scale = f.Scale
	}
	if f.OutputDir != "" {
		cfg.Render.OutputDir = f.OutputDir
	}
	if f.Outfit != "" {
		d, err := outfit.Parse(f.Outfit)
		if err != nil {
			return fmt.Errorf("-outfit: %w", err)
		}
		cfg.Outfit.setData(d)
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	return nil
}
