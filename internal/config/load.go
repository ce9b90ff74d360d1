package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/valerioleite/electron-object-builder-sub003/pkg/outfit"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPRITETOOL_"

// Load loads configuration with priority: defaults < file < .env/environment < flags.
func Load(f *Flags) (*Config, error) {
	return load(f, ".env")
}

func load(f *Flags, envFile string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ""
	if f != nil {
		configPath = f.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg, envFile); err != nil {
		return nil, err
	}

	// Apply CLI flags (highest priority)
	if err := applyFlags(cfg, f); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./spritetool.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "spritetool")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "spritetool")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "spritetool")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "spritetool")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv reads SPRITETOOL_* overrides from the process environment and
// from envFile. Real environment variables win over the file.
func applyEnv(cfg *Config, envFile string) error {
	fileVars := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = m
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	lookup := func(name string) (string, bool) {
		key := EnvPrefix + name
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("MANIFEST", &cfg.Data.Manifest)
	str("BACKGROUND", &cfg.Render.Background)
	num("SCALE", &cfg.Render.Scale)
	str("OUTPUT_DIR", &cfg.Render.OutputDir)
	num("CACHE_ENTRIES", &cfg.Render.CacheEntries)
	str("LISTEN", &cfg.Server.Listen)
	dur("READ_TIMEOUT", &cfg.Server.ReadTimeout)
	dur("WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	num("MAX_SCALE", &cfg.Server.MaxScale)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.LogFile)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("OUTFIT"); ok {
		d, err := outfit.Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sOUTFIT: %w", EnvPrefix, err))
		} else {
			cfg.Outfit.setData(d)
		}
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
