// Package config resolves fixstl settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvLibrary           = "MESHFIX_LIBRARY"
	EnvNativeConcurrency = "FIXSTL_NATIVE_CONCURRENCY"
	EnvListen            = "FIXSTL_LISTEN"
	EnvLogLevel          = "FIXSTL_LOG_LEVEL"

	DefaultListen   = "127.0.0.1:8765"
	DefaultLogLevel = "warn"
)

type Config struct {
	// LibraryPath locates the MeshFix dynamic library. Empty means the
	// platform default name resolved through the loader search path.
	LibraryPath       string `yaml:"library_path"`
	NativeConcurrency int64  `yaml:"native_concurrency"`
	Listen            string `yaml:"listen"`
	LogLevel          string `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		NativeConcurrency: 1,
		Listen:            DefaultListen,
		LogLevel:          DefaultLogLevel,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/fixstl/config.yaml, or the OS
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fixstl", "config.yaml")
}

// Load reads the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.LibraryPath = firstNonEmpty(strings.TrimSpace(os.Getenv(EnvLibrary)), c.LibraryPath)
	c.Listen = firstNonEmpty(strings.TrimSpace(os.Getenv(EnvListen)), c.Listen)
	c.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv(EnvLogLevel)), c.LogLevel)

	if raw := strings.TrimSpace(os.Getenv(EnvNativeConcurrency)); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNativeConcurrency, err)
		}
		c.NativeConcurrency = n
	}
	return nil
}

func (c *Config) normalize() {
	if c.NativeConcurrency < 1 {
		c.NativeConcurrency = 1
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
