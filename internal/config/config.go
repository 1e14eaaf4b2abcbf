package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kidandcat/bugracer/internal/logger"
)

const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

type Config struct {
	Addr     string        `yaml:"addr"`
	APIURL   string        `yaml:"api_url"`
	DataDir  string        `yaml:"data_dir"`
	Mode     string        `yaml:"mode"`
	Layout   string        `yaml:"layout"`
	Demo     bool          `yaml:"demo"`
	Latency  time.Duration `yaml:"latency"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
}

// Dir is the per-user state directory, ~/.bugracer.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bugracer"
	}
	return filepath.Join(home, ".bugracer")
}

func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

func Defaults() Config {
	return Config{
		Addr:     ":8080",
		DataDir:  Dir(),
		Mode:     ModeLocal,
		Layout:   "rest",
		Demo:     true,
		Latency:  0,
		Timeout:  20 * time.Second,
		LogLevel: "info",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration from defaults, the YAML file at path, a
// .env file in the working directory and BUGRACER_* variables, in that
// order. An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg.Addr = getEnv("BUGRACER_ADDR", cfg.Addr)
	cfg.APIURL = strings.TrimRight(getEnv("BUGRACER_API_URL", cfg.APIURL), "/")
	cfg.DataDir = getEnv("BUGRACER_DATA_DIR", cfg.DataDir)
	cfg.Mode = strings.ToLower(getEnv("BUGRACER_MODE", cfg.Mode))
	cfg.Layout = strings.ToLower(getEnv("BUGRACER_LAYOUT", cfg.Layout))
	cfg.LogLevel = getEnv("BUGRACER_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("BUGRACER_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("BUGRACER_DEMO: %w", err)
		}
		cfg.Demo = b
	}
	if cfg.Latency, err = envDuration("BUGRACER_LATENCY", cfg.Latency); err != nil {
		return Config{}, err
	}
	if cfg.Timeout, err = envDuration("BUGRACER_TIMEOUT", cfg.Timeout); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Validate rejects unusable values. A missing API URL is only logged: the
// remote data source will then fail every call with a network error.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeRemote:
		if c.APIURL == "" {
			logger.Warning("BUGRACER_API_URL is not set; remote calls will fail")
		}
	case ModeLocal:
		if c.APIURL == "" {
			logger.Debug("no API URL configured, using the local store")
		}
	default:
		return fmt.Errorf("invalid mode %q (want %s or %s)", c.Mode, ModeRemote, ModeLocal)
	}
	if c.Layout != "rest" && c.Layout != "php" {
		return fmt.Errorf("invalid layout %q (want rest or php)", c.Layout)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", c.Latency)
	}
	return nil
}
