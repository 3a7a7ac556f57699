package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DetectMtime = "mtime"
	DetectHash  = "hash"

	DeepRefsScripts = "scripts"
	DeepRefsAll     = "all"
	DeepRefsNone    = "none"

	DefaultWorkers   = 8
	DefaultBatchSize = 5000
	DefaultCacheDir  = ".mud_cache"
	DefaultStoreFile = "lut.sqlite"
)

type ProjectConfig struct {
	World    WorldConfig    `yaml:"world"`
	Database DatabaseConfig `yaml:"database"`
	Build    BuildConfig    `yaml:"build"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type WorldConfig struct {
	Root string `yaml:"root"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type BuildConfig struct {
	Detection string `yaml:"detection"`
	Workers   int    `yaml:"workers"`
	BatchSize int    `yaml:"batch_size"`
	DeepRefs  string `yaml:"deep_refs"`
	StoreRaw  bool   `yaml:"store_raw"`
}

// CacheConfig enables the shared answer cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

func Default() *ProjectConfig {
	return &ProjectConfig{
		World: WorldConfig{Root: "."},
		Build: BuildConfig{
			Detection: DetectMtime,
			Workers:   DefaultWorkers,
			BatchSize: DefaultBatchSize,
			DeepRefs:  DeepRefsScripts,
		},
		Cache: CacheConfig{TTL: 24 * time.Hour},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadProjectConfig reads path over the defaults. A missing file yields the defaults.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

func Validate(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.World.Root) == "" {
		return fmt.Errorf("world root is required")
	}
	switch cfg.Build.Detection {
	case DetectMtime, DetectHash:
	default:
		return fmt.Errorf("unknown detection mode: %q", cfg.Build.Detection)
	}
	switch cfg.Build.DeepRefs {
	case DeepRefsScripts, DeepRefsAll, DeepRefsNone:
	default:
		return fmt.Errorf("unknown deep_refs mode: %q", cfg.Build.DeepRefs)
	}
	if cfg.Build.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Build.Workers)
	}
	if cfg.Build.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", cfg.Build.BatchSize)
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", cfg.Cache.TTL)
	}
	return nil
}

// StoreDSN returns the configured DSN or the default cache file under root.
func (c *ProjectConfig) StoreDSN(root string) string {
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn
	}
	return "sqlite://" + filepath.Join(root, DefaultCacheDir, DefaultStoreFile)
}
