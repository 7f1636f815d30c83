package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// configFilename is looked up next to the manifest.
const configFilename = "depsolve.toml"

// Config is the depsolve.toml file.
//
//	registries = ["https://packages.example.com", "file:///srv/mirror"]
//	timeout = "30s"
//	prefetch = 8
//	allow_yanked = ["log@1.1.0"]
//
//	[cache]
//	redis = "localhost:6379"
//	ttl = "1h"
type Config struct {
	Registries  []string      `toml:"registries"`
	Timeout     time.Duration `toml:"timeout"`
	Prefetch    *int          `toml:"prefetch"`
	Dev         bool          `toml:"dev"`
	AllowYanked []string      `toml:"allow_yanked"`
	Cache       CacheConfig   `toml:"cache"`
}

// CacheConfig selects the registry cache backend.
type CacheConfig struct {
	Disabled bool          `toml:"disabled"`
	Dir      string        `toml:"dir"`
	Redis    string        `toml:"redis"`
	TTL      time.Duration `toml:"ttl"`
}

// defaultCacheTTL bounds how stale cached metadata can get.
const defaultCacheTTL = time.Hour

// loadConfig reads path. An empty path means depsolve.toml in dir, which
// may be absent.
func loadConfig(path, dir string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, configFilename)
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Timeout < 0 || cfg.Cache.TTL < 0 {
		return nil, fmt.Errorf("config %s: durations must not be negative", path)
	}
	if cfg.Prefetch != nil && *cfg.Prefetch < 0 {
		return nil, fmt.Errorf("config %s: prefetch must not be negative", path)
	}
	return &cfg, nil
}
