package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	depsolve "github.com/albertocavalcante/go-depsolve"
	"github.com/albertocavalcante/go-depsolve/cache"
	"github.com/albertocavalcante/go-depsolve/manifest"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// resolveFlags are shared by every command that resolves a manifest.
type resolveFlags struct {
	manifest    string
	config      string
	registries  []string
	dev         bool
	timeout     time.Duration
	noCache     bool
	allowYanked []string
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.manifest, "manifest", "m", manifest.DefaultFilename, "manifest to resolve")
	fl.StringVar(&f.config, "config", "", "config file (default: depsolve.toml next to the manifest)")
	fl.StringArrayVarP(&f.registries, "registry", "r", nil, "registry URL, repeatable; tried before configured registries")
	fl.BoolVar(&f.dev, "dev", false, "include the manifest's dev dependencies")
	fl.DurationVar(&f.timeout, "timeout", 0, "resolution deadline (default 30s)")
	fl.BoolVar(&f.noCache, "no-cache", false, "do not read or write the registry cache")
	fl.StringArrayVar(&f.allowYanked, "allow-yanked", nil, `yanked version to allow as name@version, or "all"`)
}

// session is one resolution with everything needed to report on it.
type session struct {
	manifest     *manifest.Manifest
	manifestData []byte
	oracle       depsolve.Oracle
	cache        cache.Cache
	resolution   *depsolve.Resolution
}

func (s *session) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}

// yankReason reports whether the oracle knows pkg@v to be yanked.
func (s *session) yankReason(pkg string, v version.Version) (string, bool) {
	y, ok := s.oracle.(interface {
		Yanked(string, version.Version) (string, bool)
	})
	if !ok {
		return "", false
	}
	return y.Yanked(pkg, v)
}

// resolve parses the manifest, builds the registry oracle and runs the
// resolver. On failure the session is still returned so callers can close
// it; extraYanked is appended to the allowed yanked versions.
func (c *CLI) resolve(ctx context.Context, f *resolveFlags, extraYanked ...string) (*session, error) {
	data, err := os.ReadFile(f.manifest)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := manifest.Parse(f.manifest, data)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(f.config, filepath.Dir(f.manifest))
	if err != nil {
		return nil, err
	}

	s := &session{manifest: m, manifestData: data}
	opts, err := c.options(f, cfg, m, s)
	if err != nil {
		return s, err
	}
	opts = append(opts, depsolve.WithAllowedYankedVersions(extraYanked...))

	s.oracle, err = depsolve.NewOracle(opts...)
	if err != nil {
		return s, err
	}

	c.Logger.Debug("resolving", "manifest", f.manifest, "package", m.Name, "dependencies", len(m.Dependencies))
	p := newProgress(c.Logger)
	s.resolution, err = depsolve.ResolveManifest(ctx, m, s.oracle, opts...)
	if err != nil {
		return s, err
	}
	p.done(fmt.Sprintf("Resolved %d packages", s.resolution.Len()))
	return s, nil
}

// options merges flags over the config file over the manifest.
func (c *CLI) options(f *resolveFlags, cfg *Config, m *manifest.Manifest, s *session) ([]depsolve.Option, error) {
	opts := depsolve.DefaultOptions()
	opts = append(opts,
		depsolve.WithLogger(c.slog()),
		depsolve.WithRegistries(f.registries...),
		depsolve.WithRegistries(cfg.Registries...),
		depsolve.WithRegistries(m.Registries...),
		depsolve.WithAllowedYankedVersions(cfg.AllowYanked...),
		depsolve.WithAllowedYankedVersions(f.allowYanked...),
		depsolve.WithProgress(func(e depsolve.ProgressEvent) {
			c.Logger.Debug("search", "event", e.Kind, "level", e.Level, "conflicts", e.Conflicts)
		}),
	)
	if f.dev || cfg.Dev {
		opts = append(opts, depsolve.WithDevDeps())
	}
	switch {
	case f.timeout > 0:
		opts = append(opts, depsolve.WithTimeout(f.timeout))
	case cfg.Timeout > 0:
		opts = append(opts, depsolve.WithTimeout(cfg.Timeout))
	}
	if cfg.Prefetch != nil {
		opts = append(opts, depsolve.WithPrefetchConcurrency(*cfg.Prefetch))
	}

	if f.noCache || cfg.Cache.Disabled {
		return opts, nil
	}
	store, err := openCache(cfg.Cache)
	if err != nil {
		c.Logger.Warn("registry cache disabled", "err", err)
		return opts, nil
	}
	s.cache = store
	ttl := cfg.Cache.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return append(opts, depsolve.WithCache(store), depsolve.WithCacheTTL(ttl)), nil
}

// openCache returns the Redis cache when configured, else the file cache.
func openCache(cc CacheConfig) (cache.Cache, error) {
	if cc.Redis != "" {
		return cache.NewRedis(cc.Redis), nil
	}
	dir := cc.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return nil, err
		}
	}
	return cache.NewFile(dir)
}
