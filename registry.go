package depsolve

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-depsolve/registry"
)

// NewOracle builds a registry-backed Oracle from the WithRegistries,
// WithHTTPClient, WithCache, WithCacheTTL and WithAllowedYankedVersions
// options. Registries are consulted in order; the first registry that knows
// a package serves every version of it.
//
// There is no default registry: at least one URL is required.
func NewOracle(opts ...Option) (Oracle, error) {
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if len(cfg.registries) == 0 {
		return nil, errors.New("no registries configured")
	}

	var clientOpts []registry.ClientOption
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, registry.WithHTTPClient(cfg.httpClient))
	}
	src, err := registry.Open(cfg.registries, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("open registries: %w", err)
	}
	if cfg.cache != nil {
		src = registry.NewCached(src, cfg.cache, cfg.cacheTTL)
	}

	cfg.log().Debug("registry oracle ready", "registries", cfg.registries, "cached", cfg.cache != nil)
	return registry.NewOracle(src, registry.AllowYanked(cfg.allowYanked...)), nil
}
