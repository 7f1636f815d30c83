// Package depsolve resolves package dependencies: given root requirements
// and a metadata oracle it selects exactly one version per reachable package
// so that every reachable requirement holds, or reports a minimal set of
// requirements that cannot hold together.
//
// # Overview
//
// The package composes four core packages:
//
//   - version: semantic versions and constraints (caret, tilde, ranges,
//     wildcards, conjunctions)
//   - graph: a lazily built dependency graph over an Oracle
//   - solver: a conflict-driven search with learned clauses and backjumping
//   - selection: the version preference policy and a final consistency check
//
// The core performs no I/O; every lookup goes through an Oracle. The
// manifest, registry, cache and lockfile packages supply the surroundings.
//
// # Quick Start
//
//	roots := []depsolve.Requirement{
//	    {Package: "http", Constraint: version.MustParseConstraint("^2.0.0")},
//	}
//	res, err := depsolve.Resolve(ctx, roots, oracle, depsolve.DefaultOptions()...)
//
//	// From a manifest file against a registry
//	res, err := depsolve.ResolveFile(ctx, "MANIFEST.star",
//	    depsolve.WithRegistries("https://registry.example.com"))
//
// # Errors
//
// Resolution fails with one of:
//
//	var unsat *depsolve.UnsatisfiableError // errors.Is(err, depsolve.ErrUnsatisfiable)
//	var timeout *depsolve.TimeoutError     // errors.Is(err, depsolve.ErrTimeout)
//	var oracle *depsolve.OracleError       // errors.Is(err, depsolve.ErrOracle)
//
// # Thread Safety
//
// Resolve may be called concurrently; each call owns its graph and solver
// state. A Resolution is immutable.
package depsolve

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-depsolve/manifest"
)

// Resolve selects one version per package reachable from roots.
//
// Roots are taken in order; requirements on the same package are
// intersected before the oracle is consulted. The oracle is only asked about
// packages and versions the search actually reaches.
func Resolve(ctx context.Context, roots []Requirement, oracle Oracle, opts ...Option) (*Resolution, error) {
	if oracle == nil {
		return nil, errors.New("oracle is nil")
	}
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return newResolver(oracle, cfg).resolve(ctx, roots)
}

// ResolveManifest resolves the dependencies declared by m. Dev dependencies
// are included only with WithDevDeps.
func ResolveManifest(ctx context.Context, m *manifest.Manifest, oracle Oracle, opts ...Option) (*Resolution, error) {
	if m == nil {
		return nil, errors.New("manifest is nil")
	}
	if oracle == nil {
		return nil, errors.New("oracle is nil")
	}
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	cfg.rootName = m.Name
	return newResolver(oracle, cfg).resolve(ctx, m.Requirements(cfg.includeDevDeps))
}

// ResolveFile parses a manifest file and resolves it against the registries
// configured with WithRegistries, followed by the registries the manifest
// declares in package(registries = [...]).
func ResolveFile(ctx context.Context, path string, opts ...Option) (*Resolution, error) {
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	opts = append(slices.Clip(opts), WithRegistries(m.Registries...))
	oracle, err := NewOracle(opts...)
	if err != nil {
		return nil, err
	}
	return ResolveManifest(ctx, m, oracle, opts...)
}
