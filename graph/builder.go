package graph

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Builder lazily materialises a DependencyGraph from an Oracle.
//
// Expand and ExpandCandidate mutate the graph and must be called from a
// single goroutine (the solver). Prefetch and PrefetchAll only touch the
// fetch cache and are safe for concurrent use; a later Expand of a
// prefetched package is served from that cache.
type Builder struct {
	oracle Oracle
	graph  *DependencyGraph
	logger *slog.Logger
	limit  int

	mu       sync.Mutex
	versions map[string]versionsResult
	reqs     map[candidateKey]requirementsResult
	flight   singleflight.Group

	listCalls atomic.Int64
	reqCalls  atomic.Int64
	cacheHits atomic.Int64
}

type versionsResult struct {
	versions []version.Version
	err      error
}

type requirementsResult struct {
	reqs []Requirement
	err  error
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger for expansion events.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPrefetchLimit enables speculative prefetching of the targets of each
// expanded candidate with at most n concurrent oracle calls. Zero disables
// speculative prefetching.
func WithPrefetchLimit(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.limit = n
		}
	}
}

// NewBuilder returns a Builder over an empty graph.
func NewBuilder(oracle Oracle, opts ...BuilderOption) *Builder {
	b := &Builder{
		oracle:   oracle,
		graph:    NewDependencyGraph(),
		logger:   slog.New(slog.DiscardHandler),
		versions: make(map[string]versionsResult),
		reqs:     make(map[candidateKey]requirementsResult),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *DependencyGraph { return b.graph }

// AddRoot records a root requirement. The target package is not expanded.
func (b *Builder) AddRoot(req Requirement) EdgeID {
	return b.graph.addEdge(RootID, req)
}

// Expand loads the versions of pkg and creates a candidate for each one not
// yet in the graph. Calling it again is a no-op.
func (b *Builder) Expand(ctx context.Context, pkg string) error {
	node := b.graph.ensurePackage(pkg)
	if node.listed {
		return nil
	}
	versions, err := b.listVersions(ctx, pkg)
	if err != nil {
		return err
	}
	added := 0
	for _, v := range versions {
		if _, ok := b.graph.addCandidate(pkg, v); ok {
			added++
		}
	}
	b.graph.sortCandidates(node)
	node.listed = true
	b.logger.Debug("expanded package", "package", pkg, "candidates", added)
	return nil
}

// ExpandCandidate loads the requirements of a candidate, adds them as edges
// and expands every target package. The graph is only modified once all
// targets have been listed, so a failed call leaves no partial edges and
// calling it again after success is a no-op.
func (b *Builder) ExpandCandidate(ctx context.Context, id CandidateID) error {
	if b.graph.expanded[id] {
		return nil
	}
	c := b.graph.candidates[id]
	reqs, err := b.requirements(ctx, c.Package, c.Version)
	if err != nil {
		return err
	}

	targets := make([]string, 0, len(reqs))
	for _, r := range reqs {
		targets = append(targets, r.Package)
	}
	if b.limit > 0 {
		if err := b.PrefetchAll(ctx, targets); err != nil {
			return err
		}
	}
	for _, pkg := range targets {
		if err := b.Expand(ctx, pkg); err != nil {
			return err
		}
	}

	for _, r := range dedupe(reqs) {
		b.graph.addEdge(id, r)
	}
	b.graph.expanded[id] = true
	b.logger.Debug("expanded candidate", "candidate", c.String(), "requirements", len(reqs))
	return nil
}

// Prefetch loads the versions of pkg into the fetch cache without touching
// the graph. Oracle failures are cached and surface when pkg is expanded;
// only context errors are returned.
func (b *Builder) Prefetch(ctx context.Context, pkg string) error {
	_, err := b.listVersions(ctx, pkg)
	if err != nil && isContextError(err) {
		return err
	}
	return nil
}

// PrefetchAll prefetches pkgs concurrently.
func (b *Builder) PrefetchAll(ctx context.Context, pkgs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	limit := b.limit
	if limit <= 0 {
		limit = defaultPrefetchLimit
	}
	g.SetLimit(limit)
	for _, pkg := range pkgs {
		if b.cached(pkg) {
			continue
		}
		g.Go(func() error {
			return b.Prefetch(ctx, pkg)
		})
	}
	return g.Wait()
}

const defaultPrefetchLimit = 5

// BuilderStats counts oracle traffic.
type BuilderStats struct {
	ListVersionsCalls    int64
	GetRequirementsCalls int64
	CacheHits            int64
}

// Stats returns a snapshot of the oracle counters.
func (b *Builder) Stats() BuilderStats {
	return BuilderStats{
		ListVersionsCalls:    b.listCalls.Load(),
		GetRequirementsCalls: b.reqCalls.Load(),
		CacheHits:            b.cacheHits.Load(),
	}
}

func (b *Builder) cached(pkg string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.versions[pkg]
	return ok
}

func (b *Builder) listVersions(ctx context.Context, pkg string) ([]version.Version, error) {
	b.mu.Lock()
	if res, ok := b.versions[pkg]; ok {
		b.mu.Unlock()
		b.cacheHits.Add(1)
		return res.versions, res.err
	}
	b.mu.Unlock()

	v, err, _ := b.flight.Do("versions\x00"+pkg, func() (any, error) {
		b.mu.Lock()
		if res, ok := b.versions[pkg]; ok {
			b.mu.Unlock()
			return res.versions, res.err
		}
		b.mu.Unlock()

		b.listCalls.Add(1)
		versions, err := b.oracle.ListVersions(ctx, pkg)
		if err != nil {
			if isContextError(err) {
				return nil, err
			}
			err = &OracleError{Op: "list_versions", Package: pkg, Err: err}
		}
		b.mu.Lock()
		b.versions[pkg] = versionsResult{versions: versions, err: err}
		b.mu.Unlock()
		return versions, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]version.Version), nil
}

func (b *Builder) requirements(ctx context.Context, pkg string, v version.Version) ([]Requirement, error) {
	key := candidateKey{pkg: pkg, v: v}
	b.mu.Lock()
	if res, ok := b.reqs[key]; ok {
		b.mu.Unlock()
		b.cacheHits.Add(1)
		return res.reqs, res.err
	}
	b.mu.Unlock()

	b.reqCalls.Add(1)
	reqs, err := b.oracle.GetRequirements(ctx, pkg, v)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		err = &OracleError{Op: "get_requirements", Package: pkg, Version: v.String(), Err: err}
	}
	b.mu.Lock()
	b.reqs[key] = requirementsResult{reqs: reqs, err: err}
	b.mu.Unlock()
	return reqs, err
}

// dedupe drops repeated (package, constraint) pairs, keeping the first.
func dedupe(reqs []Requirement) []Requirement {
	out := make([]Requirement, 0, len(reqs))
	for _, r := range reqs {
		dup := false
		for _, seen := range out {
			if seen.Package == r.Package && seen.Constraint.Equal(r.Constraint) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
