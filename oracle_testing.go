package depsolve

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Compile-time interface compliance checks
var _ Oracle = (*MemoryOracle)(nil)
var _ Oracle = (*FailingOracle)(nil)

// MemoryOracle is a thread-safe in-memory Oracle for tests and examples.
type MemoryOracle struct {
	mu       sync.RWMutex
	packages map[string]map[string]memoryRelease

	listCalls atomic.Int64
	reqCalls  atomic.Int64
}

type memoryRelease struct {
	version version.Version
	reqs    []Requirement
}

// NewMemoryOracle creates an empty oracle.
func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{packages: make(map[string]map[string]memoryRelease)}
}

// Add registers pkg at v with requirements given as alternating package and
// constraint strings: Add("app", "1.0.0", "log", "^1.2.0"). It panics on
// malformed input.
func (o *MemoryOracle) Add(pkg, v string, reqs ...string) *MemoryOracle {
	if len(reqs)%2 != 0 {
		panic("MemoryOracle.Add: requirements must be package/constraint pairs")
	}
	rel := memoryRelease{version: version.MustParse(v)}
	for i := 0; i < len(reqs); i += 2 {
		rel.reqs = append(rel.reqs, Requirement{
			Package:    reqs[i],
			Constraint: version.MustParseConstraint(reqs[i+1]),
		})
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.packages[pkg] == nil {
		o.packages[pkg] = make(map[string]memoryRelease)
	}
	o.packages[pkg][rel.version.String()] = rel
	return o
}

// ListVersions returns the registered versions of pkg in ascending order.
// Unknown packages have no versions.
func (o *MemoryOracle) ListVersions(ctx context.Context, pkg string) ([]version.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.listCalls.Add(1)
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]version.Version, 0, len(o.packages[pkg]))
	for _, rel := range o.packages[pkg] {
		out = append(out, rel.version)
	}
	slices.SortFunc(out, version.Compare)
	return out, nil
}

// GetRequirements returns a copy of the requirements registered for pkg at v.
func (o *MemoryOracle) GetRequirements(ctx context.Context, pkg string, v version.Version) ([]Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.reqCalls.Add(1)
	o.mu.RLock()
	defer o.mu.RUnlock()
	rel, ok := o.packages[pkg][v.String()]
	if !ok {
		return nil, fmt.Errorf("%s@%s: not found", pkg, v)
	}
	return slices.Clone(rel.reqs), nil
}

// Packages returns the registered package names, sorted.
func (o *MemoryOracle) Packages() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Sorted(maps.Keys(o.packages))
}

// Calls returns how often ListVersions and GetRequirements were called.
func (o *MemoryOracle) Calls() (listVersions, getRequirements int64) {
	return o.listCalls.Load(), o.reqCalls.Load()
}

// FailingOracle is an Oracle that always returns errors.
// Useful for testing error handling paths.
type FailingOracle struct {
	ListErr error
	ReqErr  error
}

// NewFailingOracle creates an oracle that fails with the given errors.
func NewFailingOracle(listErr, reqErr error) *FailingOracle {
	if listErr == nil {
		listErr = errors.New("list versions failed")
	}
	if reqErr == nil {
		reqErr = errors.New("get requirements failed")
	}
	return &FailingOracle{ListErr: listErr, ReqErr: reqErr}
}

// ListVersions always returns an error.
func (o *FailingOracle) ListVersions(ctx context.Context, pkg string) ([]version.Version, error) {
	return nil, o.ListErr
}

// GetRequirements always returns an error.
func (o *FailingOracle) GetRequirements(ctx context.Context, pkg string, v version.Version) ([]Requirement, error) {
	return nil, o.ReqErr
}
