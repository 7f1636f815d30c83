package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Chain looks packages up in several registries in order.
//
//  1. Packages are looked up in registry order (first to last)
//  2. The first registry that returns metadata for a package serves ALL
//     versions of that package
//  3. Any error, not only a 404, moves on to the next registry, so an
//     unreachable mirror does not hide a healthy one
//  4. A package is reported as not found only when every registry said so;
//     any other failure is returned as an error
type Chain struct {
	sources []Source

	mu     sync.RWMutex
	owners map[string]int // package name -> source index
}

// NewChain chains sources in lookup order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources, owners: make(map[string]int)}
}

// BaseURL returns the URL of the first registry in the chain.
func (c *Chain) BaseURL() string {
	if len(c.sources) == 0 {
		return ""
	}
	return c.sources[0].BaseURL()
}

// Sources returns the chained sources in lookup order.
func (c *Chain) Sources() []Source {
	return c.sources
}

// GetMetadata returns metadata from the registry that owns name, finding
// and remembering the owner on first use.
func (c *Chain) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	if src, ok := c.owner(name); ok {
		return src.GetMetadata(ctx, name)
	}

	chainErr := &chainError{name: name}
	for i, src := range c.sources {
		md, err := src.GetMetadata(ctx, name)
		if err == nil {
			c.mu.Lock()
			if _, exists := c.owners[name]; !exists {
				c.owners[name] = i
			}
			c.mu.Unlock()
			return md, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		chainErr.failures = append(chainErr.failures, fmt.Sprintf("%s: %v", src.BaseURL(), err))
		if !isNotFound(err) {
			chainErr.errs = append(chainErr.errs, err)
		}
	}
	return nil, chainErr
}

// GetManifest fetches the manifest from the registry that owns name.
func (c *Chain) GetManifest(ctx context.Context, name, version string) ([]byte, error) {
	src, ok := c.owner(name)
	if !ok {
		if _, err := c.GetMetadata(ctx, name); err != nil {
			return nil, err
		}
		src, _ = c.owner(name)
	}
	return src.GetManifest(ctx, name, version)
}

// Owner returns the base URL of the registry serving name, if it has been
// looked up.
func (c *Chain) Owner(name string) (string, bool) {
	src, ok := c.owner(name)
	if !ok {
		return "", false
	}
	return src.BaseURL(), true
}

func (c *Chain) owner(name string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.owners[name]
	if !ok {
		return nil, false
	}
	return c.sources[i], true
}

// chainError reports a package no registry could serve. It matches
// ErrNotFound only when every registry answered not found; otherwise it
// unwraps to the other failures.
type chainError struct {
	name     string
	failures []string
	errs     []error
}

func (e *chainError) Error() string {
	if len(e.errs) > 0 {
		return fmt.Sprintf("package %s: no registry could serve it:\n  %s",
			e.name, strings.Join(e.failures, "\n  "))
	}
	if len(e.failures) == 1 {
		return fmt.Sprintf("package %s not found: %s", e.name, e.failures[0])
	}
	return fmt.Sprintf("package %s not found in any registry:\n  %s",
		e.name, strings.Join(e.failures, "\n  "))
}

func (e *chainError) Is(target error) bool {
	return target == ErrNotFound && len(e.errs) == 0
}

func (e *chainError) Unwrap() []error { return e.errs }

var _ Source = (*Chain)(nil)
