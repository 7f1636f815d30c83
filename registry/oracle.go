package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/manifest"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Oracle answers the resolver's metadata queries from a Source.
//
// Yanked versions are hidden from ListVersions unless allowed with
// AllowYanked. A package no registry knows has no versions, which the
// solver reports as a conflict rather than an I/O failure.
type Oracle struct {
	src         Source
	allowAll    bool
	allowed     map[string]bool // "name@version"
	metadataMu  sync.RWMutex
	metadataFor map[string]*Metadata
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// AllowYanked lets the listed yanked versions be selected. Entries are
// "name@version", or "all" to allow every yanked version.
func AllowYanked(versions ...string) OracleOption {
	return func(o *Oracle) {
		for _, v := range versions {
			if v == "all" {
				o.allowAll = true
				continue
			}
			o.allowed[v] = true
		}
	}
}

// NewOracle creates an oracle over src.
func NewOracle(src Source, opts ...OracleOption) *Oracle {
	o := &Oracle{
		src:         src,
		allowed:     make(map[string]bool),
		metadataFor: make(map[string]*Metadata),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ListVersions returns the selectable versions of pkg.
func (o *Oracle) ListVersions(ctx context.Context, pkg string) ([]version.Version, error) {
	md, err := o.src.GetMetadata(ctx, pkg)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	o.metadataMu.Lock()
	o.metadataFor[pkg] = md
	o.metadataMu.Unlock()

	out := make([]version.Version, 0, len(md.Versions))
	for _, s := range md.Versions {
		v, err := version.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("package %s lists invalid version: %w", pkg, err)
		}
		if md.IsYanked(s) && !o.yankAllowed(pkg, s) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// GetRequirements fetches and parses the manifest of pkg at v. Dev
// dependencies of registry packages are never included.
func (o *Oracle) GetRequirements(ctx context.Context, pkg string, v version.Version) ([]graph.Requirement, error) {
	data, err := o.src.GetManifest(ctx, pkg, v.String())
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(fmt.Sprintf("%s/packages/%s/%s/%s", o.src.BaseURL(), pkg, v, manifest.DefaultFilename), data)
	if err != nil {
		return nil, err
	}
	if m.Name != pkg {
		return nil, fmt.Errorf("manifest of %s@%s declares package %q", pkg, v, m.Name)
	}
	return m.Requirements(false), nil
}

// Yanked reports whether pkg@v is yanked and why. Only packages already
// listed by ListVersions are known.
func (o *Oracle) Yanked(pkg string, v version.Version) (string, bool) {
	md := o.metadata(pkg)
	if md == nil || !md.IsYanked(v.String()) {
		return "", false
	}
	return md.YankReason(v.String()), true
}

// Deprecated reports whether pkg is deprecated and why.
func (o *Oracle) Deprecated(pkg string) (string, bool) {
	md := o.metadata(pkg)
	if md == nil || !md.IsDeprecated() {
		return "", false
	}
	return md.Deprecated, true
}

func (o *Oracle) metadata(pkg string) *Metadata {
	o.metadataMu.RLock()
	defer o.metadataMu.RUnlock()
	return o.metadataFor[pkg]
}

func (o *Oracle) yankAllowed(pkg, v string) bool {
	return o.allowAll || o.allowed[pkg+"@"+v]
}

var _ graph.Oracle = (*Oracle)(nil)
