package registry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Index is a whole registry described by one YAML file:
//
//	packages:
//	  log:
//	    deprecated: use slog
//	    yanked:
//	      1.0.1: broken build
//	    versions:
//	      1.0.0: {}
//	      1.0.1:
//	        fmt: ^1.0.0
//	        tls: ">=1.2.0, <2.0.0"
//
// Dependencies keep their file order. Manifests are rendered on demand, so
// an Index goes through the same parsing path as any other registry.
type Index struct {
	path     string
	packages map[string]*indexPackage
}

// indexFile is the YAML document layout.
type indexFile struct {
	Packages map[string]*indexPackage `yaml:"packages"`
}

type indexPackage struct {
	Homepage   string                `yaml:"homepage"`
	Deprecated string                `yaml:"deprecated"`
	Yanked     map[string]string     `yaml:"yanked"`
	Versions   map[string]*indexDeps `yaml:"versions"`
}

// indexDeps is an ordered name -> constraint mapping.
type indexDeps struct {
	names       []string
	constraints []string
}

// UnmarshalYAML decodes a mapping node, keeping key order.
func (d *indexDeps) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: dependencies must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: constraint for %s must be a string", val.Line, key.Value)
		}
		if slices.Contains(d.names, key.Value) {
			return fmt.Errorf("line %d: duplicate dependency %s", key.Line, key.Value)
		}
		d.names = append(d.names, key.Value)
		d.constraints = append(d.constraints, val.Value)
	}
	return nil
}

// LoadIndex reads and parses an index file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	idx, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	idx.path = filepath.Clean(path)
	return idx, nil
}

// ParseIndex parses index YAML. Every package's metadata is validated.
func ParseIndex(data []byte) (*Index, error) {
	var f indexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	idx := &Index{packages: f.Packages}
	if idx.packages == nil {
		idx.packages = make(map[string]*indexPackage)
	}
	for name, pkg := range idx.packages {
		if err := checkName(name); err != nil {
			return nil, err
		}
		if pkg == nil {
			return nil, fmt.Errorf("package %s: empty entry", name)
		}
		if err := pkg.metadata().Validate(); err != nil {
			return nil, fmt.Errorf("package %s: %w", name, err)
		}
	}
	return idx, nil
}

// BaseURL returns the file:// URL of the index, or "index" when parsed
// from memory.
func (x *Index) BaseURL() string {
	if x.path == "" {
		return "index"
	}
	return pathToFileURL(x.path)
}

// Packages returns the package names in sorted order.
func (x *Index) Packages() []string {
	names := make([]string, 0, len(x.packages))
	for name := range x.packages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetMetadata returns the metadata of name.
func (x *Index) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkg, ok := x.packages[name]
	if !ok {
		return nil, x.notFound(name, "")
	}
	return pkg.metadata(), nil
}

// GetManifest renders the manifest of name at version.
func (x *Index) GetManifest(ctx context.Context, name, version string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkg, ok := x.packages[name]
	if !ok {
		return nil, x.notFound(name, version)
	}
	deps, ok := pkg.Versions[version]
	if !ok {
		return nil, x.notFound(name, version)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "package(%s, %s)\n", strconv.Quote(name), strconv.Quote(version))
	if deps != nil {
		for i, dep := range deps.names {
			fmt.Fprintf(&b, "dep(%s, %s)\n", strconv.Quote(dep), strconv.Quote(deps.constraints[i]))
		}
	}
	return []byte(b.String()), nil
}

func (x *Index) notFound(name, version string) error {
	return &RegistryError{
		StatusCode: http.StatusNotFound,
		Package:    name,
		Version:    version,
		URL:        x.BaseURL(),
	}
}

func (p *indexPackage) metadata() *Metadata {
	md := &Metadata{
		Homepage:       p.Homepage,
		Deprecated:     p.Deprecated,
		YankedVersions: p.Yanked,
		Versions:       make([]string, 0, len(p.Versions)),
	}
	for v := range p.Versions {
		md.Versions = append(md.Versions, v)
	}
	slices.Sort(md.Versions)
	return md
}

var _ Source = (*Index)(nil)
