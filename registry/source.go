package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Source is a package registry: per-package metadata plus one manifest per
// published version.
type Source interface {
	// GetMetadata returns the metadata of a package. A package the
	// registry does not know yields an error matching ErrNotFound.
	GetMetadata(ctx context.Context, name string) (*Metadata, error)

	// GetManifest returns the raw MANIFEST.star of name at version.
	GetManifest(ctx context.Context, name, version string) ([]byte, error)

	// BaseURL identifies the registry in errors, logs and cache keys.
	BaseURL() string
}

// Open creates a Source for each URL and chains them in order.
//
// Supported schemes:
//   - https:// or http:// - Remote registry (Client)
//   - file:// - Local filesystem registry (Local)
//   - a file:// URL or path ending in .yaml or .yml - single-file Index
//
// A single URL is returned unwrapped.
func Open(urls []string, opts ...ClientOption) (Source, error) {
	if len(urls) == 0 {
		return nil, errors.New("no registry URLs provided")
	}
	sources := make([]Source, 0, len(urls))
	for _, u := range urls {
		src, err := open(u, opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return NewChain(sources...), nil
}

func open(url string, opts ...ClientOption) (Source, error) {
	switch {
	case isFileURL(url):
		path, err := parseFileURL(url)
		if err != nil {
			return nil, err
		}
		if isIndexPath(path) {
			return LoadIndex(path)
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("local registry path does not exist: %s", path)
			}
			return nil, fmt.Errorf("cannot access local registry path %s: %w", path, err)
		}
		return NewLocal(path), nil
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return NewClient(url, opts...), nil
	case isIndexPath(url):
		return LoadIndex(url)
	default:
		return nil, fmt.Errorf("unsupported registry URL %q", url)
	}
}

func isIndexPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// checkName rejects package names that could escape the registry layout.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}
