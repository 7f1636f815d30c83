package registry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Local provides packages from a directory with the same layout as an HTTP
// registry. This enables offline workflows where packages are vendored.
//
//	{root}/packages/{name}/metadata.json
//	{root}/packages/{name}/{version}/MANIFEST.star
type Local struct {
	rootPath      string
	metadataCache sync.Map // map[string]*Metadata keyed by package name
}

// NewLocal creates a registry for a local directory. The path can use
// either forward slashes or the native OS separator.
func NewLocal(rootPath string) *Local {
	return &Local{rootPath: filepath.Clean(rootPath)}
}

// BaseURL returns the file:// URL for this registry.
func (r *Local) BaseURL() string {
	return pathToFileURL(r.rootPath)
}

// GetMetadata reads metadata.json from the local registry. Local metadata
// is always validated.
func (r *Local) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	if cached, ok := r.metadataCache.Load(name); ok {
		return cached.(*Metadata), nil
	}
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := r.read(ctx, filepath.Join(r.rootPath, "packages", name, "metadata.json"), name, "")
	if err != nil {
		return nil, err
	}
	metadata, err := ValidateMetadataJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata for %s: %w", name, err)
	}

	r.metadataCache.Store(name, metadata)
	return metadata, nil
}

// GetManifest reads a MANIFEST.star file from the local registry.
func (r *Local) GetManifest(ctx context.Context, name, version string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return r.read(ctx, filepath.Join(r.rootPath, "packages", name, version, "MANIFEST.star"), name, version)
}

func (r *Local) read(ctx context.Context, path, name, version string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RegistryError{
				StatusCode: http.StatusNotFound,
				Package:    name,
				Version:    version,
				URL:        pathToFileURL(path),
			}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// parseFileURL extracts the path from a file:// URL.
// Handles both Unix (file:///path) and Windows (file:///C:/path) formats.
//
// Examples:
//
//	Unix:    file:///tmp/registry      -> /tmp/registry
//	Windows: file:///C:/Users/registry -> C:/Users/registry
func parseFileURL(url string) (string, error) {
	if !strings.HasPrefix(url, "file://") {
		return "", fmt.Errorf("not a file:// URL: %s", url)
	}

	path := strings.TrimPrefix(url, "file://")

	// file:///C:/path -> C:/path
	if len(path) >= 3 && path[0] == '/' && isWindowsDriveLetter(path[1]) && path[2] == ':' {
		path = path[1:]
	}

	return filepath.Clean(path), nil
}

// isWindowsDriveLetter returns true if c is a valid Windows drive letter (A-Z, a-z).
func isWindowsDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// pathToFileURL converts a native path to a file:// URL.
// The URL uses forward slashes regardless of OS, per RFC 8089.
func pathToFileURL(path string) string {
	urlPath := filepath.ToSlash(path)

	// C:/path -> /C:/path for file:///C:/path
	if runtime.GOOS == "windows" && len(urlPath) >= 2 && isWindowsDriveLetter(urlPath[0]) && urlPath[1] == ':' {
		urlPath = "/" + urlPath
	}

	return "file://" + urlPath
}

// isFileURL checks if a URL is a file:// URL.
func isFileURL(url string) bool {
	return strings.HasPrefix(url, "file://")
}

var _ Source = (*Local)(nil)
