package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches every RegistryError with a 404 status, and is returned
// when no registry in a Chain knows a package.
var ErrNotFound = errors.New("not found in registry")

// RegistryError reports an unexpected registry response. Local registries
// use StatusCode 404 for missing files.
type RegistryError struct {
	StatusCode int
	Package    string
	Version    string
	URL        string
}

func (e *RegistryError) Error() string {
	subject := e.Package
	if e.Version != "" {
		subject += "@" + e.Version
	}
	if e.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("%s not found in registry (%s)", subject, e.URL)
	}
	return fmt.Sprintf("registry returned HTTP %d for %s (%s)", e.StatusCode, subject, e.URL)
}

// Is reports whether target is ErrNotFound and the status is 404.
func (e *RegistryError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
