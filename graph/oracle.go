package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Oracle supplies package metadata to the builder. Implementations own any
// I/O, caching and retry policy; the resolver core only calls these two
// methods.
//
//go:generate mockgen -source=oracle.go -destination=mocks/mock_oracle.go -package=mocks
type Oracle interface {
	// ListVersions returns every available version of pkg, in any order.
	ListVersions(ctx context.Context, pkg string) ([]version.Version, error)

	// GetRequirements returns the dependencies declared by pkg at v.
	GetRequirements(ctx context.Context, pkg string, v version.Version) ([]Requirement, error)
}

// Requirement is a (package, constraint) pair.
type Requirement struct {
	Package    string
	Constraint version.Constraint
}

// String returns "pkg constraint".
func (r Requirement) String() string {
	return r.Package + " " + r.Constraint.String()
}

// ErrOracle matches every *OracleError via errors.Is.
var ErrOracle = errors.New("metadata oracle failure")

// OracleError wraps a failure returned by an Oracle. The cause is kept
// unchanged and is reachable with errors.Unwrap.
type OracleError struct {
	// Op is "list_versions" or "get_requirements".
	Op      string
	Package string
	// Version is set for get_requirements failures.
	Version string
	Err     error
}

func (e *OracleError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("%s %s@%s: %v", e.Op, e.Package, e.Version, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Is reports whether target is ErrOracle.
func (e *OracleError) Is(target error) bool { return target == ErrOracle }
