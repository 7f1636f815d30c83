package manifest

import (
	"fmt"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// DefaultFilename is the conventional manifest file name.
const DefaultFilename = "MANIFEST.star"

// Manifest describes one package: its identity and declared dependencies.
type Manifest struct {
	// Name is the package name from package().
	Name string `json:"name"`

	// Version is the package version. It is the zero Version when the
	// manifest does not declare one.
	Version version.Version `json:"version"`

	// HasVersion reports whether package() declared a version.
	HasVersion bool `json:"-"`

	// Registries lists registry URLs declared by package(registries = [...]),
	// in priority order.
	Registries []string `json:"registries,omitempty"`

	// Dependencies are the dep() calls in file order.
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is one dep() call.
type Dependency struct {
	Name       string             `json:"name"`
	Constraint version.Constraint `json:"constraint"`

	// Dev marks a dependency needed only to develop the package itself.
	// Dev dependencies of other packages are never resolved.
	Dev bool `json:"dev,omitempty"`

	// Line is the 1-based line of the dep() call.
	Line int `json:"-"`
}

// Requirements returns the dependencies as resolver requirements in file
// order. Dev dependencies are included only when includeDev is set.
func (m *Manifest) Requirements(includeDev bool) []graph.Requirement {
	reqs := make([]graph.Requirement, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if dep.Dev && !includeDev {
			continue
		}
		reqs = append(reqs, graph.Requirement{Package: dep.Name, Constraint: dep.Constraint})
	}
	return reqs
}

// Error reports an invalid manifest. Err holds the underlying cause, such as
// a *version.ParseError, when there is one.
type Error struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Msg, e.Err)
	}
	return loc + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }
