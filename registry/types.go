package registry

import (
	"slices"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Metadata represents the metadata.json file for a package in the registry.
type Metadata struct {
	// Homepage is the URL to the project's homepage.
	Homepage string `json:"homepage,omitempty"`

	// Maintainers lists individuals who can be notified about the package.
	Maintainers []Maintainer `json:"maintainers,omitempty"`

	// Repository lists source locations, e.g. "github:org/repo".
	Repository []string `json:"repository,omitempty"`

	// Versions lists all published versions, in any order.
	Versions []string `json:"versions"`

	// YankedVersions maps version strings to yank reasons.
	// Yanked versions are not offered to the solver unless explicitly allowed.
	YankedVersions map[string]string `json:"yanked_versions,omitempty"`

	// Deprecated explains why the package should not be used.
	Deprecated string `json:"deprecated,omitempty"`
}

// Maintainer represents a package maintainer in metadata.json.
type Maintainer struct {
	// GitHub is the maintainer's GitHub username.
	GitHub string `json:"github,omitempty"`

	// Email is the maintainer's email address (informational only).
	Email string `json:"email,omitempty"`

	// Name is the maintainer's display name (informational only).
	Name string `json:"name,omitempty"`
}

// ParsedVersions returns Versions in ascending precedence order. Entries
// that are not valid semantic versions are skipped; Validate reports them.
func (m *Metadata) ParsedVersions() []version.Version {
	out := make([]version.Version, 0, len(m.Versions))
	for _, s := range m.Versions {
		v, err := version.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	version.Sort(out)
	return out
}

// LatestVersion returns the highest published version by precedence.
// Returns empty string if no versions are available.
func (m *Metadata) LatestVersion() string {
	vs := m.ParsedVersions()
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1].String()
}

// IsYanked returns true if the given version is yanked.
func (m *Metadata) IsYanked(v string) bool {
	_, ok := m.YankedVersions[v]
	return ok
}

// YankReason returns the reason why a version was yanked.
// Returns empty string if not yanked.
func (m *Metadata) YankReason(v string) string {
	return m.YankedVersions[v]
}

// IsDeprecated returns true if the package is deprecated.
func (m *Metadata) IsDeprecated() bool {
	return m.Deprecated != ""
}

// HasVersion returns true if the given version is published.
func (m *Metadata) HasVersion(v string) bool {
	return slices.Contains(m.Versions, v)
}

// NonYankedVersions returns all versions that are not yanked, in order.
func (m *Metadata) NonYankedVersions() []string {
	result := make([]string, 0, len(m.Versions))
	for _, v := range m.Versions {
		if !m.IsYanked(v) {
			result = append(result, v)
		}
	}
	return result
}
