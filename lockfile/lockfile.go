package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	depsolve "github.com/albertocavalcante/go-depsolve"
)

// CurrentVersion is the lockfile schema version written by this package.
// Lockfiles with any other version are rejected by Parse.
const CurrentVersion = 1

// Lockfile is the serialized form of a resolution.
type Lockfile struct {
	Version                int               `json:"lockFileVersion"`
	Root                   string            `json:"root,omitempty"`
	ManifestHash           string            `json:"manifestHash,omitempty"`
	Digest                 string            `json:"digest"`
	Packages               map[string]Entry  `json:"packages"`
	SelectedYankedVersions map[string]string `json:"selectedYankedVersions"`
}

// Entry is one locked package.
type Entry struct {
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies,omitempty"`
	Direct       bool     `json:"direct,omitempty"`
}

// PackageKey identifies a package version as "name@version".
type PackageKey struct {
	Name    string
	Version string
}

// String returns "name@version", using "_" for an empty version.
func (k PackageKey) String() string {
	v := k.Version
	if v == "" {
		v = "_"
	}
	return k.Name + "@" + v
}

// MarshalText implements encoding.TextMarshaler.
func (k PackageKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses "name@version".
func (k *PackageKey) UnmarshalText(text []byte) error {
	s := string(text)
	i := strings.LastIndexByte(s, '@')
	if i <= 0 {
		return fmt.Errorf("invalid package key %q: want name@version", s)
	}
	k.Name = s[:i]
	k.Version = s[i+1:]
	if k.Version == "_" {
		k.Version = ""
	}
	return nil
}

// New creates an empty lockfile with the current version.
func New() *Lockfile {
	return &Lockfile{
		Version:                CurrentVersion,
		Packages:               make(map[string]Entry),
		SelectedYankedVersions: make(map[string]string),
	}
}

// FromResolution creates a lockfile from a resolution of root.
func FromResolution(root string, res *depsolve.Resolution) *Lockfile {
	lf := New()
	lf.Root = root
	lf.Digest = res.Digest()
	for _, p := range res.Packages {
		lf.Packages[p.Name] = Entry{
			Version:      p.Version.String(),
			Dependencies: sortedCopy(p.Dependencies),
			Direct:       p.Direct,
		}
	}
	return lf
}

func sortedCopy(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}

// SetManifestHash records the hash of the root manifest content.
func (l *Lockfile) SetManifestHash(content []byte) {
	l.ManifestHash = HashContent(content)
}

// ManifestChanged reports whether content differs from the manifest the
// lockfile was written for. A lockfile without a hash never matches.
func (l *Lockfile) ManifestChanged(content []byte) bool {
	return l.ManifestHash == "" || !VerifyHash(content, l.ManifestHash)
}

// AllowYankedVersion records that a yanked version was selected on purpose.
func (l *Lockfile) AllowYankedVersion(key PackageKey, reason string) {
	l.SelectedYankedVersions[key.String()] = reason
}

// AllowedYankedVersions returns the recorded yanked versions as
// "name@version" strings, suitable for depsolve.WithAllowedYankedVersions.
func (l *Lockfile) AllowedYankedVersions() []string {
	return sortedKeys(l.SelectedYankedVersions)
}

// Get returns the locked version of name.
func (l *Lockfile) Get(name string) (string, bool) {
	e, ok := l.Packages[name]
	return e.Version, ok
}

// Matches reports whether res selects exactly the locked versions.
func (l *Lockfile) Matches(res *depsolve.Resolution) bool {
	if res.Digest() != l.Digest || res.Len() != len(l.Packages) {
		return false
	}
	for name, v := range res.All() {
		if locked, ok := l.Get(name); !ok || locked != v.String() {
			return false
		}
	}
	return true
}

// HashContent computes a SHA-256 hash of content for use in lockfiles.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// VerifyHash checks if content matches the expected hash.
func VerifyHash(content []byte, expectedHash string) bool {
	return HashContent(content) == expectedHash
}
