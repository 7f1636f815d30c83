// Package version implements semantic versions and the version constraints
// used to express package requirements.
//
// Versions follow SemVer 2.0 precedence:
//
//	MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]
//
// Build metadata is carried but ignored by comparison. Parsing and precedence
// are delegated to github.com/Masterminds/semver/v3; this package adds the
// value-type wrapper the resolver needs (values built by New or Parse are
// comparable with == and usable as map keys) and the constraint algebra in
// constraint.go.
package version

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is an immutable semantic version.
type Version struct {
	sv semver.Version
}

// New returns the version major.minor.patch with optional pre-release and
// build metadata (without the leading '-' or '+').
func New(major, minor, patch uint64, pre, build string) Version {
	return Version{sv: *semver.New(major, minor, patch, pre, build)}
}

// Parse parses a strict MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] string.
func Parse(s string) (Version, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Version{}, &ParseError{Subject: "version", Input: s, Message: "empty version"}
	}
	sv, err := semver.StrictNewVersion(in)
	if err != nil {
		return Version{}, &ParseError{Subject: "version", Input: s, Message: describe(err), Err: err}
	}
	return fromSemver(sv), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// parseLoose accepts partial versions ("1", "1.2") and reports how many
// numeric components were present. Used for constraint operands.
func parseLoose(s string) (Version, int, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Version{}, 0, &ParseError{Subject: "version", Input: s, Message: "empty version"}
	}
	if in[0] == 'v' || in[0] == 'V' {
		return Version{}, 0, &ParseError{Subject: "version", Input: s, Message: "leading 'v' is not allowed"}
	}
	core := in
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	parts := strings.Count(core, ".") + 1
	if parts < 3 && len(core) != len(in) {
		return Version{}, 0, &ParseError{Subject: "version", Input: s, Message: "pre-release or build requires MAJOR.MINOR.PATCH"}
	}
	if parts > 3 {
		return Version{}, 0, &ParseError{Subject: "version", Input: s, Message: "too many version components"}
	}
	sv, err := semver.NewVersion(in)
	if err != nil {
		return Version{}, 0, &ParseError{Subject: "version", Input: s, Message: describe(err), Err: err}
	}
	return fromSemver(sv), parts, nil
}

func fromSemver(sv *semver.Version) Version {
	return New(sv.Major(), sv.Minor(), sv.Patch(), sv.Prerelease(), sv.Metadata())
}

func describe(err error) string {
	msg := err.Error()
	if msg == "" {
		return "invalid semantic version"
	}
	return msg
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.sv.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.sv.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.sv.Patch() }

// Prerelease returns the pre-release tag without the leading '-'.
func (v Version) Prerelease() string { return v.sv.Prerelease() }

// Metadata returns the build metadata without the leading '+'.
func (v Version) Metadata() string { return v.sv.Metadata() }

// IsPrerelease reports whether v carries a pre-release tag.
func (v Version) IsPrerelease() bool { return v.sv.Prerelease() != "" }

// Compare returns -1, 0 or 1 as v is lower than, equal to or higher than o
// in SemVer precedence.
func (v Version) Compare(o Version) int {
	return v.sv.Compare(&o.sv)
}

// LessThan reports whether v has lower precedence than o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o have the same precedence. Build metadata is
// ignored; use == for exact identity.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// String returns the canonical form.
func (v Version) String() string { return v.sv.String() }

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// prereleaseFloor returns the lowest version with the given core, i.e.
// MAJOR.MINOR.PATCH-0. Every pre-release of that core sorts at or above it.
func prereleaseFloor(major, minor, patch uint64) Version {
	return New(major, minor, patch, "0", "")
}

// Compare compares two versions. It exists so callers can pass it to
// slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

// Sort sorts versions in ascending precedence. Versions of equal precedence
// are ordered by their canonical string so the result is deterministic.
func Sort(versions []Version) {
	slices.SortFunc(versions, func(a, b Version) int {
		if c := a.Compare(b); c != 0 {
			return c
		}
		return strings.Compare(a.String(), b.String())
	})
}

// Max returns the higher of two versions.
func Max(a, b Version) Version {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// ParseError reports malformed version or constraint text.
type ParseError struct {
	// Subject is "version" or "constraint".
	Subject string
	Input   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad %s %q: %s", e.Subject, e.Input, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }
