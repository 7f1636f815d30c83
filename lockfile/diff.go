package lockfile

import (
	"fmt"
	"strings"
)

// Diff lists the differences between two lockfiles.
type Diff struct {
	// Added contains packages locked only in the new lockfile.
	Added []PackageKey

	// Removed contains packages locked only in the old lockfile.
	Removed []PackageKey

	// Changed contains packages locked at different versions.
	Changed []VersionChange

	// YankedAdded contains yanked versions allowed only in the new lockfile.
	YankedAdded []string

	// YankedRemoved contains yanked versions allowed only in the old lockfile.
	YankedRemoved []string
}

// VersionChange is a package whose locked version changed.
type VersionChange struct {
	Name       string
	OldVersion string
	NewVersion string
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 &&
		len(d.YankedAdded) == 0 && len(d.YankedRemoved) == 0
}

// Summary returns a human-readable summary, one change per line.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes\n"
	}
	var b strings.Builder
	for _, k := range d.Added {
		fmt.Fprintf(&b, "+ %s\n", k)
	}
	for _, k := range d.Removed {
		fmt.Fprintf(&b, "- %s\n", k)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(&b, "~ %s %s -> %s\n", c.Name, c.OldVersion, c.NewVersion)
	}
	for _, k := range d.YankedAdded {
		fmt.Fprintf(&b, "+ yanked %s\n", k)
	}
	for _, k := range d.YankedRemoved {
		fmt.Fprintf(&b, "- yanked %s\n", k)
	}
	return b.String()
}

// Compare compares two lockfiles. Every list in the result is sorted.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{}

	for _, name := range sortedKeys(new.Packages) {
		n := new.Packages[name]
		o, exists := old.Packages[name]
		switch {
		case !exists:
			diff.Added = append(diff.Added, PackageKey{Name: name, Version: n.Version})
		case o.Version != n.Version:
			diff.Changed = append(diff.Changed, VersionChange{Name: name, OldVersion: o.Version, NewVersion: n.Version})
		}
	}
	for _, name := range sortedKeys(old.Packages) {
		if _, exists := new.Packages[name]; !exists {
			diff.Removed = append(diff.Removed, PackageKey{Name: name, Version: old.Packages[name].Version})
		}
	}

	for _, key := range sortedKeys(new.SelectedYankedVersions) {
		if _, exists := old.SelectedYankedVersions[key]; !exists {
			diff.YankedAdded = append(diff.YankedAdded, key)
		}
	}
	for _, key := range sortedKeys(old.SelectedYankedVersions) {
		if _, exists := new.SelectedYankedVersions[key]; !exists {
			diff.YankedRemoved = append(diff.YankedRemoved, key)
		}
	}

	return diff
}
