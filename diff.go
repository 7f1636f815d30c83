package depsolve

import (
	"strings"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// PackageChange is a package added to or removed from a resolution.
type PackageChange struct {
	Name    string          `json:"name"`
	Version version.Version `json:"version"`
}

// PackageUpgrade is a package whose selected version changed.
type PackageUpgrade struct {
	Name       string          `json:"name"`
	OldVersion version.Version `json:"old_version"`
	NewVersion version.Version `json:"new_version"`
}

// ResolutionDiff describes the differences between two resolutions.
//
// Example usage:
//
//	before, _ := depsolve.Resolve(ctx, oldRoots, oracle)
//	after, _ := depsolve.Resolve(ctx, newRoots, oracle)
//	diff := depsolve.Diff(before, after)
//
//	if !diff.IsEmpty() {
//	    fmt.Printf("%d added, %d removed, %d upgraded, %d downgraded\n",
//	        len(diff.Added), len(diff.Removed), len(diff.Upgraded), len(diff.Downgraded))
//	}
type ResolutionDiff struct {
	// Added contains packages present in new but not in old.
	Added []PackageChange `json:"added,omitempty"`

	// Removed contains packages present in old but not in new.
	Removed []PackageChange `json:"removed,omitempty"`

	// Upgraded contains packages where the new version is higher.
	Upgraded []PackageUpgrade `json:"upgraded,omitempty"`

	// Downgraded contains packages where the new version is lower.
	Downgraded []PackageUpgrade `json:"downgraded,omitempty"`
}

// IsEmpty returns true if there are no differences between the resolutions.
func (d *ResolutionDiff) IsEmpty() bool {
	return d.TotalChanges() == 0
}

// TotalChanges returns the number of added, removed, upgraded and downgraded
// packages.
func (d *ResolutionDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded)
}

// Diff computes the difference between two resolutions. A nil resolution is
// treated as empty. Versions that differ only in build metadata compare
// equal and are not reported. Every list is sorted by package name.
func Diff(old, new *Resolution) *ResolutionDiff {
	diff := &ResolutionDiff{}
	var before, after []ResolvedPackage
	if old != nil {
		before = old.Packages
	}
	if new != nil {
		after = new.Packages
	}

	// Both lists are sorted by name.
	i, j := 0, 0
	for i < len(before) || j < len(after) {
		switch {
		case j == len(after) || (i < len(before) && before[i].Name < after[j].Name):
			diff.Removed = append(diff.Removed, PackageChange{Name: before[i].Name, Version: before[i].Version})
			i++
		case i == len(before) || strings.Compare(before[i].Name, after[j].Name) > 0:
			diff.Added = append(diff.Added, PackageChange{Name: after[j].Name, Version: after[j].Version})
			j++
		default:
			o, n := before[i], after[j]
			change := PackageUpgrade{Name: o.Name, OldVersion: o.Version, NewVersion: n.Version}
			switch c := n.Version.Compare(o.Version); {
			case c > 0:
				diff.Upgraded = append(diff.Upgraded, change)
			case c < 0:
				diff.Downgraded = append(diff.Downgraded, change)
			}
			i++
			j++
		}
	}
	return diff
}
