// Package selection implements the version selection policy of the resolver.
//
// The solver asks this package two questions at every decision point: which
// package to decide next, and which of its candidates to try first.
//
// # Package Order
//
// PickPackage chooses the undecided package with the fewest feasible
// candidates (most constrained first). Ties are broken by package name so
// that identical inputs always explore the search space in the same order.
//
// # Candidate Order
//
// Rank and Compare order candidates by:
//
//  1. Stable releases before pre-releases, unless a requirement on the
//     package names a pre-release (PrereleaseRequested).
//  2. Highest version first, using SemVer 2.0 precedence.
//  3. Package name, then version text, as a final deterministic tie-break.
//
// # Confirmation
//
// Confirm is applied read-only to a finished assignment. It rechecks that
// each package has one version and that every requirement declared by the
// root or by a selected candidate is satisfied, and it lists packages that
// were held back below the best candidate their requirers allow together
// with the requirements responsible.
//
// Subpackage version holds the version and constraint model.
package selection
