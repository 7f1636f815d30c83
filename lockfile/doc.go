// Package lockfile records a resolution so later runs can detect drift.
//
// The lockfile captures one version per package, the dependency names of
// each selected version, and a digest of the whole selection. Output is
// deterministic: keys are sorted and the same resolution always produces
// the same bytes.
//
// # Lockfile Structure
//
//   - lockFileVersion: schema version, matched exactly
//   - root: the resolved package name
//   - manifestHash: SHA-256 of the root manifest that was resolved
//   - digest: Resolution.Digest of the selection
//   - packages: name -> version, dependencies, direct flag
//   - selectedYankedVersions: yanked versions that were explicitly allowed
//
// # Usage
//
//	res, err := depsolve.ResolveFile(ctx, "MANIFEST.star", opts...)
//	if err != nil {
//	    return err
//	}
//	lf := lockfile.FromResolution("app", res)
//	if err := lf.WriteFile(lockfile.DefaultPath(".")); err != nil {
//	    return err
//	}
//
// Check a lockfile against a fresh resolution:
//
//	old, err := lockfile.ReadFile("depsolve.lock")
//	if err != nil {
//	    return err
//	}
//	if diff := lockfile.Compare(old, lockfile.FromResolution("app", res)); !diff.IsEmpty() {
//	    fmt.Print(diff.Summary())
//	}
package lockfile
