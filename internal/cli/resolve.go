package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	depsolve "github.com/albertocavalcante/go-depsolve"
	"github.com/albertocavalcante/go-depsolve/lockfile"
)

// errReported is returned after a failure has already been printed.
var errReported = errors.New("resolution failed")

func (c *CLI) resolveCommand() *cobra.Command {
	var (
		flags  resolveFlags
		lock   bool
		check  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a manifest",
		Long: `Resolve selects one version of every package the manifest needs.

With --lock the selection is written to depsolve.lock next to the manifest.
With --check the command fails if depsolve.lock is missing or differs from
a fresh resolution.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lockPath := lockfile.DefaultPath(filepath.Dir(flags.manifest))

			var existing *lockfile.Lockfile
			if check || lockfile.Exists(lockPath) {
				lf, err := lockfile.ReadFile(lockPath)
				if err != nil && check {
					return err
				}
				existing = lf
			}
			var lockedYanked []string
			if existing != nil {
				lockedYanked = existing.AllowedYankedVersions()
			}

			s, err := c.resolve(cmd.Context(), &flags, lockedYanked...)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return c.reportFailure(err)
			}
			res := s.resolution
			lf := c.lockfileFor(s)

			if check {
				diff := lockfile.Compare(existing, lf)
				if existing.ManifestChanged(s.manifestData) {
					printWarning(c.out, "%s changed since %s was written", flags.manifest, lockPath)
				}
				if !diff.IsEmpty() {
					fmt.Fprint(c.out, diff.Summary())
					return fmt.Errorf("%s is out of date", lockPath)
				}
				printSuccess(c.out, "%s is up to date", lockPath)
				return nil
			}

			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			printSuccess(c.out, "%s resolved", s.manifest.Name)
			printResolution(c.out, res)
			printStats(c.out, res.Stats)

			if lock {
				if existing != nil {
					if diff := lockfile.Compare(existing, lf); !diff.IsEmpty() {
						fmt.Fprint(c.out, diff.Summary())
					}
				}
				if err := lf.WriteFile(lockPath); err != nil {
					return fmt.Errorf("write lockfile: %w", err)
				}
				printDetail(c.out, "%s %s", iconArrow, lockPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&lock, "lock", false, "write depsolve.lock")
	cmd.Flags().BoolVar(&check, "check", false, "fail if depsolve.lock is out of date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the resolution as JSON")
	cmd.MarkFlagsMutuallyExclusive("lock", "check")

	return cmd
}

// lockfileFor builds the lockfile of a successful session, recording any
// yanked versions it selected.
func (c *CLI) lockfileFor(s *session) *lockfile.Lockfile {
	lf := lockfile.FromResolution(s.manifest.Name, s.resolution)
	lf.SetManifestHash(s.manifestData)
	for name, v := range s.resolution.All() {
		if reason, yanked := s.yankReason(name, v); yanked {
			lf.AllowYankedVersion(lockfile.PackageKey{Name: name, Version: v.String()}, reason)
		}
	}
	return lf
}

// reportFailure prints resolution failures that carry a report and returns
// the error to surface from the command.
func (c *CLI) reportFailure(err error) error {
	var unsat *depsolve.UnsatisfiableError
	if errors.As(err, &unsat) {
		printConflicts(c.out, unsat.Report)
		return errReported
	}
	var timeout *depsolve.TimeoutError
	if errors.As(err, &timeout) {
		printStats(c.out, timeout.Stats)
	}
	return err
}
