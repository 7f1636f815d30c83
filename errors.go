package depsolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Sentinel errors for the resolution outcomes that are not a Resolution.
var (
	// ErrUnsatisfiable indicates that no assignment satisfies every
	// reachable requirement.
	ErrUnsatisfiable = errors.New("requirements cannot be satisfied")

	// ErrTimeout indicates that the resolution deadline passed before the
	// search finished.
	ErrTimeout = errors.New("resolution timed out")

	// ErrOracle matches every *OracleError.
	ErrOracle = graph.ErrOracle
)

// ParseError reports malformed version or constraint text.
type ParseError = version.ParseError

// OracleError wraps a failure returned by the metadata oracle. The oracle's
// error is kept unchanged and is reachable with errors.Unwrap.
type OracleError = graph.OracleError

// UnsatisfiableError is returned when the solver proves that no assignment
// exists. Report lists the requirements that cannot hold together.
type UnsatisfiableError struct {
	Report *ConflictReport
}

func (e *UnsatisfiableError) Error() string {
	if e.Report == nil || len(e.Report.Conflicts) == 0 {
		return ErrUnsatisfiable.Error()
	}
	return ErrUnsatisfiable.Error() + ":\n" + e.Report.String()
}

// Is reports whether target is ErrUnsatisfiable.
func (e *UnsatisfiableError) Is(target error) bool { return target == ErrUnsatisfiable }

// TimeoutError is returned when the deadline passes. It is never
// accompanied by a partial Resolution.
type TimeoutError struct {
	// Elapsed is the time spent before the search stopped.
	Elapsed time.Duration

	// Stats describes how far the search got.
	Stats Stats
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v after %s (%d decisions, %d conflicts)",
		ErrTimeout, e.Elapsed.Round(time.Millisecond), e.Stats.Decisions, e.Stats.Conflicts)
}

// Is reports whether target is ErrTimeout or context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}
