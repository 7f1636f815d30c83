package solver

import (
	"context"
	"errors"
	"slices"

	"github.com/albertocavalcante/go-depsolve/graph"
)

// Minimize shrinks an unsatisfiable set of edges to a minimal one: removing
// any single edge of the result makes the rest satisfiable. Each round
// re-solves with one edge left out, so the builder's fetch cache is reused.
//
// If ctx expires first, the smallest unsatisfiable set found so far is
// returned with minimal set to false. Only oracle errors are returned.
func Minimize(ctx context.Context, b *graph.Builder, cfg Config, core []graph.EdgeID) ([]graph.EdgeID, bool, error) {
	current, minimal, _, err := minimize(ctx, b, cfg, core)
	return current, minimal, err
}

func minimize(ctx context.Context, b *graph.Builder, cfg Config, core []graph.EdgeID) (_ []graph.EdgeID, minimal bool, solves int, _ error) {
	inner := cfg
	inner.Minimize = false
	inner.Progress = nil

	current := slices.Clone(core)
	slices.Sort(current)
	for i := 0; i < len(current); {
		if ctx.Err() != nil {
			return current, false, solves, nil
		}

		trial := slices.Delete(slices.Clone(current), i, i+1)
		allowed := make(map[graph.EdgeID]bool, len(trial))
		for _, eid := range trial {
			allowed[eid] = true
		}

		res, err := newState(b, inner, allowed).run(ctx)
		solves++
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return current, false, solves, nil
			}
			return nil, false, solves, err
		}
		if cfg.Progress != nil {
			cfg.Progress(Event{Kind: EventMinimize, Level: len(current)})
		}

		if !res.Unsat {
			i++
			continue
		}
		// Every edge already proven necessary is in any unsatisfiable
		// subset of trial, so the sorted core keeps them as its prefix.
		current = res.Core
	}
	return current, true, solves, nil
}
