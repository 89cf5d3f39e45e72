// Package driver runs resolution over many units at once. Registry
// construction is single-threaded and must finish before any unit is
// checked; after Seal the registry is immutable and every unit resolves on
// its own goroutine with no locking.
package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/registry"
	"keel/internal/sema"
)

// UnitResult is the outcome of checking one unit.
type UnitResult struct {
	Unit *ast.Unit
	Res  sema.Result
	Bag  *diag.Bag
}

// Options configure a parallel check.
type Options struct {
	// Jobs caps concurrent units; <= 0 uses GOMAXPROCS.
	Jobs int
	// MaxDiagnostics bounds each unit's bag.
	MaxDiagnostics int
	// MaxDepth bounds generic instantiation chains.
	MaxDepth int
}

// CheckUnits resolves every unit against the sealed registry, one goroutine
// per unit. Result order follows the input order regardless of scheduling.
func CheckUnits(ctx context.Context, reg *registry.Registry, units []*ast.Unit, opts Options) ([]UnitResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]UnitResult, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(units), 1)))
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bag := diag.NewBag(opts.MaxDiagnostics)
			res := sema.Check(unit, sema.Options{
				Reporter: diag.BagReporter{Bag: bag},
				Registry: reg,
				MaxDepth: opts.MaxDepth,
			})
			bag.Sort()
			results[i] = UnitResult{Unit: unit, Res: res, Bag: bag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
