package scheduler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunSpec describes one independent run of the parallel runner.
type RunSpec struct {
	Kind    Kind
	Seed    int64
	Options Options
}

// RunParallel executes the runs with at most workers in flight. Runs share only
// the immutable problem: each gets its own strategy, its own generator and a
// private clone of the seed schedule. Results keep the order of specs; best is
// the index of the highest total.
func RunParallel(ctx context.Context, seed *Schedule, specs []RunSpec, workers int, logger *zap.Logger) ([]Result, int, error) {
	if len(specs) == 0 {
		return nil, -1, errors.New("no runs requested")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(specs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			evaluator := NewEvaluator(spec.Options.Weights)
			strategy, err := NewStrategy(spec.Kind, spec.Options, evaluator)
			if err != nil {
				return err
			}
			controller := NewController(ControllerConfig{
				Evaluator:  evaluator,
				Seed:       spec.Seed,
				AdaptEvery: spec.Options.AdaptEvery,
				Logger:     logger,
			})
			results[i] = controller.Run(ctx, seed.Clone(), strategy, spec.Options.Budget())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, -1, err
	}

	best := 0
	for i := range results {
		if results[i].Breakdown.Total > results[best].Breakdown.Total {
			best = i
		}
	}
	return results, best, nil
}
