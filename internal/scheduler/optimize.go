package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RunReport summarises one run of an optimization request.
type RunReport struct {
	Kind       Kind          `json:"kind"`
	Seed       int64         `json:"seed"`
	Score      float64       `json:"score"`
	Conflicts  int           `json:"conflicts"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	StopReason StopReason    `json:"stopReason"`
}

// Outcome is the result of Optimize: the best schedule over all runs with its
// breakdown and statistics. Feasible is false for best-effort schedules that
// still carry missing projects or clashes.
type Outcome struct {
	Schedule   *Schedule     `json:"-"`
	Breakdown  Breakdown     `json:"breakdown"`
	Summary    Summary       `json:"summary"`
	Feasible   bool          `json:"feasible"`
	Algorithm  Kind          `json:"algorithm"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	Plan       PairingPlan   `json:"plan"`
	Runs       []RunReport   `json:"runs"`
	Notes      []string      `json:"notes,omitempty"`
}

// Assignments returns the outcome schedule's assignments.
func (o *Outcome) Assignments() []Assignment {
	if o == nil || o.Schedule == nil {
		return nil
	}
	return o.Schedule.Assignments()
}

// Optimize runs the whole pipeline: strategic pairing, placement, initial
// repair and the configured search runs. Only invalid options are reported as
// errors; problem construction already rejected insufficient input.
func Optimize(ctx context.Context, problem *Problem, opts Options, logger *zap.Logger) (*Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	kind, err := ParseKind(string(opts.Algorithm))
	if err != nil {
		return nil, err
	}
	started := time.Now()

	plan := BuildPairingPlan(WorkloadsFor(problem))
	seed := Place(problem, plan)
	placementConflicts := conflictCount(seed)
	relocated := NewResolver().Repair(seed)
	logger.Info("seed schedule built",
		zap.Int("projects", len(problem.projects)),
		zap.Int("pairs", len(plan.Pairs)),
		zap.Int("placementConflicts", placementConflicts),
		zap.Int("relocated", relocated),
	)

	kinds := []Kind{kind}
	if kind == KindPortfolio {
		kinds = StrategyKinds
	}
	specs := make([]RunSpec, 0, len(kinds)*opts.Restarts)
	for _, k := range kinds {
		for r := 0; r < opts.Restarts; r++ {
			specs = append(specs, RunSpec{Kind: k, Seed: opts.Seed + int64(len(specs)), Options: opts})
		}
	}

	results, best, err := RunParallel(ctx, seed, specs, opts.Workers, logger)
	if err != nil {
		return nil, fmt.Errorf("run strategies: %w", err)
	}
	winner := results[best]

	outcome := &Outcome{
		Schedule:   winner.Best,
		Breakdown:  winner.Breakdown,
		Summary:    winner.Summary,
		Feasible:   winner.Summary.Feasible(),
		Algorithm:  kind,
		Iterations: lo.SumBy(results, func(r Result) int { return r.Iterations }),
		Elapsed:    time.Since(started),
		Plan:       plan,
		Runs: lo.Map(results, func(r Result, _ int) RunReport {
			return RunReport{
				Kind:       r.Kind,
				Seed:       r.Seed,
				Score:      r.Breakdown.Total,
				Conflicts:  r.Summary.Conflicts,
				Iterations: r.Iterations,
				Elapsed:    r.Elapsed,
				StopReason: r.StopReason,
			}
		}),
		Notes: lo.Uniq(lo.FlatMap(results, func(r Result, _ int) []string { return r.Notes })),
	}
	if !outcome.Feasible {
		outcome.Notes = append(outcome.Notes, fmt.Sprintf(
			"best-effort schedule: coverage %.1f%%, %d conflicts", outcome.Summary.CoveragePercent, outcome.Summary.Conflicts))
	}
	for _, note := range outcome.Notes {
		logger.Warn("optimization quality note", zap.String("note", note))
	}
	logger.Info("optimization finished",
		zap.String("algorithm", string(kind)),
		zap.Int("runs", len(results)),
		zap.Float64("score", outcome.Breakdown.Total),
		zap.Bool("feasible", outcome.Feasible),
		zap.Duration("elapsed", outcome.Elapsed),
	)
	return outcome, nil
}
