package scheduler

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopIterations StopReason = "iterations"
	StopDeadline   StopReason = "deadline"
	StopStalled    StopReason = "stalled"
	StopCancelled  StopReason = "cancelled"
)

const (
	defaultIterations = 500
	maxPressure       = 8.0
)

// Budget bounds one run. Zero fields are unlimited; with no iteration or time
// limit the run is capped at 500 iterations.
type Budget struct {
	MaxIterations int
	MaxDuration   time.Duration
	StallLimit    int
}

// Result is the outcome of one controller run.
type Result struct {
	Kind       Kind          `json:"kind"`
	Seed       int64         `json:"seed"`
	Best       *Schedule     `json:"-"`
	Breakdown  Breakdown     `json:"breakdown"`
	Summary    Summary       `json:"summary"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	StopReason StopReason    `json:"stopReason"`
	Trace      []float64     `json:"-"`
	Notes      []string      `json:"notes,omitempty"`
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	Evaluator  *Evaluator
	Seed       int64
	AdaptEvery int
	Logger     *zap.Logger
}

// Controller drives one strategy run. It owns the run's random generator.
type Controller struct {
	evaluator  *Evaluator
	rng        *rand.Rand
	seed       int64
	adaptEvery int
	logger     *zap.Logger
	now        func() time.Time
}

// NewController builds a controller with its own seeded generator.
func NewController(cfg ControllerConfig) *Controller {
	evaluator := cfg.Evaluator
	if evaluator == nil {
		evaluator = NewEvaluator(DefaultWeights())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		evaluator:  evaluator,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		seed:       cfg.Seed,
		adaptEvery: cfg.AdaptEvery,
		logger:     logger,
		now:        time.Now,
	}
}

// Run searches from the seed schedule until the budget is spent, the run stalls
// or ctx is done. The seed is not modified. The best schedule found is always
// returned; the best score never decreases across the trace.
func (c *Controller) Run(ctx context.Context, seed *Schedule, strategy Strategy, budget Budget) Result {
	if budget.MaxIterations <= 0 && budget.MaxDuration <= 0 {
		budget.MaxIterations = defaultIterations
	}
	start := c.now()

	state := &SearchState{
		Rng:              c.rng,
		Best:             seed.Clone(),
		ConflictPressure: 1,
	}
	breakdown := c.evaluator.Score(state.Best)
	state.BestScore = breakdown.Total
	trace := make([]float64, 0, max(budget.MaxIterations, 0)+1)
	trace = append(trace, state.BestScore)

	c.logger.Debug("optimization run started",
		zap.String("strategy", string(strategy.Kind())),
		zap.Int64("seed", c.seed),
		zap.Float64("initialScore", state.BestScore),
	)

	var reason StopReason
	iterations := 0
	for {
		if reason = c.stop(ctx, budget, iterations, start, state); reason != "" {
			break
		}
		state.Iteration = iterations
		incumbent := strategy.Step(state)
		iterations++

		if incumbent != nil {
			scored := c.evaluator.Score(incumbent)
			if scored.Total > state.BestScore {
				state.Best = incumbent.Clone()
				state.BestScore = scored.Total
				breakdown = scored
				state.Stagnation = 0
				state.Improvements++
			} else {
				state.Stagnation++
			}
		} else {
			state.Note("%s: step returned no schedule, kept best-known", strategy.Kind())
			state.Stagnation++
		}
		trace = append(trace, state.BestScore)

		if c.adaptEvery > 0 && iterations%c.adaptEvery == 0 {
			c.adjustPressure(state)
			strategy.Adapt(state)
			state.Improvements = 0
		}
	}

	result := Result{
		Kind:       strategy.Kind(),
		Seed:       c.seed,
		Best:       state.Best,
		Breakdown:  breakdown,
		Summary:    Summarize(state.Best),
		Iterations: iterations,
		Elapsed:    c.now().Sub(start),
		StopReason: reason,
		Trace:      trace,
		Notes:      state.Notes(),
	}
	c.logger.Debug("optimization run finished",
		zap.String("strategy", string(result.Kind)),
		zap.Int("iterations", result.Iterations),
		zap.String("stopReason", string(result.StopReason)),
		zap.Float64("bestScore", result.Breakdown.Total),
		zap.Int("conflicts", result.Summary.Conflicts),
	)
	return result
}

func (c *Controller) stop(ctx context.Context, budget Budget, iterations int, start time.Time, state *SearchState) StopReason {
	switch {
	case ctx.Err() != nil:
		return StopCancelled
	case budget.MaxIterations > 0 && iterations >= budget.MaxIterations:
		return StopIterations
	case budget.MaxDuration > 0 && c.now().Sub(start) >= budget.MaxDuration:
		return StopDeadline
	case budget.StallLimit > 0 && state.Stagnation >= budget.StallLimit:
		return StopStalled
	}
	return ""
}

// adjustPressure raises the search evaluator's conflict weight while the best
// schedule still clashes and relaxes it once the best is clash-free.
func (c *Controller) adjustPressure(state *SearchState) {
	if conflictCount(state.Best) > 0 {
		state.ConflictPressure = math.Min(maxPressure, state.ConflictPressure*1.5)
		return
	}
	state.ConflictPressure = math.Max(1, state.ConflictPressure/1.5)
}
