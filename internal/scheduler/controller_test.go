package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSchedule(t *testing.T, problem *Problem) *Schedule {
	t.Helper()
	return Place(problem, BuildPairingPlan(WorkloadsFor(problem)))
}

func quickOptions() Options {
	opts := DefaultOptions()
	opts.Iterations = 60
	opts.PopulationSize = 6
	opts.NeighborhoodSize = 4
	opts.AdaptEvery = 5
	opts.StagnationWindow = 5
	return opts
}

func TestControllerTraceIsMonotonic(t *testing.T) {
	problem := buildProblem(t, []int{4, 3, 2, 2, 1}, 2, 5)
	seed := seedSchedule(t, problem)
	opts := quickOptions()

	for _, kind := range StrategyKinds {
		t.Run(string(kind), func(t *testing.T) {
			evaluator := NewEvaluator(opts.Weights)
			strategy, err := NewStrategy(kind, opts, evaluator)
			require.NoError(t, err)
			controller := NewController(ControllerConfig{Evaluator: evaluator, Seed: 11, AdaptEvery: opts.AdaptEvery})

			result := controller.Run(context.Background(), seed, strategy, opts.Budget())

			require.NotNil(t, result.Best)
			assert.Equal(t, kind, result.Kind)
			assert.Equal(t, opts.Iterations, result.Iterations)
			assert.Equal(t, StopIterations, result.StopReason)
			require.Len(t, result.Trace, opts.Iterations+1)
			for i := 1; i < len(result.Trace); i++ {
				assert.GreaterOrEqual(t, result.Trace[i], result.Trace[i-1])
			}
			assert.InDelta(t, result.Trace[len(result.Trace)-1], result.Breakdown.Total, 1e-9)
			assert.Equal(t, evaluator.Score(result.Best), result.Breakdown)
			requireFullCoverage(t, result.Best)
		})
	}
}

func TestControllerLeavesSeedUntouched(t *testing.T) {
	problem := buildProblem(t, []int{3, 1, 1, 1}, 2, 6)
	seed := seedSchedule(t, problem)
	before := seed.Assignments()
	opts := quickOptions()

	strategy, err := NewStrategy(KindTemperature, opts, NewEvaluator(opts.Weights))
	require.NoError(t, err)
	NewController(ControllerConfig{Seed: 1}).Run(context.Background(), seed, strategy, opts.Budget())

	assert.Equal(t, before, seed.Assignments())
}

func TestControllerStopsOnCancelledContext(t *testing.T) {
	problem := buildProblem(t, []int{2, 1}, 1, 4)
	seed := seedSchedule(t, problem)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategy, err := NewStrategy(KindMemory, quickOptions(), NewEvaluator(DefaultWeights()))
	require.NoError(t, err)
	result := NewController(ControllerConfig{Seed: 1}).Run(ctx, seed, strategy, Budget{MaxIterations: 100})

	assert.Equal(t, StopCancelled, result.StopReason)
	assert.Zero(t, result.Iterations)
	require.NotNil(t, result.Best)
	requireFullCoverage(t, result.Best)
}

func TestControllerStopsWhenStalled(t *testing.T) {
	problem := buildProblem(t, []int{1}, 1, 1)
	seed := seedSchedule(t, problem)

	strategy, err := NewStrategy(KindTemperature, quickOptions(), NewEvaluator(DefaultWeights()))
	require.NoError(t, err)
	result := NewController(ControllerConfig{Seed: 1}).Run(context.Background(), seed, strategy, Budget{MaxIterations: 100, StallLimit: 5})

	assert.Equal(t, StopStalled, result.StopReason)
	assert.Equal(t, 5, result.Iterations)
	assert.NotEmpty(t, result.Notes, "a single-cell problem has no candidate moves")
}

func TestControllerHonoursDeadline(t *testing.T) {
	problem := buildProblem(t, []int{2, 2}, 2, 4)
	seed := seedSchedule(t, problem)

	strategy, err := NewStrategy(KindPopulation, quickOptions(), NewEvaluator(DefaultWeights()))
	require.NoError(t, err)
	controller := NewController(ControllerConfig{Seed: 1})
	base := time.Now()
	ticks := 0
	controller.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}

	result := controller.Run(context.Background(), seed, strategy, Budget{MaxDuration: 3 * time.Second})

	assert.Equal(t, StopDeadline, result.StopReason)
	assert.Greater(t, result.Iterations, 0)
}

func TestControllerIsReproducibleForSeed(t *testing.T) {
	problem := buildProblem(t, []int{3, 2, 2, 1}, 2, 5)
	seed := seedSchedule(t, problem)
	opts := quickOptions()

	run := func() Result {
		strategy, err := NewStrategy(KindMemory, opts, NewEvaluator(opts.Weights))
		require.NoError(t, err)
		return NewController(ControllerConfig{Seed: 42, AdaptEvery: opts.AdaptEvery}).Run(context.Background(), seed, strategy, opts.Budget())
	}

	first, second := run(), run()
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Best.Assignments(), second.Best.Assignments())
}

func TestTemperatureStrategyAcceptance(t *testing.T) {
	opts := quickOptions()
	strategy := newTemperatureStrategy(newSearchKit(NewEvaluator(opts.Weights), true), opts)
	state := &SearchState{}

	assert.True(t, strategy.Accept(10, 12, state))

	strategy.temperature = 0
	assert.False(t, strategy.Accept(10, 9, state))
}

func TestTemperatureStrategyReheatsWhenStagnating(t *testing.T) {
	opts := quickOptions()
	strategy := newTemperatureStrategy(newSearchKit(NewEvaluator(opts.Weights), true), opts)
	strategy.temperature = 1

	strategy.Adapt(&SearchState{Stagnation: opts.StagnationWindow})
	assert.InDelta(t, 2.0, strategy.temperature, 1e-9)

	strategy.temperature = opts.InitialTemperature
	strategy.Adapt(&SearchState{Stagnation: opts.StagnationWindow})
	assert.InDelta(t, opts.InitialTemperature, strategy.temperature, 1e-9, "reheating never exceeds the initial temperature")
}

func TestPopulationStrategyAdaptsMutationRateWithinBounds(t *testing.T) {
	opts := quickOptions()
	strategy := newPopulationStrategy(newSearchKit(NewEvaluator(opts.Weights), true), opts)

	for i := 0; i < 20; i++ {
		strategy.Adapt(&SearchState{Stagnation: opts.StagnationWindow})
	}
	assert.InDelta(t, opts.MutationRateMax, strategy.rate, 1e-9)

	for i := 0; i < 100; i++ {
		strategy.Adapt(&SearchState{Improvements: 1})
	}
	assert.InDelta(t, opts.MutationRateMin, strategy.rate, 1e-9)
}

func TestMemoryStrategyPenalisesTabuMoves(t *testing.T) {
	opts := quickOptions()
	strategy := newMemoryStrategy(newSearchKit(NewEvaluator(opts.Weights), true), opts)
	strategy.bestSeen = 100
	move := Move{Kind: MoveRelocate, A: 0, B: -1, ToRoom: "r1", ToSlot: "s2"}

	free := strategy.effective(90, move, 0)
	strategy.tabu[move.Key()] = opts.TabuTenure
	tabu := strategy.effective(90, move, 0)
	assert.InDelta(t, opts.TabuPenalty, free-tabu, 1e-9)

	aspiring := strategy.effective(110, move, 0)
	assert.InDelta(t, 110-opts.TabuPenalty+opts.AspirationWeight*10, aspiring, 1e-9)

	strategy.expire(opts.TabuTenure)
	assert.Empty(t, strategy.tabu)
}
