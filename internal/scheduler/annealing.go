package scheduler

import (
	"math"
	"math/rand"
)

// temperatureStrategy is simulated annealing over a single schedule with
// geometric cooling and reheating on stagnation.
type temperatureStrategy struct {
	kit *searchKit

	initial     float64
	minimum     float64
	cooling     float64
	reheat      float64
	window      int
	temperature float64

	current      *Schedule
	currentScore float64
}

func newTemperatureStrategy(kit *searchKit, opts Options) *temperatureStrategy {
	return &temperatureStrategy{
		kit:         kit,
		initial:     opts.InitialTemperature,
		minimum:     opts.MinTemperature,
		cooling:     opts.CoolingRate,
		reheat:      opts.ReheatFactor,
		window:      opts.StagnationWindow,
		temperature: opts.InitialTemperature,
	}
}

func (t *temperatureStrategy) Kind() Kind { return KindTemperature }

func (t *temperatureStrategy) Propose(current *Schedule, rng *rand.Rand) (*Schedule, Move) {
	return t.kit.propose(current, rng)
}

// Accept applies the Metropolis criterion.
func (t *temperatureStrategy) Accept(oldScore, newScore float64, state *SearchState) bool {
	if newScore >= oldScore {
		return true
	}
	if t.temperature <= 0 {
		return false
	}
	return state.Rng.Float64() < math.Exp((newScore-oldScore)/t.temperature)
}

func (t *temperatureStrategy) Step(state *SearchState) *Schedule {
	if t.current == nil {
		t.current = state.Best.Clone()
		t.currentScore = t.kit.score(t.current, state)
	}
	candidate, move := t.Propose(t.current, state.Rng)
	if move.Kind == MoveNone {
		state.Note("temperature: no candidate move, kept current schedule")
		return t.current
	}
	score := t.kit.score(candidate, state)
	if t.Accept(t.currentScore, score, state) {
		t.current, t.currentScore = candidate, score
	}
	t.temperature = math.Max(t.minimum, t.temperature*t.cooling)
	return t.current
}

// Adapt reheats while stagnating and rescores the current schedule under the
// state's conflict pressure.
func (t *temperatureStrategy) Adapt(state *SearchState) {
	if state.Stagnation >= t.window {
		t.temperature = math.Min(t.initial, t.temperature*t.reheat)
	}
	if t.current != nil {
		t.currentScore = t.kit.score(t.current, state)
	}
}
