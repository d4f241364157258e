package scheduler

import (
	"fmt"
	"math/rand"
	"strings"
)

// Kind selects a search strategy.
type Kind string

const (
	KindPopulation  Kind = "population"
	KindTemperature Kind = "temperature"
	KindMemory      Kind = "memory"
	// KindPortfolio runs every strategy and keeps the best result.
	KindPortfolio Kind = "portfolio"
)

// StrategyKinds lists the concrete strategies.
var StrategyKinds = []Kind{KindPopulation, KindTemperature, KindMemory}

// ParseKind maps an algorithm name, including the genetic/annealing/tabu
// aliases, to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "population", "genetic", "ga":
		return KindPopulation, nil
	case "temperature", "annealing", "sa":
		return KindTemperature, nil
	case "memory", "tabu", "ts":
		return KindMemory, nil
	case "portfolio", "all":
		return KindPortfolio, nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrInvalidOptions, name)
}

// Strategy is a move-based metaheuristic driven by the Controller. A strategy
// instance belongs to one run and is not safe for concurrent use.
type Strategy interface {
	Kind() Kind
	// Propose returns a modified copy of current and the move applied.
	Propose(current *Schedule, rng *rand.Rand) (*Schedule, Move)
	// Accept decides on a candidate from the scalar fitness delta.
	Accept(oldScore, newScore float64, state *SearchState) bool
	// Step performs one iteration and returns the incumbent.
	Step(state *SearchState) *Schedule
	// Adapt updates the strategy's adaptive parameters.
	Adapt(state *SearchState)
}

// SearchState is the run state shared between the Controller and a strategy.
type SearchState struct {
	Rng       *rand.Rand
	Iteration int

	Best      *Schedule
	BestScore float64

	// Stagnation counts iterations since the best score last improved.
	Stagnation int
	// Improvements counts improvements since the last Adapt call.
	Improvements int
	// ConflictPressure multiplies the conflict weight of the search evaluator.
	ConflictPressure float64

	notes []string
}

// Note records a quality note once.
func (st *SearchState) Note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for _, existing := range st.notes {
		if existing == msg {
			return
		}
	}
	st.notes = append(st.notes, msg)
}

// Notes returns the recorded quality notes.
func (st *SearchState) Notes() []string {
	return append([]string(nil), st.notes...)
}

// searchKit bundles what every strategy shares: scoring through the evaluator,
// the move operators and post-move repair.
type searchKit struct {
	evaluator       *Evaluator
	resolver        *Resolver
	resolveEachMove bool

	pressure  float64
	pressured *Evaluator
}

func newSearchKit(evaluator *Evaluator, resolveEachMove bool) *searchKit {
	return &searchKit{
		evaluator:       evaluator,
		resolver:        &Resolver{MaxPasses: 1},
		resolveEachMove: resolveEachMove,
	}
}

// score evaluates with the conflict weight scaled by the state's pressure.
func (k *searchKit) score(s *Schedule, state *SearchState) float64 {
	pressure := 1.0
	if state != nil && state.ConflictPressure > 0 {
		pressure = state.ConflictPressure
	}
	if pressure == 1 {
		return k.evaluator.Score(s).Total
	}
	if k.pressured == nil || k.pressure != pressure {
		w := k.evaluator.Weights()
		w.Conflict *= pressure
		k.pressured = k.evaluator.WithWeights(w)
		k.pressure = pressure
	}
	return k.pressured.Score(s).Total
}

// propose clones current, applies a random move and optionally repairs clashes
// the move introduced.
func (k *searchKit) propose(current *Schedule, rng *rand.Rand) (*Schedule, Move) {
	move := RandomMove(current, rng)
	if move.Kind == MoveNone {
		return current, move
	}
	next := current.Clone()
	move.Apply(next)
	if k.resolveEachMove && conflictCount(next) > 0 {
		k.resolver.Resolve(next, Detect(next))
	}
	return next, move
}

// NewStrategy builds a fresh strategy instance for one run.
func NewStrategy(kind Kind, opts Options, evaluator *Evaluator) (Strategy, error) {
	kit := newSearchKit(evaluator, opts.ResolveEachMove)
	switch kind {
	case KindPopulation:
		return newPopulationStrategy(kit, opts), nil
	case KindTemperature:
		return newTemperatureStrategy(kit, opts), nil
	case KindMemory:
		return newMemoryStrategy(kit, opts), nil
	}
	return nil, fmt.Errorf("%w: no strategy for %q", ErrInvalidOptions, kind)
}
