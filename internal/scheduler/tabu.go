package scheduler

import (
	"math"
	"math/rand"
)

// memoryStrategy is tabu search: each step samples a neighbourhood and moves to
// the candidate with the best effective score. Reverse keys of accepted moves
// stay tabu for the tenure; tabu candidates are penalised rather than banned and
// regain credit through a continuous aspiration term.
type memoryStrategy struct {
	kit *searchKit

	baseTenure int
	tenure     int
	neighbors  int
	penalty    float64
	aspiration float64
	window     int

	tabu map[string]int // key -> iteration at which it expires

	current      *Schedule
	currentScore float64
	bestSeen     float64
}

func newMemoryStrategy(kit *searchKit, opts Options) *memoryStrategy {
	return &memoryStrategy{
		kit:        kit,
		baseTenure: opts.TabuTenure,
		tenure:     opts.TabuTenure,
		neighbors:  opts.NeighborhoodSize,
		penalty:    opts.TabuPenalty,
		aspiration: opts.AspirationWeight,
		window:     opts.StagnationWindow,
		tabu:       make(map[string]int),
	}
}

func (m *memoryStrategy) Kind() Kind { return KindMemory }

func (m *memoryStrategy) Propose(current *Schedule, rng *rand.Rand) (*Schedule, Move) {
	return m.kit.propose(current, rng)
}

// Accept takes improving candidates and, while the search stagnates, the best
// non-improving one so the walk can leave a local optimum.
func (m *memoryStrategy) Accept(oldScore, newScore float64, state *SearchState) bool {
	if math.IsInf(newScore, -1) {
		return false
	}
	return newScore > oldScore || state.Stagnation > 0
}

// tabuness is the remaining fraction of the key's tenure, 0 when not tabu.
func (m *memoryStrategy) tabuness(key string, iteration int) float64 {
	expires, ok := m.tabu[key]
	if !ok || expires <= iteration {
		return 0
	}
	return math.Min(1, float64(expires-iteration)/float64(m.tenure))
}

func (m *memoryStrategy) effective(score float64, move Move, iteration int) float64 {
	return score -
		m.penalty*m.tabuness(move.Key(), iteration) +
		m.aspiration*math.Max(0, score-m.bestSeen)
}

func (m *memoryStrategy) Step(state *SearchState) *Schedule {
	if m.current == nil {
		m.current = state.Best.Clone()
		m.currentScore = m.kit.score(m.current, state)
		m.bestSeen = m.currentScore
	}
	m.expire(state.Iteration)

	var (
		bestCandidate *Schedule
		bestMove      Move
		bestScore     float64
		bestEffective = math.Inf(-1)
	)
	for i := 0; i < m.neighbors; i++ {
		candidate, move := m.Propose(m.current, state.Rng)
		if move.Kind == MoveNone {
			continue
		}
		score := m.kit.score(candidate, state)
		if eff := m.effective(score, move, state.Iteration); eff > bestEffective {
			bestCandidate, bestMove, bestScore, bestEffective = candidate, move, score, eff
		}
	}
	if bestCandidate == nil {
		state.Note("memory: empty neighbourhood, kept current schedule")
		return m.current
	}

	if m.Accept(m.effective(m.currentScore, Move{}, state.Iteration), bestEffective, state) {
		m.current, m.currentScore = bestCandidate, bestScore
		m.tabu[bestMove.ReverseKey()] = state.Iteration + m.tenure
		if bestScore > m.bestSeen {
			m.bestSeen = bestScore
		}
	}
	return m.current
}

func (m *memoryStrategy) expire(iteration int) {
	for key, expires := range m.tabu {
		if expires <= iteration {
			delete(m.tabu, key)
		}
	}
}

// Adapt lengthens the tenure while stagnating and shortens it back towards the
// base while improving.
func (m *memoryStrategy) Adapt(state *SearchState) {
	switch {
	case state.Stagnation >= m.window:
		m.tenure = min(m.tenure+2, 3*m.baseTenure)
	case state.Improvements > 0:
		m.tenure = max(m.tenure-1, m.baseTenure)
	}
	if m.current != nil {
		m.currentScore = m.kit.score(m.current, state)
		m.bestSeen = math.Max(m.bestSeen, m.currentScore)
	}
}
