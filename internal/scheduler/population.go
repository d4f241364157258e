package scheduler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mroth/weightedrand/v2"
)

type individual struct {
	schedule *Schedule
	score    float64
}

// populationStrategy is a generational genetic search. Parents are drawn by
// roulette selection on shifted fitness, children inherit whole instructor
// blocks from either parent and mutate through the shared move operators.
type populationStrategy struct {
	kit *searchKit

	size      int
	elites    int
	crossover float64
	rate      float64
	rateMin   float64
	rateMax   float64
	window    int

	population []individual
}

func newPopulationStrategy(kit *searchKit, opts Options) *populationStrategy {
	return &populationStrategy{
		kit:       kit,
		size:      opts.PopulationSize,
		elites:    opts.EliteCount,
		crossover: opts.CrossoverRate,
		rate:      opts.MutationRate,
		rateMin:   opts.MutationRateMin,
		rateMax:   opts.MutationRateMax,
		window:    opts.StagnationWindow,
	}
}

func (p *populationStrategy) Kind() Kind { return KindPopulation }

func (p *populationStrategy) Propose(current *Schedule, rng *rand.Rand) (*Schedule, Move) {
	return p.kit.propose(current, rng)
}

// Accept admits a child into the next generation when it is at least as fit as
// the individual it displaces.
func (p *populationStrategy) Accept(oldScore, newScore float64, _ *SearchState) bool {
	return newScore >= oldScore
}

func (p *populationStrategy) seed(state *SearchState) {
	base := state.Best.Clone()
	p.population = append(p.population[:0], individual{base, p.kit.score(base, state)})
	for len(p.population) < p.size {
		variant := base
		for moves := 1 + state.Rng.Intn(5); moves > 0; moves-- {
			variant, _ = p.Propose(variant, state.Rng)
		}
		if variant == base {
			variant = base.Clone()
		}
		p.population = append(p.population, individual{variant, p.kit.score(variant, state)})
	}
	p.sort()
}

func (p *populationStrategy) sort() {
	sort.SliceStable(p.population, func(i, j int) bool {
		return p.population[i].score > p.population[j].score
	})
}

func (p *populationStrategy) Step(state *SearchState) *Schedule {
	if len(p.population) == 0 {
		if state.Iteration > 0 {
			state.Note("population: empty population, reseeded from best-known schedule")
		}
		p.seed(state)
	}

	chooser := p.chooser()
	children := make([]individual, 0, p.size)
	for len(children) < p.size-p.elites {
		var first, second *Schedule
		if chooser != nil {
			first, second = chooser.PickSource(state.Rng), chooser.PickSource(state.Rng)
		} else {
			first = p.population[state.Rng.Intn(len(p.population))].schedule
			second = p.population[state.Rng.Intn(len(p.population))].schedule
		}

		child := first
		if first != second && state.Rng.Float64() < p.crossover {
			child = crossover(first, second, state.Rng)
		}
		if state.Rng.Float64() < p.rate {
			child, _ = p.Propose(child, state.Rng)
		}
		if child == first {
			child = first.Clone()
		}
		children = append(children, individual{child, p.kit.score(child, state)})
	}
	p.survive(children)
	return p.population[0].schedule
}

// survive builds the next generation: elites first, then children that beat
// the weakest previous individual, then the best remaining previous ones.
func (p *populationStrategy) survive(children []individual) {
	sort.SliceStable(children, func(i, j int) bool { return children[i].score > children[j].score })
	previous := p.population
	worst := previous[len(previous)-1].score

	next := make([]individual, 0, p.size)
	next = append(next, previous[:min(p.elites, len(previous))]...)
	for _, child := range children {
		if len(next) == p.size {
			break
		}
		if p.Accept(worst, child.score, nil) {
			next = append(next, child)
		}
	}
	for _, ind := range previous[min(p.elites, len(previous)):] {
		if len(next) == p.size {
			break
		}
		next = append(next, ind)
	}
	p.population = next
	p.sort()
}

// chooser builds a roulette wheel over the population. Scores are shifted so
// the weakest individual keeps a small positive weight.
func (p *populationStrategy) chooser() *weightedrand.Chooser[*Schedule, int64] {
	lowest, highest := math.Inf(1), math.Inf(-1)
	for _, ind := range p.population {
		lowest = math.Min(lowest, ind.score)
		highest = math.Max(highest, ind.score)
	}
	spread := highest - lowest
	choices := make([]weightedrand.Choice[*Schedule, int64], 0, len(p.population))
	for _, ind := range p.population {
		weight := int64(1)
		if spread > 0 {
			weight += int64((ind.score - lowest) / spread * 1000)
		}
		choices = append(choices, weightedrand.NewChoice(ind.schedule, weight))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil
	}
	return chooser
}

// Adapt raises the mutation rate while stagnating and lowers it while
// improving, within its bounds.
func (p *populationStrategy) Adapt(state *SearchState) {
	switch {
	case state.Stagnation >= p.window:
		p.rate = math.Min(p.rateMax, p.rate*1.5)
	case state.Improvements > 0:
		p.rate = math.Max(p.rateMin, p.rate*0.9)
	}
	for i := range p.population {
		p.population[i].score = p.kit.score(p.population[i].schedule, state)
	}
	p.sort()
}

// crossover copies first and takes the assignments of a random subset of
// responsible instructors from second, so each instructor block comes whole
// from one parent.
func crossover(first, second *Schedule, rng *rand.Rand) *Schedule {
	child := first.Clone()
	donors := make(map[string]bool)
	for _, in := range first.problem.instructors {
		if rng.Intn(2) == 0 {
			donors[in.ID] = true
		}
	}
	for _, project := range first.problem.projects {
		if !donors[project.ResponsibleID] {
			continue
		}
		donor, ok := second.ForProject(project.ID)
		if !ok {
			continue
		}
		for _, pos := range child.PositionsOf(project.ID) {
			child.Replace(pos, donor)
		}
	}
	return child
}
