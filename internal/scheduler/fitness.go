package scheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidWeights is returned for negative fitness weights.
var ErrInvalidWeights = errors.New("invalid fitness weights")

// Component names a soft-constraint term of the fitness function.
type Component string

const (
	ComponentCoverage        Component = "coverage"
	ComponentConsecutive     Component = "consecutive"
	ComponentLoadBalance     Component = "load_balance"
	ComponentClassroomSwitch Component = "classroom_switch"
	ComponentGap             Component = "gap"
	ComponentConflict        Component = "conflict"
	ComponentEarlySlot       Component = "early_slot"
)

// Components lists every fitness component in reporting order.
var Components = []Component{
	ComponentCoverage,
	ComponentConsecutive,
	ComponentLoadBalance,
	ComponentClassroomSwitch,
	ComponentGap,
	ComponentConflict,
	ComponentEarlySlot,
}

// Weights tunes the fitness function. ResponsibleWeight and JuryWeight weigh the
// two roles inside the load-balance term.
type Weights struct {
	Coverage          float64 `json:"coverage"`
	Consecutive       float64 `json:"consecutive"`
	LoadBalance       float64 `json:"loadBalance"`
	ClassroomSwitch   float64 `json:"classroomSwitch"`
	Gap               float64 `json:"gap"`
	Conflict          float64 `json:"conflict"`
	EarlySlot         float64 `json:"earlySlot"`
	ResponsibleWeight float64 `json:"responsibleWeight"`
	JuryWeight        float64 `json:"juryWeight"`
}

// DefaultWeights returns the documented default weights.
func DefaultWeights() Weights {
	return Weights{
		Coverage:          1000,
		Consecutive:       10,
		LoadBalance:       5,
		ClassroomSwitch:   20,
		Gap:               10,
		Conflict:          500,
		EarlySlot:         5,
		ResponsibleWeight: 2,
		JuryWeight:        1,
	}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	values := map[string]float64{
		"coverage":          w.Coverage,
		"consecutive":       w.Consecutive,
		"loadBalance":       w.LoadBalance,
		"classroomSwitch":   w.ClassroomSwitch,
		"gap":               w.Gap,
		"conflict":          w.Conflict,
		"earlySlot":         w.EarlySlot,
		"responsibleWeight": w.ResponsibleWeight,
		"juryWeight":        w.JuryWeight,
	}
	for _, name := range []string{"coverage", "consecutive", "loadBalance", "classroomSwitch", "gap", "conflict", "earlySlot", "responsibleWeight", "juryWeight"} {
		if values[name] < 0 {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidWeights, name)
		}
	}
	return nil
}

func (w Weights) of(c Component) float64 {
	switch c {
	case ComponentCoverage:
		return w.Coverage
	case ComponentConsecutive:
		return w.Consecutive
	case ComponentLoadBalance:
		return w.LoadBalance
	case ComponentClassroomSwitch:
		return w.ClassroomSwitch
	case ComponentGap:
		return w.Gap
	case ComponentConflict:
		return w.Conflict
	case ComponentEarlySlot:
		return w.EarlySlot
	}
	return 0
}

// Breakdown is the scored view of a schedule. Raw holds the unweighted
// component values, Weighted their contributions to Total.
type Breakdown struct {
	Raw      map[Component]float64 `json:"raw"`
	Weighted map[Component]float64 `json:"weighted"`
	Total    float64               `json:"total"`
}

// Evaluator scores schedules. It holds only immutable configuration and is safe
// for concurrent use.
type Evaluator struct {
	weights Weights
}

// NewEvaluator builds an evaluator with the given weights.
func NewEvaluator(weights Weights) *Evaluator {
	return &Evaluator{weights: weights}
}

// Weights returns the evaluator's weights.
func (e *Evaluator) Weights() Weights { return e.weights }

// WithWeights returns a new evaluator using other weights.
func (e *Evaluator) WithWeights(weights Weights) *Evaluator {
	return &Evaluator{weights: weights}
}

// Score computes the fitness breakdown of the schedule. Higher is better.
func (e *Evaluator) Score(s *Schedule) Breakdown {
	raw := map[Component]float64{
		ComponentCoverage:        coverageRatio(s),
		ComponentConsecutive:     consecutiveCredit(s),
		ComponentLoadBalance:     -loadVariance(s, e.weights.ResponsibleWeight, e.weights.JuryWeight),
		ComponentClassroomSwitch: -float64(classroomSwitches(s)),
		ComponentGap:             -float64(gapCount(s)),
		ComponentConflict:        -float64(conflictCount(s)),
		ComponentEarlySlot:       earliness(s),
	}
	b := Breakdown{Raw: raw, Weighted: make(map[Component]float64, len(raw))}
	for _, c := range Components {
		v := raw[c] * e.weights.of(c)
		b.Weighted[c] = v
		b.Total += v
	}
	return b
}

// coverageRatio is the fraction of projects with exactly one assignment.
// Assignments of unknown projects count against coverage as duplicates.
func coverageRatio(s *Schedule) float64 {
	total := len(s.problem.projects)
	if total == 0 {
		return 1
	}
	exact := 0
	for _, project := range s.problem.projects {
		if len(s.byProject[project.ID]) == 1 {
			exact++
		}
	}
	for id, positions := range s.byProject {
		if _, ok := s.problem.projectIndex[id]; !ok {
			exact -= len(positions)
		}
	}
	if exact < 0 {
		exact = 0
	}
	return float64(exact) / float64(total)
}

// consecutiveCredit rewards time-ordered neighbours of one instructor sitting in
// the same classroom: full credit when adjacent, half credit otherwise.
func consecutiveCredit(s *Schedule) float64 {
	var credit float64
	for _, positions := range s.byInstructor() {
		for i := 1; i < len(positions); i++ {
			prev := s.assignments[positions[i-1]]
			cur := s.assignments[positions[i]]
			if prev.ClassroomID != cur.ClassroomID {
				continue
			}
			if s.problem.adjacentSlots(prev.TimeslotID, cur.TimeslotID) {
				credit++
			} else {
				credit += 0.5
			}
		}
	}
	return credit
}

// consecutivePairs counts time-ordered neighbour pairs per instructor.
func consecutivePairs(s *Schedule) (pairs, adjacent int) {
	for _, positions := range s.byInstructor() {
		for i := 1; i < len(positions); i++ {
			pairs++
			prev := s.assignments[positions[i-1]]
			cur := s.assignments[positions[i]]
			if prev.ClassroomID == cur.ClassroomID && s.problem.adjacentSlots(prev.TimeslotID, cur.TimeslotID) {
				adjacent++
			}
		}
	}
	return pairs, adjacent
}

// loadVariance iterates instructors in input order so the float sum is
// reproducible.
func loadVariance(s *Schedule, responsibleWeight, juryWeight float64) float64 {
	loads := s.Loads()
	if len(loads) == 0 {
		return 0
	}
	values := make([]float64, 0, len(loads))
	var sum float64
	for _, in := range s.problem.instructors {
		l := loads[in.ID]
		v := responsibleWeight*float64(l.Responsible) + juryWeight*float64(l.Jury)
		values = append(values, v)
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return variance / float64(len(values))
}

func classroomSwitches(s *Schedule) int {
	rooms := make(map[string]map[string]bool)
	for _, a := range s.assignments {
		for _, in := range a.Instructors {
			if rooms[in] == nil {
				rooms[in] = make(map[string]bool)
			}
			rooms[in][a.ClassroomID] = true
		}
	}
	switches := 0
	for _, set := range rooms {
		switches += len(set) - 1
	}
	return switches
}

// gapCount sums the defined slots lying between consecutive assignments of one
// instructor inside the same classroom.
func gapCount(s *Schedule) int {
	gaps := 0
	for _, positions := range s.byInstructor() {
		last := make(map[string]string)
		for _, pos := range positions {
			a := s.assignments[pos]
			if prev, ok := last[a.ClassroomID]; ok {
				gaps += s.problem.slotsBetween(prev, a.TimeslotID)
			}
			last[a.ClassroomID] = a.TimeslotID
		}
	}
	return gaps
}

// conflictCount counts surplus occupants of every instructor×slot and
// classroom×slot key.
func conflictCount(s *Schedule) int {
	count := 0
	for _, positions := range s.byBusy {
		if len(positions) > 1 {
			count += len(positions) - 1
		}
	}
	for _, positions := range s.byCell {
		if len(positions) > 1 {
			count += len(positions) - 1
		}
	}
	return count
}

func earliness(s *Schedule) float64 {
	if len(s.assignments) == 0 {
		return 0
	}
	slots := len(s.problem.timeslots)
	if slots <= 1 {
		return 1
	}
	var sum float64
	for _, a := range s.assignments {
		pos := s.problem.slotPosition(a.TimeslotID)
		if pos >= slots {
			continue
		}
		sum += 1 - float64(pos)/float64(slots-1)
	}
	return sum / float64(len(s.assignments))
}
