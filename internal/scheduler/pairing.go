package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// Workload is the planner input: an instructor and the number of projects they
// are responsible for.
type Workload struct {
	InstructorID string `json:"instructorId"`
	Projects     int    `json:"projects"`
}

// Pair groups a high-load instructor with a low-load one. Extra holds the odd
// leftover instructor attached to the first pair.
type Pair struct {
	First  string   `json:"first"`
	Second string   `json:"second,omitempty"`
	Extra  []string `json:"extra,omitempty"`
}

// Participants lists the pair members in placement order.
func (p Pair) Participants() []string {
	members := make([]string, 0, 2+len(p.Extra))
	members = append(members, p.First)
	if p.Second != "" {
		members = append(members, p.Second)
	}
	return append(members, p.Extra...)
}

// PairingPlan is the ordered result of strategic pairing.
type PairingPlan struct {
	Upper []string `json:"upper"`
	Lower []string `json:"lower"`
	Pairs []Pair   `json:"pairs"`
}

// WorkloadsFor builds planner input from the problem's responsible counts, in
// instructor input order.
func WorkloadsFor(problem *Problem) []Workload {
	counts := problem.ResponsibleCounts()
	return lo.Map(problem.instructors, func(in Instructor, _ int) Workload {
		return Workload{InstructorID: in.ID, Projects: counts[in.ID]}
	})
}

// BuildPairingPlan sorts instructors by descending workload (stable on input
// order), splits them into an upper group of N/2 and a lower group of N-N/2 and
// pairs them index-wise. An odd leftover joins the first pair.
func BuildPairingPlan(workloads []Workload) PairingPlan {
	sorted := append([]Workload(nil), workloads...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Projects > sorted[j].Projects
	})

	ids := lo.Map(sorted, func(w Workload, _ int) string { return w.InstructorID })
	split := len(ids) / 2
	plan := PairingPlan{
		Upper: append([]string{}, ids[:split]...),
		Lower: append([]string{}, ids[split:]...),
	}

	for i := range plan.Upper {
		plan.Pairs = append(plan.Pairs, Pair{First: plan.Upper[i], Second: plan.Lower[i]})
	}
	if len(plan.Lower) > len(plan.Upper) {
		leftover := plan.Lower[len(plan.Lower)-1]
		if len(plan.Pairs) == 0 {
			plan.Pairs = append(plan.Pairs, Pair{First: leftover})
		} else {
			plan.Pairs[0].Extra = append(plan.Pairs[0].Extra, leftover)
		}
	}
	return plan
}
