package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// Summary holds the reporting statistics of a schedule.
type Summary struct {
	Projects          int      `json:"projects"`
	Assignments       int      `json:"assignments"`
	CoveragePercent   float64  `json:"coveragePercent"`
	Conflicts         int      `json:"conflicts"`
	ConsecutivePct    float64  `json:"consecutivePercent"`
	ClassroomSwitches int      `json:"classroomSwitches"`
	Gaps              int      `json:"gaps"`
	MissingProjects   []string `json:"missingProjects,omitempty"`
	DuplicateProjects []string `json:"duplicateProjects,omitempty"`
}

// Feasible reports whether every project is covered once and nothing clashes.
func (s Summary) Feasible() bool {
	return s.CoveragePercent >= 100 && s.Conflicts == 0 && len(s.DuplicateProjects) == 0
}

// Summarize computes the reporting statistics of a schedule.
func Summarize(s *Schedule) Summary {
	projects := s.problem.projects
	missing := lo.FilterMap(projects, func(p Project, _ int) (string, bool) {
		return p.ID, len(s.byProject[p.ID]) == 0
	})
	duplicates := make([]string, 0)
	for id, positions := range s.byProject {
		if len(positions) > 1 {
			duplicates = append(duplicates, id)
		}
	}
	sort.Strings(duplicates)

	pairs, adjacent := consecutivePairs(s)
	consecutive := 100.0
	if pairs > 0 {
		consecutive = float64(adjacent) / float64(pairs) * 100
	}

	return Summary{
		Projects:          len(projects),
		Assignments:       len(s.assignments),
		CoveragePercent:   coverageRatio(s) * 100,
		Conflicts:         conflictCount(s),
		ConsecutivePct:    consecutive,
		ClassroomSwitches: classroomSwitches(s),
		Gaps:              gapCount(s),
		MissingProjects:   missing,
		DuplicateProjects: duplicates,
	}
}
