package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// --- Fixtures ---

// buildProblem creates instructors i1..iN where instructor k is responsible for
// counts[k-1] projects, plus the given number of classrooms and timeslots.
func buildProblem(t *testing.T, counts []int, rooms, slots int) *Problem {
	t.Helper()

	var (
		projects    []Project
		instructors []Instructor
		classrooms  []Classroom
		timeslots   []Timeslot
	)
	next := 1
	for i, count := range counts {
		id := fmt.Sprintf("i%d", i+1)
		instructors = append(instructors, Instructor{ID: id, Name: "Instructor " + id})
		for j := 0; j < count; j++ {
			projects = append(projects, Project{ID: fmt.Sprintf("p%d", next), ResponsibleID: id, JuryCount: 1})
			next++
		}
	}
	for r := 1; r <= rooms; r++ {
		classrooms = append(classrooms, Classroom{ID: fmt.Sprintf("r%d", r), Capacity: 30})
	}
	base := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	for s := 1; s <= slots; s++ {
		timeslots = append(timeslots, Timeslot{ID: fmt.Sprintf("s%d", s), Index: s, Start: base.Add(time.Duration(s-1) * time.Hour)})
	}

	problem, err := NewProblem(projects, instructors, classrooms, timeslots)
	require.NoError(t, err)
	return problem
}

func positionsByProject(s *Schedule) map[string]int {
	counts := make(map[string]int)
	for _, a := range s.assignments {
		counts[a.ProjectID]++
	}
	return counts
}

func requireFullCoverage(t *testing.T, s *Schedule) {
	t.Helper()
	counts := positionsByProject(s)
	for _, project := range s.problem.projects {
		require.Equal(t, 1, counts[project.ID], "project %s must be assigned exactly once", project.ID)
	}
	require.Equal(t, len(s.problem.projects), s.Len())
}
