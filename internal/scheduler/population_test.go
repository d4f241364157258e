package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parentInRoom lays every project out in one classroom, one slot each, with the
// responsible instructor alone on the panel.
func parentInRoom(t *testing.T, problem *Problem, room string) *Schedule {
	t.Helper()
	s := NewSchedule(problem)
	for i, project := range problem.Projects() {
		s.Add(Assignment{
			ProjectID:   project.ID,
			ClassroomID: room,
			TimeslotID:  fmt.Sprintf("s%d", i+1),
			Instructors: []string{project.ResponsibleID},
		})
	}
	return s
}

func TestCrossoverInheritsWholeInstructorBlocks(t *testing.T) {
	problem := buildProblem(t, []int{3, 2, 2, 1}, 2, 8)
	first := parentInRoom(t, problem, "r1")
	second := parentInRoom(t, problem, "r2")

	mixed := false
	for seed := int64(1); seed <= 20; seed++ {
		child := crossover(first, second, rand.New(rand.NewSource(seed)))
		requireFullCoverage(t, child)

		origins := make(map[string]map[string]bool)
		for _, project := range problem.Projects() {
			a, ok := child.ForProject(project.ID)
			require.True(t, ok)
			if origins[project.ResponsibleID] == nil {
				origins[project.ResponsibleID] = make(map[string]bool)
			}
			origins[project.ResponsibleID][a.ClassroomID] = true
		}
		rooms := make(map[string]bool)
		for instructor, from := range origins {
			assert.Len(t, from, 1, "seed %d: projects of %s come from one parent", seed, instructor)
			for room := range from {
				rooms[room] = true
			}
		}
		if len(rooms) == 2 {
			mixed = true
		}
	}
	assert.True(t, mixed, "some child combines both parents")

	for _, a := range first.Assignments() {
		assert.Equal(t, "r1", a.ClassroomID, "parents are left untouched")
	}
}
