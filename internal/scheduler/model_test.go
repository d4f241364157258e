package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProblemRejectsInsufficientInput(t *testing.T) {
	projects := []Project{{ID: "p1", ResponsibleID: "a"}}
	instructors := []Instructor{{ID: "a"}}
	classrooms := []Classroom{{ID: "r1"}}
	timeslots := []Timeslot{{ID: "s1", Index: 1}}

	cases := map[string]func() error{
		"no projects": func() error {
			_, err := NewProblem(nil, instructors, classrooms, timeslots)
			return err
		},
		"no instructors": func() error {
			_, err := NewProblem(projects, nil, classrooms, timeslots)
			return err
		},
		"no classrooms": func() error {
			_, err := NewProblem(projects, instructors, nil, timeslots)
			return err
		},
		"no timeslots": func() error {
			_, err := NewProblem(projects, instructors, classrooms, nil)
			return err
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			err := build()
			require.ErrorIs(t, err, ErrInsufficientInput)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestNewProblemNormalisesInput(t *testing.T) {
	problem, err := NewProblem(
		[]Project{
			{ID: "p1", ResponsibleID: "a", Kind: "weird", JuryCount: 0},
			{ID: "p1", ResponsibleID: "b"},
			{ID: "p2", ResponsibleID: "ghost", Kind: ProjectKindInterim, JuryCount: 2},
		},
		[]Instructor{{ID: "a", Name: "Ana"}, {ID: "a", Name: "dup"}, {ID: "b"}},
		[]Classroom{{ID: "r1"}},
		[]Timeslot{{ID: "late", Index: 9}, {ID: "early", Index: 1}},
	)
	require.NoError(t, err)

	projects := problem.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, ProjectKindFinal, projects[0].Kind)
	assert.Equal(t, 1, projects[0].JuryCount)
	assert.Equal(t, ProjectKindInterim, projects[1].Kind)

	instructors := problem.Instructors()
	require.Len(t, instructors, 3)
	assert.Equal(t, "Ana", instructors[0].Name)
	assert.Equal(t, "b", instructors[1].Name)
	assert.True(t, problem.HasInstructor("ghost"))

	slots := problem.Timeslots()
	assert.Equal(t, "early", slots[0].ID)
	assert.Equal(t, "late", slots[1].ID)
	assert.Equal(t, 0, problem.slotPosition("early"))
	assert.Equal(t, 2, problem.slotPosition("unknown"))

	assert.Equal(t, map[string]int{"a": 1, "b": 0, "ghost": 1}, problem.ResponsibleCounts())
}

func TestScheduleIndicesFollowMutations(t *testing.T) {
	problem := buildProblem(t, []int{1, 1}, 2, 2)
	s := NewSchedule(problem)
	first := s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1", "i2"}})
	second := s.Add(Assignment{ProjectID: "p2", ClassroomID: "r2", TimeslotID: "s2", Instructors: []string{"i2", "i1"}})

	assert.True(t, s.Occupied("r1", "s1"))
	assert.True(t, s.InstructorBusy("i2", "s1"))

	s.SwapTimeslots(first, second)
	assert.True(t, s.Occupied("r1", "s2"))
	assert.True(t, s.Occupied("r2", "s1"))
	assert.False(t, s.Occupied("r1", "s1"))

	s.SwapClassrooms(first, second)
	assert.Equal(t, []int{first}, s.AtCell("r2", "s2"))

	s.Move(first, "r1", "s2")
	assert.Equal(t, []int{first}, s.InstructorAt("i1", "s2"))
	assert.Equal(t, []int{second}, s.InstructorAt("i1", "s1"))

	clone := s.Clone()
	clone.Move(first, "r2", "s2")
	assert.True(t, s.Occupied("r1", "s2"))
	assert.False(t, clone.Occupied("r1", "s2"))

	loads := s.Loads()
	assert.Equal(t, Load{Responsible: 1, Jury: 1}, loads["i1"])
	assert.Equal(t, Load{Responsible: 1, Jury: 1}, loads["i2"])
}

func TestNewProblemNormalisesProjectKindCase(t *testing.T) {
	problem, err := NewProblem(
		[]Project{
			{ID: "p1", ResponsibleID: "a", Kind: "Interim"},
			{ID: "p2", ResponsibleID: "a", Kind: " interim "},
			{ID: "p3", ResponsibleID: "a", Kind: "Final"},
		},
		[]Instructor{{ID: "a"}},
		[]Classroom{{ID: "r1"}},
		[]Timeslot{{ID: "s1", Index: 1}},
	)
	require.NoError(t, err)

	kinds := make([]ProjectKind, 0, 3)
	for _, project := range problem.Projects() {
		kinds = append(kinds, project.Kind)
	}
	assert.Equal(t, []ProjectKind{ProjectKindInterim, ProjectKindInterim, ProjectKindFinal}, kinds)
}
