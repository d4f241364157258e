package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorScoreComponents(t *testing.T) {
	problem := buildProblem(t, []int{2, 0}, 1, 3)
	s := NewSchedule(problem)
	s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1", "i2"}})
	s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "s3", Instructors: []string{"i1", "i2"}})

	b := NewEvaluator(DefaultWeights()).Score(s)

	assert.InDelta(t, 1.0, b.Raw[ComponentCoverage], 1e-9)
	assert.InDelta(t, 1.0, b.Raw[ComponentConsecutive], 1e-9)
	assert.InDelta(t, -1.0, b.Raw[ComponentLoadBalance], 1e-9)
	assert.InDelta(t, 0.0, b.Raw[ComponentClassroomSwitch], 1e-9)
	assert.InDelta(t, -2.0, b.Raw[ComponentGap], 1e-9)
	assert.InDelta(t, 0.0, b.Raw[ComponentConflict], 1e-9)
	assert.InDelta(t, 0.5, b.Raw[ComponentEarlySlot], 1e-9)
	assert.InDelta(t, 987.5, b.Total, 1e-9)
}

func TestEvaluatorScoreIsIdempotent(t *testing.T) {
	problem := buildProblem(t, []int{3, 2, 2, 1}, 2, 5)
	s := Place(problem, BuildPairingPlan(WorkloadsFor(problem)))
	evaluator := NewEvaluator(DefaultWeights())

	first := evaluator.Score(s)
	second := evaluator.Score(s)
	assert.Equal(t, first, second)
}

func TestEvaluatorPenalisesDuplicatesAndConflicts(t *testing.T) {
	problem := buildProblem(t, []int{2}, 1, 2)
	clean := NewSchedule(problem)
	clean.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1"}})
	clean.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "s2", Instructors: []string{"i1"}})

	dirty := clean.Clone()
	dirty.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1"}})

	evaluator := NewEvaluator(DefaultWeights())
	cleanScore := evaluator.Score(clean)
	dirtyScore := evaluator.Score(dirty)

	assert.InDelta(t, 0.5, dirtyScore.Raw[ComponentCoverage], 1e-9)
	assert.InDelta(t, -2.0, dirtyScore.Raw[ComponentConflict], 1e-9)
	assert.Less(t, dirtyScore.Total, cleanScore.Total)

	summary := Summarize(dirty)
	assert.Equal(t, []string{"p2"}, summary.DuplicateProjects)
	assert.False(t, summary.Feasible())
	assert.True(t, Summarize(clean).Feasible())
}

func TestEvaluatorWithWeights(t *testing.T) {
	problem := buildProblem(t, []int{1}, 1, 1)
	s := Place(problem, BuildPairingPlan(WorkloadsFor(problem)))

	base := NewEvaluator(DefaultWeights())
	coverageOnly := base.WithWeights(Weights{Coverage: 1})

	assert.InDelta(t, 1.0, coverageOnly.Score(s).Total, 1e-9)
	assert.Equal(t, DefaultWeights(), base.Weights(), "original evaluator is unchanged")
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	w := DefaultWeights()
	w.Gap = -1
	err := w.Validate()
	require.ErrorIs(t, err, ErrInvalidWeights)
	assert.Contains(t, err.Error(), "gap")
}

func TestSummarizeReportsStatistics(t *testing.T) {
	problem := buildProblem(t, []int{3, 1, 1, 1}, 2, 6)
	s := Place(problem, BuildPairingPlan(WorkloadsFor(problem)))

	summary := Summarize(s)
	assert.Equal(t, 6, summary.Projects)
	assert.Equal(t, 6, summary.Assignments)
	assert.InDelta(t, 100.0, summary.CoveragePercent, 1e-9)
	assert.Zero(t, summary.Conflicts)
	assert.Empty(t, summary.MissingProjects)
	assert.Greater(t, summary.ConsecutivePct, 50.0)
}

func TestEvaluatorMeasuresAdjacencyByIndex(t *testing.T) {
	problem, err := NewProblem(
		[]Project{{ID: "p1", ResponsibleID: "a"}, {ID: "p2", ResponsibleID: "a"}, {ID: "p3", ResponsibleID: "a"}},
		[]Instructor{{ID: "a"}, {ID: "b"}},
		[]Classroom{{ID: "r1"}},
		[]Timeslot{{ID: "mon-2", Index: 2}, {ID: "tue-1", Index: 10}, {ID: "tue-1b", Index: 10}, {ID: "tue-2", Index: 11}},
	)
	require.NoError(t, err)
	evaluator := NewEvaluator(DefaultWeights())

	t.Run("index gap without slots between", func(t *testing.T) {
		s := NewSchedule(problem)
		s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "mon-2", Instructors: []string{"a", "b"}})
		s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "tue-1", Instructors: []string{"a", "b"}})

		b := evaluator.Score(s)
		assert.InDelta(t, 1.0, b.Raw[ComponentConsecutive], 1e-9)
		assert.InDelta(t, 0.0, b.Raw[ComponentGap], 1e-9)
		assert.InDelta(t, 0.0, Summarize(s).ConsecutivePct, 1e-9)
	})

	t.Run("shared index is not adjacent", func(t *testing.T) {
		s := NewSchedule(problem)
		s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "tue-1", Instructors: []string{"a"}})
		s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "tue-1b", Instructors: []string{"a"}})

		b := evaluator.Score(s)
		assert.InDelta(t, 0.5, b.Raw[ComponentConsecutive], 1e-9)
		assert.InDelta(t, 0.0, b.Raw[ComponentGap], 1e-9)
	})

	t.Run("next index is adjacent", func(t *testing.T) {
		s := NewSchedule(problem)
		s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "tue-1", Instructors: []string{"a"}})
		s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "tue-2", Instructors: []string{"a"}})

		assert.InDelta(t, 1.0, evaluator.Score(s).Raw[ComponentConsecutive], 1e-9)
		assert.InDelta(t, 100.0, Summarize(s).ConsecutivePct, 1e-9)
	})

	t.Run("gap counts defined slots between", func(t *testing.T) {
		s := NewSchedule(problem)
		s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "mon-2", Instructors: []string{"a"}})
		s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "tue-2", Instructors: []string{"a"}})

		assert.InDelta(t, -2.0, evaluator.Score(s).Raw[ComponentGap], 1e-9)
	})
}
