package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveReverseKeyMatchesUndo(t *testing.T) {
	problem := buildProblem(t, []int{1, 1}, 2, 3)
	s := NewSchedule(problem)
	s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1", "i2"}})
	s.Add(Assignment{ProjectID: "p2", ClassroomID: "r2", TimeslotID: "s2", Instructors: []string{"i2", "i1"}})

	forward := SwapTimeslotsMove(s, 1, 0)
	forward.Apply(s)
	undo := SwapTimeslotsMove(s, 0, 1)
	assert.Equal(t, forward.ReverseKey(), undo.Key())
	undo.Apply(s)
	requireAssigned(t, s, "p1", "r1", "s1")

	relocate := RelocateMove(s, 0, "r2", "s3")
	relocate.Apply(s)
	back := RelocateMove(s, 0, "r1", "s1")
	assert.Equal(t, relocate.ReverseKey(), back.Key())
	assert.NotEqual(t, relocate.Key(), relocate.ReverseKey())

	swapRooms := SwapClassroomsMove(s, 0, 1)
	swapRooms.Apply(s)
	requireAssigned(t, s, "p1", "r2", "s3")
	requireAssigned(t, s, "p2", "r2", "s2")
}

func TestRandomMoveKeepsEveryAssignment(t *testing.T) {
	problem := buildProblem(t, []int{3, 2, 1}, 2, 5)
	s := Place(problem, BuildPairingPlan(WorkloadsFor(problem)))
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		move := RandomMove(s, rng)
		require.NotEqual(t, MoveNone, move.Kind)
		move.Apply(s)
		requireFullCoverage(t, s)
	}
}

func TestRandomMoveOnEmptySchedule(t *testing.T) {
	problem := buildProblem(t, []int{1}, 1, 1)
	move := RandomMove(NewSchedule(problem), rand.New(rand.NewSource(1)))
	assert.Equal(t, MoveNone, move.Kind)
}

func TestRelocatePrefersClashFreeCells(t *testing.T) {
	problem := buildProblem(t, []int{1, 1}, 1, 3)
	s := NewSchedule(problem)
	s.Add(Assignment{ProjectID: "p1", ClassroomID: "r1", TimeslotID: "s1", Instructors: []string{"i1"}})
	s.Add(Assignment{ProjectID: "p2", ClassroomID: "r1", TimeslotID: "s2", Instructors: []string{"i2"}})
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		move := relocateMove(s, 0, rng)
		require.Equal(t, MoveRelocate, move.Kind)
		assert.Equal(t, "s3", move.ToSlot)
	}
}
