package scheduler

import (
	"fmt"
	"math/rand"
)

// MoveKind names a move operator.
type MoveKind string

const (
	MoveNone           MoveKind = ""
	MoveSwapTimeslots  MoveKind = "swap_timeslots"
	MoveSwapClassrooms MoveKind = "swap_classrooms"
	MoveRelocate       MoveKind = "relocate"
)

// Move describes one local transformation. For swaps A and B are the two arena
// positions; for a relocation A is the moved position and To* the target cell.
type Move struct {
	Kind MoveKind

	A, B int

	FromRoom, FromSlot string
	ToRoom, ToSlot     string
}

// Key identifies the state the move produces.
func (m Move) Key() string {
	switch m.Kind {
	case MoveSwapTimeslots, MoveSwapClassrooms, MoveRelocate:
		return fmt.Sprintf("%s:%d>%s@%s:%d", m.Kind, m.A, m.ToRoom, m.ToSlot, m.B)
	}
	return ""
}

// ReverseKey identifies the move that would undo this one.
func (m Move) ReverseKey() string {
	switch m.Kind {
	case MoveSwapTimeslots, MoveSwapClassrooms, MoveRelocate:
		return fmt.Sprintf("%s:%d>%s@%s:%d", m.Kind, m.A, m.FromRoom, m.FromSlot, m.B)
	}
	return ""
}

// SwapTimeslotsMove builds the move exchanging the timeslots of i and j.
func SwapTimeslotsMove(s *Schedule, i, j int) Move {
	if i > j {
		i, j = j, i
	}
	a, b := s.assignments[i], s.assignments[j]
	return Move{
		Kind: MoveSwapTimeslots, A: i, B: j,
		FromRoom: a.ClassroomID, FromSlot: a.TimeslotID,
		ToRoom: a.ClassroomID, ToSlot: b.TimeslotID,
	}
}

// SwapClassroomsMove builds the move exchanging the classrooms of i and j.
func SwapClassroomsMove(s *Schedule, i, j int) Move {
	if i > j {
		i, j = j, i
	}
	a, b := s.assignments[i], s.assignments[j]
	return Move{
		Kind: MoveSwapClassrooms, A: i, B: j,
		FromRoom: a.ClassroomID, FromSlot: a.TimeslotID,
		ToRoom: b.ClassroomID, ToSlot: a.TimeslotID,
	}
}

// RelocateMove builds the move sending position i to the given cell.
func RelocateMove(s *Schedule, i int, roomID, slotID string) Move {
	a := s.assignments[i]
	return Move{
		Kind: MoveRelocate, A: i, B: -1,
		FromRoom: a.ClassroomID, FromSlot: a.TimeslotID,
		ToRoom: roomID, ToSlot: slotID,
	}
}

// Apply performs the move on the schedule.
func (m Move) Apply(s *Schedule) {
	switch m.Kind {
	case MoveSwapTimeslots:
		s.SwapTimeslots(m.A, m.B)
	case MoveSwapClassrooms:
		s.SwapClassrooms(m.A, m.B)
	case MoveRelocate:
		s.Move(m.A, m.ToRoom, m.ToSlot)
	}
}

// RandomMove samples one move for the schedule. Swaps need two assignments with
// differing attributes; when none can be built a relocation is tried instead.
// MoveNone is returned only for an empty schedule.
func RandomMove(s *Schedule, rng *rand.Rand) Move {
	n := len(s.assignments)
	if n == 0 {
		return Move{Kind: MoveNone}
	}
	switch rng.Intn(3) {
	case 0:
		if n > 1 {
			i, j := rng.Intn(n), rng.Intn(n)
			if i != j && s.assignments[i].TimeslotID != s.assignments[j].TimeslotID {
				return SwapTimeslotsMove(s, i, j)
			}
		}
	case 1:
		if n > 1 {
			i, j := rng.Intn(n), rng.Intn(n)
			if i != j && s.assignments[i].ClassroomID != s.assignments[j].ClassroomID {
				return SwapClassroomsMove(s, i, j)
			}
		}
	}
	return relocateMove(s, rng.Intn(n), rng)
}

// relocateMove samples a target among the cells with the fewest clashes for
// position i, excluding its current cell. Falls back to MoveNone when the
// problem has a single cell.
func relocateMove(s *Schedule, i int, rng *rand.Rand) Move {
	a := s.assignments[i]
	best := -1
	var candidates []cellKey
	for _, room := range s.problem.classrooms {
		for _, ts := range s.problem.timeslots {
			if room.ID == a.ClassroomID && ts.ID == a.TimeslotID {
				continue
			}
			clashes := clashesAt(s, i, room.ID, ts.ID)
			switch {
			case best < 0 || clashes < best:
				best = clashes
				candidates = append(candidates[:0], cellKey{room.ID, ts.ID})
			case clashes == best:
				candidates = append(candidates, cellKey{room.ID, ts.ID})
			}
		}
	}
	if len(candidates) == 0 {
		return Move{Kind: MoveNone}
	}
	target := candidates[rng.Intn(len(candidates))]
	return RelocateMove(s, i, target.Classroom, target.Timeslot)
}
