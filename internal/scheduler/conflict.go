package scheduler

import (
	"math"
	"sort"
)

// ConflictKind tells which resource is double-booked.
type ConflictKind string

const (
	ConflictInstructor ConflictKind = "instructor"
	ConflictClassroom  ConflictKind = "classroom"
)

// Conflict is one double-booked instructor or classroom at a timeslot.
type Conflict struct {
	Kind         ConflictKind `json:"kind"`
	TimeslotID   string       `json:"timeslotId"`
	InstructorID string       `json:"instructorId,omitempty"`
	ClassroomID  string       `json:"classroomId,omitempty"`
	Positions    []int        `json:"positions"`
}

// Detect lists every clash of the schedule ordered by timeslot, kind and
// resource id.
func Detect(s *Schedule) []Conflict {
	var conflicts []Conflict
	for key, positions := range s.byBusy {
		if len(positions) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:         ConflictInstructor,
			TimeslotID:   key.Timeslot,
			InstructorID: key.Instructor,
			Positions:    append([]int(nil), positions...),
		})
	}
	for key, positions := range s.byCell {
		if len(positions) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:        ConflictClassroom,
			TimeslotID:  key.Timeslot,
			ClassroomID: key.Classroom,
			Positions:   append([]int(nil), positions...),
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		pa, pb := s.problem.slotPosition(a.TimeslotID), s.problem.slotPosition(b.TimeslotID)
		if pa != pb {
			return pa < pb
		}
		if a.TimeslotID != b.TimeslotID {
			return a.TimeslotID < b.TimeslotID
		}
		if a.Kind != b.Kind {
			return a.Kind == ConflictInstructor
		}
		return a.InstructorID+a.ClassroomID < b.InstructorID+b.ClassroomID
	})
	return conflicts
}

// ConflictCount returns the number of surplus occupants over all
// instructor×timeslot and classroom×timeslot keys.
func ConflictCount(s *Schedule) int {
	return conflictCount(s)
}

// Resolver repairs clashes by relocating lower-priority assignments. It never
// removes an assignment.
type Resolver struct {
	// MaxPasses bounds Repair's detect/resolve rounds.
	MaxPasses int
}

// NewResolver returns a resolver with default settings.
func NewResolver() *Resolver {
	return &Resolver{MaxPasses: 3}
}

// Repair runs detect/resolve rounds until the schedule is clash-free, a round
// relocates nothing, or MaxPasses is reached. It returns total relocations.
func (r *Resolver) Repair(s *Schedule) int {
	passes := r.MaxPasses
	if passes < 1 {
		passes = 1
	}
	total := 0
	for i := 0; i < passes; i++ {
		conflicts := Detect(s)
		if len(conflicts) == 0 {
			break
		}
		moved := r.Resolve(s, conflicts)
		total += moved
		if moved == 0 {
			break
		}
	}
	return total
}

// Resolve handles each conflict that is still active: the highest-priority
// assignment stays, every other one moves to its cheapest cell. It returns the
// number of relocations performed.
func (r *Resolver) Resolve(s *Schedule, conflicts []Conflict) int {
	moved := 0
	for _, c := range conflicts {
		active := r.active(s, c)
		if len(active) < 2 {
			continue
		}
		r.rank(s, c, active)
		for _, pos := range active[1:] {
			target, ok := r.cheapestCell(s, pos)
			if !ok {
				continue
			}
			s.Move(pos, target.room, s.problem.timeslots[target.slot].ID)
			moved++
		}
	}
	return moved
}

// active returns the conflict positions that still clash on the conflict key.
func (r *Resolver) active(s *Schedule, c Conflict) []int {
	switch c.Kind {
	case ConflictInstructor:
		return s.InstructorAt(c.InstructorID, c.TimeslotID)
	case ConflictClassroom:
		return s.AtCell(c.ClassroomID, c.TimeslotID)
	}
	return nil
}

// rank orders positions by keep priority: final before interim, responsible
// before jury-only, earlier timeslot, lower arena position.
func (r *Resolver) rank(s *Schedule, c Conflict, positions []int) {
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := s.assignments[positions[i]], s.assignments[positions[j]]
		ka, kb := r.kindRank(s, a), r.kindRank(s, b)
		if ka != kb {
			return ka < kb
		}
		if c.Kind == ConflictInstructor {
			ra, rb := a.Responsible() == c.InstructorID, b.Responsible() == c.InstructorID
			if ra != rb {
				return ra
			}
		}
		sa, sb := s.problem.slotPosition(a.TimeslotID), s.problem.slotPosition(b.TimeslotID)
		if sa != sb {
			return sa < sb
		}
		return positions[i] < positions[j]
	})
}

func (r *Resolver) kindRank(s *Schedule, a Assignment) int {
	project, ok := s.problem.Project(a.ProjectID)
	if !ok || project.Kind == ProjectKindFinal {
		return 0
	}
	return 1
}

// cheapestCell picks the relocation target with the fewest clashes; ties go to
// the smallest |Δindex| + 2 when the responsible does not use the room
// elsewhere. The current cell only wins when nothing is strictly cheaper.
func (r *Resolver) cheapestCell(s *Schedule, pos int) (cell, bool) {
	a := s.assignments[pos]
	from := s.problem.slotPosition(a.TimeslotID)
	homeRooms := r.roomsOf(s, a.Responsible(), pos)

	current := cell{room: a.ClassroomID, slot: from}
	best := current
	bestCost := cellCost{clashes: math.MaxInt, distance: math.MaxFloat64}
	for _, room := range s.problem.classrooms {
		for slot, ts := range s.problem.timeslots {
			cost := cellCost{
				clashes:  clashesAt(s, pos, room.ID, ts.ID),
				distance: math.Abs(float64(slot - from)),
			}
			if !homeRooms[room.ID] {
				cost.distance += 2
			}
			candidate := cell{room: room.ID, slot: slot}
			if cost.less(bestCost) || (cost == bestCost && candidate == current) {
				bestCost = cost
				best = candidate
			}
		}
	}
	if best == current {
		return cell{}, false
	}
	return best, true
}

func (r *Resolver) roomsOf(s *Schedule, instructorID string, except int) map[string]bool {
	rooms := make(map[string]bool)
	if instructorID == "" {
		return rooms
	}
	for pos, a := range s.assignments {
		if pos != except && a.hasInstructor(instructorID) {
			rooms[a.ClassroomID] = true
		}
	}
	return rooms
}

// clashesAt counts the assignments other than pos that would collide with pos
// if it sat in the given cell.
func clashesAt(s *Schedule, pos int, roomID, slotID string) int {
	clashes := 0
	for _, other := range s.byCell[cellKey{roomID, slotID}] {
		if other != pos {
			clashes++
		}
	}
	for _, in := range s.assignments[pos].Instructors {
		for _, other := range s.byBusy[busyKey{in, slotID}] {
			if other != pos {
				clashes++
			}
		}
	}
	return clashes
}
