package scheduler

import (
	"math"
	"sort"
)

type cell struct {
	room string
	slot int
}

type placer struct {
	problem *Problem
	sched   *Schedule
	usage   map[string]int
	load    map[string]int
}

// Place builds the seed schedule from a pairing plan. Each pair's projects are
// laid out as one contiguous block: the first member's projects, then the
// second's, then any extra member's, with the other members sitting as jury.
// Every project receives exactly one assignment even when no conflict-free cell
// exists; the resulting clashes are left to the resolver and the fitness score.
func Place(problem *Problem, plan PairingPlan) *Schedule {
	pl := &placer{
		problem: problem,
		sched:   NewSchedule(problem),
		usage:   make(map[string]int, len(problem.classrooms)),
		load:    make(map[string]int, len(problem.instructors)),
	}
	placed := make(map[string]bool, len(problem.projects))

	for _, pair := range plan.Pairs {
		pl.placeBlock(pair.Participants(), placed)
	}
	for _, project := range problem.projects {
		if placed[project.ID] {
			continue
		}
		panel := pl.panel(project, nil)
		pl.commit(project, pl.startCell(panel), panel)
		placed[project.ID] = true
	}
	return pl.sched
}

func (pl *placer) placeBlock(members []string, placed map[string]bool) {
	room := ""
	prev := -1
	for _, member := range members {
		partners := make([]string, 0, len(members)-1)
		for _, other := range members {
			if other != member {
				partners = append(partners, other)
			}
		}
		for _, project := range pl.problem.projectsOf(member) {
			if placed[project.ID] {
				continue
			}
			panel := pl.panel(project, partners)
			var target cell
			if prev < 0 {
				target = pl.startCell(panel)
			} else {
				target = pl.continueCell(room, prev, panel)
			}
			pl.commit(project, target, panel)
			placed[project.ID] = true
			room, prev = target.room, target.slot
		}
	}
}

// panel returns the responsible instructor followed by the pair partners, capped
// at the project's jury count.
func (pl *placer) panel(project Project, partners []string) []string {
	panel := make([]string, 0, 1+project.JuryCount)
	if project.ResponsibleID != "" {
		panel = append(panel, project.ResponsibleID)
	}
	for _, partner := range partners {
		if len(panel)-1 >= project.JuryCount {
			break
		}
		if partner == project.ResponsibleID {
			continue
		}
		panel = append(panel, partner)
	}
	return panel
}

// topUp fills missing jury seats with the least-loaded instructors that are free
// at the slot. Seats stay empty when nobody is free.
func (pl *placer) topUp(project Project, panel []string, slotID string) []string {
	missing := project.JuryCount - (len(panel) - 1)
	if missing <= 0 {
		return panel
	}
	inPanel := make(map[string]bool, len(panel))
	for _, in := range panel {
		inPanel[in] = true
	}
	candidates := make([]Instructor, 0, len(pl.problem.instructors))
	for _, in := range pl.problem.instructors {
		if inPanel[in.ID] || pl.sched.InstructorBusy(in.ID, slotID) {
			continue
		}
		candidates = append(candidates, in)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return pl.load[candidates[i].ID] < pl.load[candidates[j].ID]
	})
	for _, in := range candidates {
		if missing == 0 {
			break
		}
		panel = append(panel, in.ID)
		missing--
	}
	return panel
}

func (pl *placer) commit(project Project, target cell, panel []string) {
	slotID := pl.problem.timeslots[target.slot].ID
	panel = pl.topUp(project, panel, slotID)
	pl.sched.Add(Assignment{
		ProjectID:   project.ID,
		ClassroomID: target.room,
		TimeslotID:  slotID,
		Instructors: panel,
	})
	pl.usage[target.room]++
	for _, in := range panel {
		pl.load[in]++
	}
}

// roomsByUsage orders classrooms by ascending usage, stable on input order.
func (pl *placer) roomsByUsage() []string {
	rooms := make([]string, len(pl.problem.classrooms))
	for i, room := range pl.problem.classrooms {
		rooms[i] = room.ID
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return pl.usage[rooms[i]] < pl.usage[rooms[j]]
	})
	return rooms
}

func (pl *placer) free(room string, slot int, panel []string) bool {
	slotID := pl.problem.timeslots[slot].ID
	if pl.sched.Occupied(room, slotID) {
		return false
	}
	for _, in := range panel {
		if pl.sched.InstructorBusy(in, slotID) {
			return false
		}
	}
	return true
}

// startCell opens a new block in the least-used classroom at its earliest free
// slot.
func (pl *placer) startCell(panel []string) cell {
	rooms := pl.roomsByUsage()
	for _, room := range rooms {
		for slot := range pl.problem.timeslots {
			if pl.free(room, slot, panel) {
				return cell{room, slot}
			}
		}
	}
	return pl.leastBad(panel, rooms[0], -1)
}

// continueCell extends a block: same classroom at the slot whose Index follows
// prev, then the later slots in Index order, then the other classrooms in the
// same order, then any free cell, then the least-bad cell.
func (pl *placer) continueCell(room string, prev int, panel []string) cell {
	after := pl.problem.slotsAfter(prev)
	for _, slot := range after {
		if pl.free(room, slot, panel) {
			return cell{room, slot}
		}
	}
	rooms := pl.roomsByUsage()
	for _, other := range rooms {
		if other == room {
			continue
		}
		for _, slot := range after {
			if pl.free(other, slot, panel) {
				return cell{other, slot}
			}
		}
	}
	ordered := append([]string{room}, rooms...)
	for _, candidate := range ordered {
		for slot := range pl.problem.timeslots {
			if pl.free(candidate, slot, panel) {
				return cell{candidate, slot}
			}
		}
	}
	return pl.leastBad(panel, room, prev)
}

// leastBad picks the cell with the fewest clashes. Among equals it prefers the
// block classroom and then the slot closest after prev.
func (pl *placer) leastBad(panel []string, preferred string, prev int) cell {
	best := cell{room: preferred, slot: 0}
	bestCost := cellCost{clashes: math.MaxInt, distance: math.MaxFloat64}
	for _, room := range pl.roomsByUsage() {
		for slot, ts := range pl.problem.timeslots {
			cost := cellCost{distance: math.Abs(float64(slot - (prev + 1)))}
			cost.clashes = len(pl.sched.AtCell(room, ts.ID))
			for _, in := range panel {
				cost.clashes += len(pl.sched.InstructorAt(in, ts.ID))
			}
			if room != preferred {
				cost.distance += 0.5
			}
			if cost.less(bestCost) {
				bestCost = cost
				best = cell{room, slot}
			}
		}
	}
	return best
}

// cellCost ranks candidate cells: fewer clashes always win, distance only
// breaks ties between cells with the same clash count.
type cellCost struct {
	clashes  int
	distance float64
}

func (c cellCost) less(other cellCost) bool {
	if c.clashes != other.clashes {
		return c.clashes < other.clashes
	}
	return c.distance < other.distance
}
