package scheduler

import "sort"

// Assignment places one project in a classroom at a timeslot with its panel.
// Instructors[0] is the responsible instructor, the rest are jury members.
type Assignment struct {
	ProjectID   string   `json:"projectId" csv:"project_id"`
	ClassroomID string   `json:"classroomId" csv:"classroom_id"`
	TimeslotID  string   `json:"timeslotId" csv:"timeslot_id"`
	Instructors []string `json:"instructors" csv:"-"`
}

// Responsible returns the responsible instructor id, or "" for an empty panel.
func (a Assignment) Responsible() string {
	if len(a.Instructors) == 0 {
		return ""
	}
	return a.Instructors[0]
}

// Jury returns the jury member ids.
func (a Assignment) Jury() []string {
	if len(a.Instructors) < 2 {
		return nil
	}
	return a.Instructors[1:]
}

func (a Assignment) hasInstructor(id string) bool {
	for _, in := range a.Instructors {
		if in == id {
			return true
		}
	}
	return false
}

func (a Assignment) clone() Assignment {
	a.Instructors = append([]string(nil), a.Instructors...)
	return a
}

type cellKey struct {
	Classroom string
	Timeslot  string
}

type busyKey struct {
	Instructor string
	Timeslot   string
}

// Schedule is an arena of assignments with lookup indices by project,
// by (classroom, timeslot) and by (instructor, timeslot). A schedule is owned by
// a single component at a time and is not safe for concurrent mutation.
type Schedule struct {
	problem     *Problem
	assignments []Assignment

	byProject map[string][]int
	byCell    map[cellKey][]int
	byBusy    map[busyKey][]int
}

// NewSchedule creates an empty schedule for the problem.
func NewSchedule(problem *Problem) *Schedule {
	return &Schedule{
		problem:   problem,
		byProject: make(map[string][]int),
		byCell:    make(map[cellKey][]int),
		byBusy:    make(map[busyKey][]int),
	}
}

// Problem returns the immutable domain model backing the schedule.
func (s *Schedule) Problem() *Problem { return s.problem }

// Len returns the number of assignments.
func (s *Schedule) Len() int { return len(s.assignments) }

// At returns a copy of the assignment at arena position i.
func (s *Schedule) At(i int) Assignment { return s.assignments[i].clone() }

// Assignments returns a copy of all assignments in arena order.
func (s *Schedule) Assignments() []Assignment {
	result := make([]Assignment, len(s.assignments))
	for i, a := range s.assignments {
		result[i] = a.clone()
	}
	return result
}

// Add appends an assignment and returns its arena position.
func (s *Schedule) Add(a Assignment) int {
	pos := len(s.assignments)
	s.assignments = append(s.assignments, a.clone())
	s.index(pos)
	return pos
}

// Replace overwrites the assignment at position i.
func (s *Schedule) Replace(i int, a Assignment) {
	s.unindex(i)
	s.assignments[i] = a.clone()
	s.index(i)
}

// Move relocates the assignment at position i to another cell.
func (s *Schedule) Move(i int, classroomID, timeslotID string) {
	s.unindex(i)
	s.assignments[i].ClassroomID = classroomID
	s.assignments[i].TimeslotID = timeslotID
	s.index(i)
}

// SwapTimeslots exchanges the timeslots of two assignments.
func (s *Schedule) SwapTimeslots(i, j int) {
	if i == j {
		return
	}
	s.unindex(i)
	s.unindex(j)
	s.assignments[i].TimeslotID, s.assignments[j].TimeslotID = s.assignments[j].TimeslotID, s.assignments[i].TimeslotID
	s.index(i)
	s.index(j)
}

// SwapClassrooms exchanges the classrooms of two assignments.
func (s *Schedule) SwapClassrooms(i, j int) {
	if i == j {
		return
	}
	s.unindex(i)
	s.unindex(j)
	s.assignments[i].ClassroomID, s.assignments[j].ClassroomID = s.assignments[j].ClassroomID, s.assignments[i].ClassroomID
	s.index(i)
	s.index(j)
}

// ForProject returns the first assignment of a project.
func (s *Schedule) ForProject(projectID string) (Assignment, bool) {
	positions := s.byProject[projectID]
	if len(positions) == 0 {
		return Assignment{}, false
	}
	return s.assignments[positions[0]].clone(), true
}

// PositionsOf returns the arena positions holding the project.
func (s *Schedule) PositionsOf(projectID string) []int {
	return append([]int(nil), s.byProject[projectID]...)
}

// AtCell returns the positions placed in the classroom at the timeslot.
func (s *Schedule) AtCell(classroomID, timeslotID string) []int {
	return append([]int(nil), s.byCell[cellKey{classroomID, timeslotID}]...)
}

// InstructorAt returns the positions where the instructor sits at the timeslot.
func (s *Schedule) InstructorAt(instructorID, timeslotID string) []int {
	return append([]int(nil), s.byBusy[busyKey{instructorID, timeslotID}]...)
}

// Occupied reports whether any assignment uses the cell.
func (s *Schedule) Occupied(classroomID, timeslotID string) bool {
	return len(s.byCell[cellKey{classroomID, timeslotID}]) > 0
}

// InstructorBusy reports whether the instructor already sits at the timeslot.
func (s *Schedule) InstructorBusy(instructorID, timeslotID string) bool {
	return len(s.byBusy[busyKey{instructorID, timeslotID}]) > 0
}

// Clone returns an independent copy sharing only the immutable problem.
func (s *Schedule) Clone() *Schedule {
	c := &Schedule{
		problem:     s.problem,
		assignments: make([]Assignment, len(s.assignments)),
		byProject:   make(map[string][]int, len(s.byProject)),
		byCell:      make(map[cellKey][]int, len(s.byCell)),
		byBusy:      make(map[busyKey][]int, len(s.byBusy)),
	}
	for i, a := range s.assignments {
		c.assignments[i] = a.clone()
	}
	for k, v := range s.byProject {
		c.byProject[k] = append([]int(nil), v...)
	}
	for k, v := range s.byCell {
		c.byCell[k] = append([]int(nil), v...)
	}
	for k, v := range s.byBusy {
		c.byBusy[k] = append([]int(nil), v...)
	}
	return c
}

// Loads derives per-instructor workload counters from the schedule. Every
// instructor of the problem is present, including idle ones.
func (s *Schedule) Loads() map[string]Load {
	loads := make(map[string]Load, len(s.problem.instructors))
	for _, in := range s.problem.instructors {
		loads[in.ID] = Load{}
	}
	for _, a := range s.assignments {
		for i, in := range a.Instructors {
			l := loads[in]
			if i == 0 {
				l.Responsible++
			} else {
				l.Jury++
			}
			loads[in] = l
		}
	}
	return loads
}

// byInstructor groups arena positions by instructor, each list ordered by
// timeslot position then arena position.
func (s *Schedule) byInstructor() map[string][]int {
	grouped := make(map[string][]int)
	for pos, a := range s.assignments {
		for _, in := range a.Instructors {
			grouped[in] = append(grouped[in], pos)
		}
	}
	for _, positions := range grouped {
		sort.SliceStable(positions, func(i, j int) bool {
			return s.problem.slotPosition(s.assignments[positions[i]].TimeslotID) <
				s.problem.slotPosition(s.assignments[positions[j]].TimeslotID)
		})
	}
	return grouped
}

func (s *Schedule) index(pos int) {
	a := s.assignments[pos]
	s.byProject[a.ProjectID] = insertSorted(s.byProject[a.ProjectID], pos)
	cell := cellKey{a.ClassroomID, a.TimeslotID}
	s.byCell[cell] = insertSorted(s.byCell[cell], pos)
	for _, in := range a.Instructors {
		key := busyKey{in, a.TimeslotID}
		s.byBusy[key] = insertSorted(s.byBusy[key], pos)
	}
}

func (s *Schedule) unindex(pos int) {
	a := s.assignments[pos]
	s.byProject[a.ProjectID] = removeValue(s.byProject[a.ProjectID], pos)
	if len(s.byProject[a.ProjectID]) == 0 {
		delete(s.byProject, a.ProjectID)
	}
	cell := cellKey{a.ClassroomID, a.TimeslotID}
	s.byCell[cell] = removeValue(s.byCell[cell], pos)
	if len(s.byCell[cell]) == 0 {
		delete(s.byCell, cell)
	}
	for _, in := range a.Instructors {
		key := busyKey{in, a.TimeslotID}
		s.byBusy[key] = removeValue(s.byBusy[key], pos)
		if len(s.byBusy[key]) == 0 {
			delete(s.byBusy, key)
		}
	}
}

func insertSorted(list []int, v int) []int {
	idx := sort.SearchInts(list, v)
	if idx < len(list) && list[idx] == v {
		return list
	}
	list = append(list, 0)
	copy(list[idx+1:], list[idx:])
	list[idx] = v
	return list
}

func removeValue(list []int, v int) []int {
	idx := sort.SearchInts(list, v)
	if idx < len(list) && list[idx] == v {
		return append(list[:idx], list[idx+1:]...)
	}
	return list
}
