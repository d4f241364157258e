package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInsufficientInput is returned when a problem has no projects, instructors,
// classrooms or timeslots. It is the only fatal condition of the engine.
var ErrInsufficientInput = errors.New("insufficient scheduling input")

// ProjectKind distinguishes final defenses from interim reviews.
type ProjectKind string

const (
	ProjectKindFinal   ProjectKind = "FINAL"
	ProjectKindInterim ProjectKind = "INTERIM"
)

// Project is a defense that needs exactly one slot.
type Project struct {
	ID            string      `json:"id"`
	Title         string      `json:"title,omitempty"`
	Kind          ProjectKind `json:"kind"`
	ResponsibleID string      `json:"responsibleId"`
	JuryCount     int         `json:"juryCount"`
}

// Instructor can act as responsible or jury member.
type Instructor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Classroom hosts defenses. Capacity is informational only.
type Classroom struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
}

// Timeslot is an ordered slot; Index defines adjacency.
type Timeslot struct {
	ID    string    `json:"id"`
	Index int       `json:"index"`
	Start time.Time `json:"start"`
}

// Load is the derived workload of one instructor inside a schedule.
type Load struct {
	Responsible int `json:"responsible"`
	Jury        int `json:"jury"`
}

// Problem is the immutable domain model shared by every run.
type Problem struct {
	projects    []Project
	instructors []Instructor
	classrooms  []Classroom
	timeslots   []Timeslot

	projectIndex    map[string]int
	instructorIndex map[string]int
	classroomIndex  map[string]int
	timeslotIndex   map[string]int
}

// NewProblem validates and normalises the input collections.
func NewProblem(projects []Project, instructors []Instructor, classrooms []Classroom, timeslots []Timeslot) (*Problem, error) {
	switch {
	case len(projects) == 0:
		return nil, fmt.Errorf("%w: no projects", ErrInsufficientInput)
	case len(instructors) == 0:
		return nil, fmt.Errorf("%w: no instructors", ErrInsufficientInput)
	case len(classrooms) == 0:
		return nil, fmt.Errorf("%w: no classrooms", ErrInsufficientInput)
	case len(timeslots) == 0:
		return nil, fmt.Errorf("%w: no timeslots", ErrInsufficientInput)
	}

	p := &Problem{
		projects:        make([]Project, 0, len(projects)),
		instructors:     make([]Instructor, 0, len(instructors)),
		classrooms:      make([]Classroom, 0, len(classrooms)),
		timeslots:       make([]Timeslot, 0, len(timeslots)),
		projectIndex:    make(map[string]int, len(projects)),
		instructorIndex: make(map[string]int, len(instructors)),
		classroomIndex:  make(map[string]int, len(classrooms)),
		timeslotIndex:   make(map[string]int, len(timeslots)),
	}

	for _, in := range instructors {
		p.addInstructor(in)
	}
	for _, room := range classrooms {
		if _, ok := p.classroomIndex[room.ID]; ok {
			continue
		}
		p.classroomIndex[room.ID] = len(p.classrooms)
		p.classrooms = append(p.classrooms, room)
	}

	slots := make([]Timeslot, 0, len(timeslots))
	seen := make(map[string]bool, len(timeslots))
	for _, slot := range timeslots {
		if seen[slot.ID] {
			continue
		}
		seen[slot.ID] = true
		slots = append(slots, slot)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Index < slots[j].Index })
	for i, slot := range slots {
		p.timeslotIndex[slot.ID] = i
		p.timeslots = append(p.timeslots, slot)
	}

	for _, project := range projects {
		if _, ok := p.projectIndex[project.ID]; ok {
			continue
		}
		project.Kind = ParseProjectKind(string(project.Kind))
		if project.JuryCount < 1 {
			project.JuryCount = 1
		}
		if project.ResponsibleID != "" {
			if _, ok := p.instructorIndex[project.ResponsibleID]; !ok {
				p.addInstructor(Instructor{ID: project.ResponsibleID, Name: project.ResponsibleID})
			}
		}
		p.projectIndex[project.ID] = len(p.projects)
		p.projects = append(p.projects, project)
	}

	return p, nil
}

// ParseProjectKind maps a kind name onto ProjectKind ignoring case. Anything
// other than INTERIM is a final defense.
func ParseProjectKind(name string) ProjectKind {
	if ProjectKind(strings.ToUpper(strings.TrimSpace(name))) == ProjectKindInterim {
		return ProjectKindInterim
	}
	return ProjectKindFinal
}

func (p *Problem) addInstructor(in Instructor) {
	if _, ok := p.instructorIndex[in.ID]; ok {
		return
	}
	if in.Name == "" {
		in.Name = in.ID
	}
	p.instructorIndex[in.ID] = len(p.instructors)
	p.instructors = append(p.instructors, in)
}

// Projects returns the projects in input order.
func (p *Problem) Projects() []Project { return append([]Project(nil), p.projects...) }

// Instructors returns the instructors in input order.
func (p *Problem) Instructors() []Instructor { return append([]Instructor(nil), p.instructors...) }

// Classrooms returns the classrooms in input order.
func (p *Problem) Classrooms() []Classroom { return append([]Classroom(nil), p.classrooms...) }

// Timeslots returns the timeslots ordered by Index.
func (p *Problem) Timeslots() []Timeslot { return append([]Timeslot(nil), p.timeslots...) }

// Project looks up a project by id.
func (p *Problem) Project(id string) (Project, bool) {
	idx, ok := p.projectIndex[id]
	if !ok {
		return Project{}, false
	}
	return p.projects[idx], true
}

// Timeslot looks up a timeslot by id.
func (p *Problem) Timeslot(id string) (Timeslot, bool) {
	idx, ok := p.timeslotIndex[id]
	if !ok {
		return Timeslot{}, false
	}
	return p.timeslots[idx], true
}

// HasClassroom reports whether the classroom id is known.
func (p *Problem) HasClassroom(id string) bool {
	_, ok := p.classroomIndex[id]
	return ok
}

// HasInstructor reports whether the instructor id is known.
func (p *Problem) HasInstructor(id string) bool {
	_, ok := p.instructorIndex[id]
	return ok
}

// slotPosition is the dense 0-based position of a timeslot in Index order.
// Unknown ids sort after every real slot.
func (p *Problem) slotPosition(id string) int {
	if idx, ok := p.timeslotIndex[id]; ok {
		return idx
	}
	return len(p.timeslots)
}

// adjacentSlots reports whether slot b directly follows slot a, that is
// Index(b) == Index(a)+1. Unknown ids are never adjacent.
func (p *Problem) adjacentSlots(a, b string) bool {
	ia, okA := p.timeslotIndex[a]
	ib, okB := p.timeslotIndex[b]
	return okA && okB && p.timeslots[ib].Index == p.timeslots[ia].Index+1
}

// slotsBetween counts the defined timeslots whose Index lies strictly between
// the indices of a and b.
func (p *Problem) slotsBetween(a, b string) int {
	ia, okA := p.timeslotIndex[a]
	ib, okB := p.timeslotIndex[b]
	if !okA || !okB {
		return 0
	}
	lo, hi := p.timeslots[ia].Index, p.timeslots[ib].Index
	if lo > hi {
		lo, hi = hi, lo
	}
	first := sort.Search(len(p.timeslots), func(i int) bool { return p.timeslots[i].Index > lo })
	last := sort.Search(len(p.timeslots), func(i int) bool { return p.timeslots[i].Index >= hi })
	if last < first {
		return 0
	}
	return last - first
}

// slotsAfter lists the positions following pos, starting with the slots whose
// Index is Index(pos)+1 and continuing in Index order.
func (p *Problem) slotsAfter(pos int) []int {
	if pos < 0 {
		pos = -1
	}
	order := make([]int, 0, len(p.timeslots))
	next := -1
	if pos >= 0 && pos < len(p.timeslots) {
		next = p.timeslots[pos].Index + 1
		for i := pos + 1; i < len(p.timeslots); i++ {
			if p.timeslots[i].Index == next {
				order = append(order, i)
			}
		}
	}
	for i := pos + 1; i < len(p.timeslots); i++ {
		if pos >= 0 && p.timeslots[i].Index == next {
			continue
		}
		order = append(order, i)
	}
	return order
}

// ResponsibleCounts counts the projects each instructor is responsible for.
func (p *Problem) ResponsibleCounts() map[string]int {
	counts := make(map[string]int, len(p.instructors))
	for _, in := range p.instructors {
		counts[in.ID] = 0
	}
	for _, project := range p.projects {
		if project.ResponsibleID != "" {
			counts[project.ResponsibleID]++
		}
	}
	return counts
}

// projectsOf returns the projects an instructor is responsible for, in input order.
func (p *Problem) projectsOf(instructorID string) []Project {
	var result []Project
	for _, project := range p.projects {
		if project.ResponsibleID == instructorID {
			result = append(result, project)
		}
	}
	return result
}
