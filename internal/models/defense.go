package models

import "time"

// DefenseSessionStatus tracks whether a session is still being planned.
type DefenseSessionStatus string

const (
	DefenseSessionStatusPlanning  DefenseSessionStatus = "PLANNING"
	DefenseSessionStatusScheduled DefenseSessionStatus = "SCHEDULED"
	DefenseSessionStatusClosed    DefenseSessionStatus = "CLOSED"
)

// DefenseSession groups the projects, rooms and slots of one defense period.
type DefenseSession struct {
	ID        string               `db:"id" json:"id"`
	Name      string               `db:"name" json:"name"`
	Status    DefenseSessionStatus `db:"status" json:"status"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// DefenseProject is a project awaiting its defense slot.
type DefenseProject struct {
	ID                      string    `db:"id" json:"id"`
	SessionID               string    `db:"session_id" json:"session_id"`
	Title                   string    `db:"title" json:"title"`
	Kind                    string    `db:"kind" json:"kind"`
	ResponsibleInstructorID string    `db:"responsible_instructor_id" json:"responsible_instructor_id"`
	JuryCount               int       `db:"jury_count" json:"jury_count"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

// Instructor can supervise projects and sit on defense juries.
type Instructor struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Email *string `db:"email" json:"email,omitempty"`
}

// Classroom is a room available during a session.
type Classroom struct {
	ID        string `db:"id" json:"id"`
	SessionID string `db:"session_id" json:"session_id"`
	Name      string `db:"name" json:"name"`
	Capacity  int    `db:"capacity" json:"capacity"`
}

// Timeslot is an ordered defense slot of a session.
type Timeslot struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	SlotIndex int       `db:"slot_index" json:"slot_index"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
}

// DefenseSessionData is everything needed to build a scheduling problem.
type DefenseSessionData struct {
	Session     DefenseSession
	Projects    []DefenseProject
	Instructors []Instructor
	Classrooms  []Classroom
	Timeslots   []Timeslot
}
