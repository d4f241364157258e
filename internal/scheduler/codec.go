package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// ErrInstructorSeparator is returned when an instructor id contains the CSV
// instructor separator.
var ErrInstructorSeparator = errors.New("instructor id contains ';'")

const instructorSeparator = ";"

type scheduleDocument struct {
	Assignments []Assignment `json:"assignments"`
}

type assignmentRow struct {
	ProjectID   string `csv:"project_id"`
	ClassroomID string `csv:"classroom_id"`
	TimeslotID  string `csv:"timeslot_id"`
	Instructors string `csv:"instructors"`
}

// EncodeJSON serialises the schedule's assignments.
func EncodeJSON(s *Schedule) ([]byte, error) {
	return EncodeAssignmentsJSON(s.Assignments())
}

// EncodeAssignmentsJSON serialises detached assignments in the EncodeJSON format.
func EncodeAssignmentsJSON(assignments []Assignment) ([]byte, error) {
	if assignments == nil {
		assignments = []Assignment{}
	}
	return json.Marshal(scheduleDocument{Assignments: assignments})
}

// DecodeJSON rebuilds a schedule for the problem from EncodeJSON output.
func DecodeJSON(problem *Problem, data []byte) (*Schedule, error) {
	var doc scheduleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schedule json: %w", err)
	}
	return FromAssignments(problem, doc.Assignments), nil
}

// EncodeCSV writes one row per assignment with ';'-joined instructors.
func EncodeCSV(s *Schedule) ([]byte, error) {
	return EncodeAssignmentsCSV(s.assignments)
}

// EncodeAssignmentsCSV writes detached assignments in the EncodeCSV format.
func EncodeAssignmentsCSV(assignments []Assignment) ([]byte, error) {
	rows := make([]*assignmentRow, 0, len(assignments))
	for _, a := range assignments {
		for _, in := range a.Instructors {
			if strings.Contains(in, instructorSeparator) {
				return nil, fmt.Errorf("encode schedule csv: %w: %q", ErrInstructorSeparator, in)
			}
		}
		rows = append(rows, &assignmentRow{
			ProjectID:   a.ProjectID,
			ClassroomID: a.ClassroomID,
			TimeslotID:  a.TimeslotID,
			Instructors: strings.Join(a.Instructors, instructorSeparator),
		})
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("encode schedule csv: %w", err)
	}
	return data, nil
}

// DecodeCSV rebuilds a schedule for the problem from EncodeCSV output.
func DecodeCSV(problem *Problem, data []byte) (*Schedule, error) {
	var rows []*assignmentRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode schedule csv: %w", err)
	}
	assignments := make([]Assignment, 0, len(rows))
	for _, row := range rows {
		var instructors []string
		if row.Instructors != "" {
			instructors = strings.Split(row.Instructors, instructorSeparator)
		}
		assignments = append(assignments, Assignment{
			ProjectID:   row.ProjectID,
			ClassroomID: row.ClassroomID,
			TimeslotID:  row.TimeslotID,
			Instructors: instructors,
		})
	}
	return FromAssignments(problem, assignments), nil
}

// FromAssignments builds a schedule with fresh indices from assignments.
func FromAssignments(problem *Problem, assignments []Assignment) *Schedule {
	s := NewSchedule(problem)
	for _, a := range assignments {
		s.Add(a)
	}
	return s
}
