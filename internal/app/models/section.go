package models

import (
	"fmt"
	"strings"
)

// Section is one scheduled offering of a course.
type Section struct {
	CRN       string     `json:"crn"`       // Catalog-wide reference number
	Number    string     `json:"number"`    // Section number within the course, e.g. "001"
	CourseID  string     `json:"courseId"`  // Owning course
	Capacity  int        `json:"capacity"`  // Maximum roster size
	TimeSlots []TimeSlot `json:"timeSlots"` // Weekly meetings, never empty

	// Snapshot of relationship state, filled in by the services on reads
	Enrolled     int    `json:"enrolled"`
	InstructorID string `json:"instructorId,omitempty"`
}

// IsFull reports whether the snapshot roster has reached capacity.
func (s Section) IsFull() bool {
	return s.Enrolled >= s.Capacity
}

// SizeLabel renders the enrollment as "enrolled/capacity".
func (s Section) SizeLabel() string {
	return fmt.Sprintf("%d/%d", s.Enrolled, s.Capacity)
}

// ConflictsWith reports whether any meeting of s overlaps any meeting of other.
func (s Section) ConflictsWith(other Section) bool {
	return SlotsConflict(s.TimeSlots, other.TimeSlots)
}

// ScheduleLabel joins the section's meetings for display.
func (s Section) ScheduleLabel() string {
	parts := make([]string, 0, len(s.TimeSlots))
	for _, slot := range s.TimeSlots {
		parts = append(parts, slot.String())
	}
	return strings.Join(parts, ", ")
}

// Clone returns a copy that shares no slices with s.
func (s Section) Clone() Section {
	out := s
	out.TimeSlots = append([]TimeSlot(nil), s.TimeSlots...)
	return out
}
