package repositories

import (
	"context"
	"sync"

	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// EnrollGuard inspects a student's current sections before an enrollment is
// committed. A non-nil error aborts the enrollment.
type EnrollGuard func(enrolledCRNs []string) error

// Precondition is checked under the roster lock before a link is added. A
// non-nil error aborts the change.
type Precondition func() error

// RosterRepository owns both directions of every student-section and
// instructor-section link. Each method updates both sides under one lock, so
// a roster and a schedule can never disagree.
type RosterRepository struct {
	mu          sync.RWMutex
	rosters     map[string][]string // crn -> student ids
	schedules   map[string][]string // student id -> crns
	instructors map[string]string   // crn -> instructor id
	assignments map[string][]string // instructor id -> crns
}

// NewRosterRepository creates an empty relationship store
func NewRosterRepository() *RosterRepository {
	return &RosterRepository{
		rosters:     make(map[string][]string),
		schedules:   make(map[string][]string),
		instructors: make(map[string]string),
		assignments: make(map[string][]string),
	}
}

// Enroll adds studentID to the roster of crn. guard runs first, under the
// lock, with the student's current sections.
func (r *RosterRepository) Enroll(_ context.Context, crn, studentID string, capacity int, guard EnrollGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if guard != nil {
		if err := guard(copyStrings(r.schedules[studentID])); err != nil {
			return err
		}
	}

	roster := r.rosters[crn]
	if containsString(roster, studentID) {
		return apperrors.ErrAlreadyEnrolled
	}
	if len(roster) >= capacity {
		return apperrors.ErrCapacityExceeded
	}

	r.rosters[crn] = append(roster, studentID)
	r.schedules[studentID] = append(r.schedules[studentID], crn)
	return nil
}

// Drop removes studentID from the roster of crn
func (r *RosterRepository) Drop(_ context.Context, crn, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropLocked(crn, studentID)
}

func (r *RosterRepository) dropLocked(crn, studentID string) error {
	roster, removed := removeString(r.rosters[crn], studentID)
	if !removed {
		return apperrors.ErrNotEnrolled
	}
	r.setOrDelete(r.rosters, crn, roster)

	schedule, _ := removeString(r.schedules[studentID], crn)
	r.setOrDelete(r.schedules, studentID, schedule)
	return nil
}

func (r *RosterRepository) setOrDelete(m map[string][]string, key string, list []string) {
	if len(list) == 0 {
		delete(m, key)
		return
	}
	m[key] = list
}

// Roster returns the student ids enrolled in crn, in enrollment order
func (r *RosterRepository) Roster(_ context.Context, crn string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyStrings(r.rosters[crn])
}

// Count returns the roster size of crn
func (r *RosterRepository) Count(_ context.Context, crn string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rosters[crn])
}

// IsEnrolled reports whether studentID is on the roster of crn
func (r *RosterRepository) IsEnrolled(_ context.Context, crn, studentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return containsString(r.rosters[crn], studentID)
}

// Schedule returns the sections a student is enrolled in, in enrollment order
func (r *RosterRepository) Schedule(_ context.Context, studentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyStrings(r.schedules[studentID])
}

// Assign makes instructorID the instructor of crn. An empty instructorID
// unassigns. The previous holder, if any, loses the section. It returns the
// previous holder.
func (r *RosterRepository) Assign(_ context.Context, crn, instructorID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assignLocked(crn, instructorID)
}

// AssignIf is Assign after pre passes under the lock
func (r *RosterRepository) AssignIf(_ context.Context, crn, instructorID string, pre Precondition) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pre != nil {
		if err := pre(); err != nil {
			return "", err
		}
	}
	return r.assignLocked(crn, instructorID), nil
}

func (r *RosterRepository) assignLocked(crn, instructorID string) string {
	previous, held := r.instructors[crn]
	if held {
		list, _ := removeString(r.assignments[previous], crn)
		r.setOrDelete(r.assignments, previous, list)
		delete(r.instructors, crn)
	}
	if instructorID != "" {
		r.instructors[crn] = instructorID
		r.assignments[instructorID] = append(r.assignments[instructorID], crn)
	}
	return previous
}

// AssignIfNotHeld assigns crn to instructorID unless the instructor already
// holds it. pre, when set, runs first under the lock.
func (r *RosterRepository) AssignIfNotHeld(_ context.Context, instructorID, crn string, pre Precondition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pre != nil {
		if err := pre(); err != nil {
			return err
		}
	}

	if containsString(r.assignments[instructorID], crn) {
		return apperrors.ErrAlreadyAssigned
	}
	r.assignLocked(crn, instructorID)
	return nil
}

// UnassignIfHeld clears crn's instructor only when it is instructorID
func (r *RosterRepository) UnassignIfHeld(_ context.Context, instructorID, crn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.instructors[crn]; !ok || current != instructorID {
		return apperrors.ErrNotAssigned
	}
	r.assignLocked(crn, "")
	return nil
}

// InstructorOf returns the instructor of crn, if any
func (r *RosterRepository) InstructorOf(_ context.Context, crn string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.instructors[crn]
	return id, ok
}

// Assignments returns the sections held by instructorID, in assignment order
func (r *RosterRepository) Assignments(_ context.Context, instructorID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyStrings(r.assignments[instructorID])
}

// ForgetUser removes every link of userID: its enrollments as a student and
// its assignments as an instructor. It returns the affected sections.
func (r *RosterRepository) ForgetUser(_ context.Context, userID string) (dropped, unassigned []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, crn := range copyStrings(r.schedules[userID]) {
		if err := r.dropLocked(crn, userID); err == nil {
			dropped = append(dropped, crn)
		}
	}
	for _, crn := range copyStrings(r.assignments[userID]) {
		r.assignLocked(crn, "")
		unassigned = append(unassigned, crn)
	}
	return dropped, unassigned
}
