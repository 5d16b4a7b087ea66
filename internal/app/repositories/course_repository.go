package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/sequence"
)

// DefaultSectionNumberWidth pads section numbers to "001"
const DefaultSectionNumberWidth = 3

type courseRecord struct {
	course models.Course
	// sectionNumbers is scoped to this course and never rewinds
	sectionNumbers *sequence.Formatter
}

// CourseRepository stores the catalog's courses in insertion order
type CourseRepository struct {
	mu          sync.RWMutex
	courses     map[string]*courseRecord
	order       []string
	numberWidth int
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(sectionNumberWidth int) *CourseRepository {
	if sectionNumberWidth <= 0 {
		sectionNumberWidth = DefaultSectionNumberWidth
	}
	return &CourseRepository{
		courses:     make(map[string]*courseRecord),
		numberWidth: sectionNumberWidth,
	}
}

// Create stores a course if both its ID and its name are unused
func (r *CourseRepository) Create(_ context.Context, course models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.courses[course.ID]; exists {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateID, course.ID)
	}
	for _, id := range r.order {
		if r.courses[id].course.Name == course.Name {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateName, course.Name)
		}
	}

	stored := course.Clone()
	stored.SectionCRNs = nil
	r.courses[course.ID] = &courseRecord{
		course:         stored,
		sectionNumbers: sequence.NewFormatter(sequence.NewCounter(0), r.numberWidth),
	}
	r.order = append(r.order, course.ID)
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(_ context.Context, id string) (*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	course := record.course.Clone()
	return &course, nil
}

// GetAll retrieves all courses in the order they were added
func (r *CourseRepository) GetAll(_ context.Context) ([]*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	courses := make([]*models.Course, 0, len(r.order))
	for _, id := range r.order {
		course := r.courses[id].course.Clone()
		courses = append(courses, &course)
	}
	return courses, nil
}

// Count returns the number of stored courses
func (r *CourseRepository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Delete removes a course by ID
func (r *CourseRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.courses, id)
	r.order, _ = removeString(r.order, id)
	return nil
}

// NextSectionNumber allocates the next section number of a course
func (r *CourseRepository) NextSectionNumber(_ context.Context, courseID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.courses[courseID]
	if !ok {
		return "", apperrors.ErrCourseNotFound
	}
	return record.sectionNumbers.Next(), nil
}

// AddSection appends a section reference to a course
func (r *CourseRepository) AddSection(_ context.Context, courseID, crn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.courses[courseID]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	if containsString(record.course.SectionCRNs, crn) {
		return apperrors.NewConflictError(fmt.Sprintf("section %s already belongs to %s", crn, courseID))
	}
	record.course.SectionCRNs = append(record.course.SectionCRNs, crn)
	return nil
}

// RemoveSection detaches a section from its course
func (r *CourseRepository) RemoveSection(_ context.Context, courseID, crn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.courses[courseID]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	remaining, removed := removeString(record.course.SectionCRNs, crn)
	if !removed {
		return apperrors.ErrSectionNotFound
	}
	record.course.SectionCRNs = remaining
	return nil
}
