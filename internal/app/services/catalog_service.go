package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/metrics"
	"github.com/yigit/registrar/internal/pkg/sequence"
)

// Catalog defaults
const (
	DefaultCRNBase  int64 = 10000
	DefaultCRNWidth       = 5
)

// CatalogConfig controls CRN issuance
type CatalogConfig struct {
	CRNBase  int64
	CRNWidth int
}

// CourseInput is the data needed to add a course
type CourseInput struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"gte=0"`
}

// SectionInput is the data needed to create a section
type SectionInput struct {
	CourseID  string            `json:"courseId" validate:"required"`
	Capacity  int               `json:"capacity" validate:"gt=0"`
	TimeSlots []models.TimeSlot `json:"timeSlots" validate:"min=1"`
}

// CatalogService handles courses, their sections and CRN issuance
type CatalogService struct {
	courseRepo  *repositories.CourseRepository
	sectionRepo *repositories.SectionRepository
	rosterRepo  *repositories.RosterRepository
	sections    *SectionService
	crns        *sequence.Formatter
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCatalogService creates a new CatalogService. CRNs start right above cfg.CRNBase.
func NewCatalogService(repos *repositories.Repositories, cfg CatalogConfig, sections *SectionService, m *metrics.Metrics, logger zerolog.Logger) *CatalogService {
	if cfg.CRNWidth <= 0 {
		cfg.CRNWidth = DefaultCRNWidth
	}
	return &CatalogService{
		courseRepo:  repos.CourseRepository,
		sectionRepo: repos.SectionRepository,
		rosterRepo:  repos.RosterRepository,
		sections:    sections,
		crns:        sequence.NewFormatter(sequence.NewCounter(cfg.CRNBase), cfg.CRNWidth),
		metrics:     m,
		logger:      logger,
	}
}

// AddCourse adds a course to the catalog
func (s *CatalogService) AddCourse(ctx context.Context, input CourseInput) (*models.Course, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	course := models.Course{
		ID:          input.ID,
		Name:        input.Name,
		Description: input.Description,
		Credits:     input.Credits,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.refreshSize(ctx)
	s.logger.Debug().Str("courseId", course.ID).Str("name", course.Name).Msg("Course added")
	return s.courseRepo.GetByID(ctx, course.ID)
}

// CreateSection adds a section to a course. The section gets the course's
// next section number and the catalog's next CRN.
func (s *CatalogService) CreateSection(ctx context.Context, courseID string, slots []models.TimeSlot, capacity int) (*models.Section, error) {
	input := SectionInput{CourseID: courseID, Capacity: capacity, TimeSlots: slots}
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	for _, slot := range slots {
		if slot.End() <= slot.Start() {
			return nil, apperrors.ErrInvalidDuration
		}
	}

	number, err := s.courseRepo.NextSectionNumber(ctx, courseID)
	if err != nil {
		return nil, err
	}

	section := models.Section{
		CRN:       s.crns.Next(),
		Number:    number,
		CourseID:  courseID,
		Capacity:  capacity,
		TimeSlots: append([]models.TimeSlot(nil), slots...),
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, err
	}
	if err := s.courseRepo.AddSection(ctx, courseID, section.CRN); err != nil {
		// course removed in between
		_ = s.sectionRepo.Delete(ctx, section.CRN)
		return nil, err
	}

	s.metrics.AddSections(1)
	s.logger.Debug().
		Str("courseId", courseID).
		Str("crn", section.CRN).
		Str("number", section.Number).
		Int("capacity", capacity).
		Msg("Section created")
	return &section, nil
}

// RemoveSection destroys a section of a course: every student is dropped and
// the instructor unassigned first.
func (s *CatalogService) RemoveSection(ctx context.Context, courseID, crn string) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if !course.HasSection(crn) {
		return apperrors.ErrSectionNotFound
	}
	return s.destroySection(ctx, courseID, crn)
}

// destroySection is best-effort: completed steps stay done when a later one
// fails. The section record goes first so no enrollment can start on it while
// its roster is being emptied.
func (s *CatalogService) destroySection(ctx context.Context, courseID, crn string) error {
	var errs []error
	if err := s.sectionRepo.Delete(ctx, crn); err != nil {
		errs = append(errs, err)
	} else {
		s.metrics.AddSections(-1)
	}
	if err := s.courseRepo.RemoveSection(ctx, courseID, crn); err != nil {
		errs = append(errs, err)
	}

	for _, studentID := range s.rosterRepo.Roster(ctx, crn) {
		err := s.rosterRepo.Drop(ctx, crn, studentID)
		switch {
		case err == nil:
			s.metrics.ObserveDrop()
		case !errors.Is(err, apperrors.ErrNotEnrolled):
			errs = append(errs, fmt.Errorf("drop %s: %w", studentID, err))
		}
	}
	if previous := s.rosterRepo.Assign(ctx, crn, ""); previous != "" {
		s.logger.Debug().Str("crn", crn).Str("instructorId", previous).Msg("Instructor unassigned by section removal")
	}

	s.logger.Debug().Str("courseId", courseID).Str("crn", crn).Msg("Section removed")
	return errors.Join(errs...)
}

// RemoveCourse removes a course and every one of its sections
func (s *CatalogService) RemoveCourse(ctx context.Context, courseID string) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return err
	}

	var errs []error
	for _, crn := range course.SectionCRNs {
		if err := s.destroySection(ctx, courseID, crn); err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", crn, err))
		}
	}
	if err := s.courseRepo.Delete(ctx, courseID); err != nil {
		errs = append(errs, err)
	}

	s.refreshSize(ctx)
	s.logger.Debug().Str("courseId", courseID).Int("sections", len(course.SectionCRNs)).Msg("Course removed")
	return errors.Join(errs...)
}

// FindCourseByID returns a course by its ID
func (s *CatalogService) FindCourseByID(ctx context.Context, courseID string) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, courseID)
}

// FindSectionByReference returns a section by CRN
func (s *CatalogService) FindSectionByReference(ctx context.Context, crn string) (*models.Section, error) {
	return s.sections.Get(ctx, crn)
}

// ListCourses returns every course in creation order
func (s *CatalogService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	return s.courseRepo.GetAll(ctx)
}

// ListSections returns the sections of one course, or of the whole catalog
// when courseID is empty
func (s *CatalogService) ListSections(ctx context.Context, courseID string) ([]*models.Section, error) {
	var courses []*models.Course
	if courseID != "" {
		course, err := s.courseRepo.GetByID(ctx, courseID)
		if err != nil {
			return nil, err
		}
		courses = []*models.Course{course}
	} else {
		all, err := s.courseRepo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		courses = all
	}

	var sections []*models.Section
	for _, course := range courses {
		for _, section := range s.sectionRepo.GetMany(ctx, course.SectionCRNs) {
			s.sections.fill(ctx, section)
			sections = append(sections, section)
		}
	}
	return sections, nil
}

func (s *CatalogService) refreshSize(ctx context.Context) {
	s.metrics.SetCatalogSize(s.courseRepo.Count(ctx), s.sectionRepo.Count(ctx))
}
