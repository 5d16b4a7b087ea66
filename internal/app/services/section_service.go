package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/metrics"
)

// SectionService handles enrollment and instructor assignment on one section
type SectionService struct {
	sectionRepo *repositories.SectionRepository
	rosterRepo  *repositories.RosterRepository
	userRepo    *repositories.UserRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewSectionService creates a new SectionService
func NewSectionService(repos *repositories.Repositories, m *metrics.Metrics, logger zerolog.Logger) *SectionService {
	return &SectionService{
		sectionRepo: repos.SectionRepository,
		rosterRepo:  repos.RosterRepository,
		userRepo:    repos.UserRepository,
		metrics:     m,
		logger:      logger,
	}
}

// Get returns a section with its enrollment count and instructor filled in
func (s *SectionService) Get(ctx context.Context, crn string) (*models.Section, error) {
	section, err := s.sectionRepo.GetByCRN(ctx, crn)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, section)
	return section, nil
}

func (s *SectionService) fill(ctx context.Context, section *models.Section) {
	section.Enrolled = s.rosterRepo.Count(ctx, section.CRN)
	section.InstructorID, _ = s.rosterRepo.InstructorOf(ctx, section.CRN)
}

// Enroll adds a student to the section roster. Only the section's own rules
// apply here: duplicates and capacity.
func (s *SectionService) Enroll(ctx context.Context, crn, studentID string) error {
	section, err := s.sectionRepo.GetByCRN(ctx, crn)
	if err != nil {
		return err
	}
	if _, err := requireRole(ctx, s.userRepo, studentID, models.RoleStudent); err != nil {
		return err
	}
	return s.enroll(ctx, section, studentID, nil)
}

// enroll runs guard under the roster lock after confirming the section still
// exists, so an enrollment cannot land on a section being removed.
func (s *SectionService) enroll(ctx context.Context, section *models.Section, studentID string, guard repositories.EnrollGuard) error {
	exists := s.exists(ctx, section.CRN)
	live := func(enrolled []string) error {
		if err := exists(); err != nil {
			return err
		}
		if guard == nil {
			return nil
		}
		return guard(enrolled)
	}

	err := s.rosterRepo.Enroll(ctx, section.CRN, studentID, section.Capacity, live)
	s.metrics.ObserveEnrollment(enrollmentResult(err))
	if err != nil {
		s.logger.Debug().Err(err).
			Str("crn", section.CRN).
			Str("studentId", studentID).
			Msg("Enrollment rejected")
		return err
	}

	s.logger.Debug().
		Str("crn", section.CRN).
		Str("courseId", section.CourseID).
		Str("studentId", studentID).
		Msg("Student enrolled")
	return nil
}

// exists re-reads the section record. Removal deletes the record before it
// empties the roster, so a passing check under the roster lock means the
// removal has not reached the section yet.
func (s *SectionService) exists(ctx context.Context, crn string) repositories.Precondition {
	return func() error {
		_, err := s.sectionRepo.GetByCRN(ctx, crn)
		return err
	}
}

// Drop removes a student from the section roster
func (s *SectionService) Drop(ctx context.Context, crn, studentID string) error {
	if _, err := s.sectionRepo.GetByCRN(ctx, crn); err != nil {
		return err
	}
	if err := s.rosterRepo.Drop(ctx, crn, studentID); err != nil {
		return err
	}
	s.metrics.ObserveDrop()
	s.logger.Debug().Str("crn", crn).Str("studentId", studentID).Msg("Student dropped")
	return nil
}

// AssignInstructor makes instructorID the instructor of the section. An
// empty instructorID unassigns the current one.
func (s *SectionService) AssignInstructor(ctx context.Context, crn, instructorID string) error {
	if _, err := s.sectionRepo.GetByCRN(ctx, crn); err != nil {
		return err
	}
	if instructorID != "" {
		if _, err := requireRole(ctx, s.userRepo, instructorID, models.RoleInstructor); err != nil {
			return err
		}
	}

	var previous string
	if instructorID == "" {
		previous = s.rosterRepo.Assign(ctx, crn, "")
	} else {
		var err error
		if previous, err = s.rosterRepo.AssignIf(ctx, crn, instructorID, s.exists(ctx, crn)); err != nil {
			return err
		}
	}
	s.logger.Debug().
		Str("crn", crn).
		Str("previous", previous).
		Str("instructorId", instructorID).
		Msg("Section instructor changed")
	return nil
}

// IsFull reports whether the roster has reached capacity
func (s *SectionService) IsFull(ctx context.Context, crn string) (bool, error) {
	section, err := s.Get(ctx, crn)
	if err != nil {
		return false, err
	}
	return section.IsFull(), nil
}

// EnrolledCount returns the roster size of the section
func (s *SectionService) EnrolledCount(ctx context.Context, crn string) (int, error) {
	if _, err := s.sectionRepo.GetByCRN(ctx, crn); err != nil {
		return 0, err
	}
	return s.rosterRepo.Count(ctx, crn), nil
}

// Roster returns the enrolled students in enrollment order
func (s *SectionService) Roster(ctx context.Context, crn string) ([]*models.User, error) {
	if _, err := s.sectionRepo.GetByCRN(ctx, crn); err != nil {
		return nil, err
	}

	ids := s.rosterRepo.Roster(ctx, crn)
	students := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		student, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("crn", crn).Str("studentId", id).Msg("Roster entry has no identity")
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// Instructor returns the assigned instructor, or ErrNotAssigned
func (s *SectionService) Instructor(ctx context.Context, crn string) (*models.User, error) {
	if _, err := s.sectionRepo.GetByCRN(ctx, crn); err != nil {
		return nil, err
	}
	id, ok := s.rosterRepo.InstructorOf(ctx, crn)
	if !ok {
		return nil, apperrors.ErrNotAssigned
	}
	return s.userRepo.GetByID(ctx, id)
}
