package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// InstructorService handles operations related to instructors
type InstructorService struct {
	userRepo    *repositories.UserRepository
	sectionRepo *repositories.SectionRepository
	rosterRepo  *repositories.RosterRepository
	sections    *SectionService
	logger      zerolog.Logger
}

// NewInstructorService creates a new InstructorService
func NewInstructorService(repos *repositories.Repositories, sections *SectionService, logger zerolog.Logger) *InstructorService {
	return &InstructorService{
		userRepo:    repos.UserRepository,
		sectionRepo: repos.SectionRepository,
		rosterRepo:  repos.RosterRepository,
		sections:    sections,
		logger:      logger,
	}
}

// AssignCourse gives the instructor a section. A section held by another
// instructor moves to this one.
func (s *InstructorService) AssignCourse(ctx context.Context, instructorID, crn string) error {
	if _, err := requireRole(ctx, s.userRepo, instructorID, models.RoleInstructor); err != nil {
		return err
	}
	if err := s.rosterRepo.AssignIfNotHeld(ctx, instructorID, crn, s.sections.exists(ctx, crn)); err != nil {
		return err
	}

	s.logger.Debug().Str("instructorId", instructorID).Str("crn", crn).Msg("Instructor assigned")
	return nil
}

// RemoveCourseAssignment takes a section away from the instructor
func (s *InstructorService) RemoveCourseAssignment(ctx context.Context, instructorID, crn string) error {
	if _, err := requireRole(ctx, s.userRepo, instructorID, models.RoleInstructor); err != nil {
		return err
	}
	if err := s.rosterRepo.UnassignIfHeld(ctx, instructorID, crn); err != nil {
		return err
	}

	s.logger.Debug().Str("instructorId", instructorID).Str("crn", crn).Msg("Instructor unassigned")
	return nil
}

// AssignedSections returns the instructor's sections in assignment order
func (s *InstructorService) AssignedSections(ctx context.Context, instructorID string) ([]*models.Section, error) {
	if _, err := requireRole(ctx, s.userRepo, instructorID, models.RoleInstructor); err != nil {
		return nil, err
	}

	sections := s.sectionRepo.GetMany(ctx, s.rosterRepo.Assignments(ctx, instructorID))
	for _, section := range sections {
		s.sections.fill(ctx, section)
	}
	return sections, nil
}

// SectionRoster returns the students of a section the instructor teaches
func (s *InstructorService) SectionRoster(ctx context.Context, instructorID, crn string) ([]*models.User, error) {
	if _, err := requireRole(ctx, s.userRepo, instructorID, models.RoleInstructor); err != nil {
		return nil, err
	}
	if current, ok := s.rosterRepo.InstructorOf(ctx, crn); !ok || current != instructorID {
		return nil, apperrors.ErrNotAssigned
	}
	return s.sections.Roster(ctx, crn)
}
