package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// ScheduledMeeting is one weekly meeting of an enrolled section
type ScheduledMeeting struct {
	CourseID string          `json:"courseId"`
	CRN      string          `json:"crn"`
	Slot     models.TimeSlot `json:"slot"`
}

// StudentService handles student enrollment rules and advising holds
type StudentService struct {
	userRepo    *repositories.UserRepository
	sectionRepo *repositories.SectionRepository
	rosterRepo  *repositories.RosterRepository
	sections    *SectionService
	logger      zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(repos *repositories.Repositories, sections *SectionService, logger zerolog.Logger) *StudentService {
	return &StudentService{
		userRepo:    repos.UserRepository,
		sectionRepo: repos.SectionRepository,
		rosterRepo:  repos.RosterRepository,
		sections:    sections,
		logger:      logger,
	}
}

// Enroll registers a student for a section. An advising hold is checked
// before anything else; then each current section is compared with the
// target, course first and schedule second, before the section's own rules.
func (s *StudentService) Enroll(ctx context.Context, studentID, crn string) error {
	student, err := requireRole(ctx, s.userRepo, studentID, models.RoleStudent)
	if err != nil {
		return err
	}
	if hasHold(student) {
		s.sections.metrics.ObserveEnrollment(enrollmentResult(apperrors.ErrAdvisingHold))
		return apperrors.ErrAdvisingHold
	}

	target, err := s.sectionRepo.GetByCRN(ctx, crn)
	if err != nil {
		return err
	}

	// Runs under the roster lock, so concurrent enrollments of one student
	// see each other's result.
	guard := func(enrolled []string) error {
		current, err := s.userRepo.GetByID(ctx, studentID)
		if err != nil {
			return err
		}
		if hasHold(current) {
			return apperrors.ErrAdvisingHold
		}
		for _, existing := range s.sectionRepo.GetMany(ctx, enrolled) {
			if existing.CourseID == target.CourseID {
				return apperrors.ErrDuplicateCourse
			}
			if existing.ConflictsWith(*target) {
				return fmt.Errorf("%w: overlaps section %s", apperrors.ErrTimeConflict, existing.CRN)
			}
		}
		return nil
	}

	return s.sections.enroll(ctx, target, studentID, guard)
}

// Drop removes the student from a section
func (s *StudentService) Drop(ctx context.Context, studentID, crn string) error {
	if _, err := requireRole(ctx, s.userRepo, studentID, models.RoleStudent); err != nil {
		return err
	}
	return s.sections.Drop(ctx, crn, studentID)
}

// SetAdvisingHold sets or clears the student's advising hold
func (s *StudentService) SetAdvisingHold(ctx context.Context, studentID string, hold bool) error {
	_, err := s.userRepo.Update(ctx, studentID, func(user *models.User) error {
		if !user.IsStudent() {
			return fmt.Errorf("%w: %s is not a student", apperrors.ErrWrongRole, studentID)
		}
		if user.Student == nil {
			user.Student = &models.StudentProfile{}
		}
		user.Student.AdvisingHold = hold
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("studentId", studentID).Bool("hold", hold).Msg("Advising hold updated")
	return nil
}

// HasAdvisingHold reports the student's advising hold
func (s *StudentService) HasAdvisingHold(ctx context.Context, studentID string) (bool, error) {
	student, err := requireRole(ctx, s.userRepo, studentID, models.RoleStudent)
	if err != nil {
		return false, err
	}
	return hasHold(student), nil
}

// EnrolledSections returns the student's sections in enrollment order
func (s *StudentService) EnrolledSections(ctx context.Context, studentID string) ([]*models.Section, error) {
	if _, err := requireRole(ctx, s.userRepo, studentID, models.RoleStudent); err != nil {
		return nil, err
	}

	sections := s.sectionRepo.GetMany(ctx, s.rosterRepo.Schedule(ctx, studentID))
	for _, section := range sections {
		s.sections.fill(ctx, section)
	}
	return sections, nil
}

// ScheduleForDay returns the student's meetings on day, earliest first
func (s *StudentService) ScheduleForDay(ctx context.Context, studentID string, day time.Weekday) ([]ScheduledMeeting, error) {
	sections, err := s.EnrolledSections(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var meetings []ScheduledMeeting
	for _, section := range sections {
		for _, slot := range section.TimeSlots {
			if slot.Day() != day {
				continue
			}
			meetings = append(meetings, ScheduledMeeting{
				CourseID: section.CourseID,
				CRN:      section.CRN,
				Slot:     slot,
			})
		}
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].Slot.Start() < meetings[j].Slot.Start()
	})
	return meetings, nil
}

func hasHold(user *models.User) bool {
	return user.Student != nil && user.Student.AdvisingHold
}
