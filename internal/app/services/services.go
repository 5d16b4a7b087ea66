package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/metrics"
)

// Services defined in this package:
// - AccountService: Handles identities, credentials and generated emails and ids
// - CatalogService: Handles courses, sections and CRN issuance
// - SectionService: Handles section enrollment and instructor assignment
// - StudentService: Handles student enrollment rules and advising holds
// - InstructorService: Handles instructor assignments and rosters
// - AdminService: Handles permissions and permission-gated administration

var validate = validator.New()

// Services bundles every service built over one set of repositories
type Services struct {
	Accounts    *AccountService
	Catalog     *CatalogService
	Sections    *SectionService
	Students    *StudentService
	Instructors *InstructorService
	Admins      *AdminService
}

// Config carries the settings services are built with
type Config struct {
	Accounts AccountConfig
	Catalog  CatalogConfig
}

// NewServices wires every service over repos. Each service logs under its own
// component name.
func NewServices(repos *repositories.Repositories, cfg Config, m *metrics.Metrics, logger zerolog.Logger, opts ...AccountOption) (*Services, error) {
	component := func(name string) zerolog.Logger {
		return logger.With().Str("component", name).Logger()
	}

	sections := NewSectionService(repos, m, component("sections"))
	students := NewStudentService(repos, sections, component("students"))
	instructors := NewInstructorService(repos, sections, component("instructors"))
	catalog := NewCatalogService(repos, cfg.Catalog, sections, m, component("catalog"))
	accounts, err := NewAccountService(repos, cfg.Accounts, m, component("accounts"), opts...)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	admins := NewAdminService(repos, accounts, catalog, sections, students, m, component("admins"))

	return &Services{
		Accounts:    accounts,
		Catalog:     catalog,
		Sections:    sections,
		Students:    students,
		Instructors: instructors,
		Admins:      admins,
	}, nil
}

// validationError turns validator output into an ErrValidationFailed wrapper
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidationFailed, strings.Join(fields, "; "))
}

// requireRole loads a user and checks its role
func requireRole(ctx context.Context, users *repositories.UserRepository, id string, role models.RoleType) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.RoleType != role {
		return nil, fmt.Errorf("%w: %s is %s, not %s", apperrors.ErrWrongRole, id, user.RoleType, role)
	}
	return user, nil
}

// enrollmentResult maps an enrollment outcome to its metrics label
func enrollmentResult(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, apperrors.ErrAdvisingHold):
		return "advising_hold"
	case errors.Is(err, apperrors.ErrDuplicateCourse):
		return "duplicate_course"
	case errors.Is(err, apperrors.ErrTimeConflict):
		return "time_conflict"
	case errors.Is(err, apperrors.ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return metrics.OutcomeFailed
	}
}
