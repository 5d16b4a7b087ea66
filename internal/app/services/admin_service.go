package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/metrics"
)

// DeniedCode is the error code carried by every permission denial
const DeniedCode = "permission_denied"

// AdminService handles admin permissions and the actions they gate
type AdminService struct {
	userRepo *repositories.UserRepository
	accounts *AccountService
	catalog  *CatalogService
	sections *SectionService
	students *StudentService
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(
	repos *repositories.Repositories,
	accounts *AccountService,
	catalog *CatalogService,
	sections *SectionService,
	students *StudentService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		userRepo: repos.UserRepository,
		accounts: accounts,
		catalog:  catalog,
		sections: sections,
		students: students,
		metrics:  m,
		logger:   logger,
	}
}

// Permissions returns the permission set of an admin
func (s *AdminService) Permissions(ctx context.Context, adminID string) (models.PermissionSet, error) {
	admin, err := requireRole(ctx, s.userRepo, adminID, models.RoleAdmin)
	if err != nil {
		return 0, err
	}
	if admin.Admin == nil {
		return 0, nil
	}
	return admin.Admin.Permissions, nil
}

// HasPermission reports whether the admin holds perm
func (s *AdminService) HasPermission(ctx context.Context, adminID string, perm models.Permission) (bool, error) {
	perms, err := s.Permissions(ctx, adminID)
	if err != nil {
		return false, err
	}
	return perms.Has(perm), nil
}

// AddPermission grants perm. Granting a held permission changes nothing.
func (s *AdminService) AddPermission(ctx context.Context, adminID string, perm models.Permission) error {
	return s.updatePermissions(ctx, adminID, func(set models.PermissionSet) models.PermissionSet {
		return set.With(perm)
	})
}

// RevokePermission removes perm. Revoking a missing permission changes nothing.
func (s *AdminService) RevokePermission(ctx context.Context, adminID string, perm models.Permission) error {
	return s.updatePermissions(ctx, adminID, func(set models.PermissionSet) models.PermissionSet {
		return set.Without(perm)
	})
}

// GrantAllPermissions gives the admin every permission
func (s *AdminService) GrantAllPermissions(ctx context.Context, adminID string) error {
	return s.updatePermissions(ctx, adminID, func(models.PermissionSet) models.PermissionSet {
		return models.FullPermissionSet()
	})
}

func (s *AdminService) updatePermissions(ctx context.Context, adminID string, change func(models.PermissionSet) models.PermissionSet) error {
	updated, err := s.userRepo.Update(ctx, adminID, func(user *models.User) error {
		if !user.IsAdmin() {
			return fmt.Errorf("%w: %s is not an admin", apperrors.ErrWrongRole, adminID)
		}
		if user.Admin == nil {
			user.Admin = &models.AdminProfile{}
		}
		user.Admin.Permissions = change(user.Admin.Permissions)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("adminId", adminID).
		Str("permissions", updated.Admin.Permissions.String()).
		Msg("Admin permissions updated")
	return nil
}

// gated runs fn when the acting admin holds perm. Every call gets an action
// id that is attached to its log lines and to a denial.
func gated[T any](ctx context.Context, s *AdminService, actorID string, perm models.Permission, action string, fn func() (T, error)) (T, error) {
	var zero T
	actionID := uuid.NewString()
	log := s.logger.With().
		Str("action_id", actionID).
		Str("action", action).
		Str("actorId", actorID).
		Logger()

	actor, err := s.accounts.resolveActor(ctx, actorID)
	if err != nil || !actor.IsAdmin() || actor.Admin == nil || !actor.Admin.Permissions.Has(perm) {
		s.metrics.ObserveAdminAction(action, metrics.OutcomeDenied)
		log.Warn().Str("permission", perm.String()).Msg("Admin action denied")
		return zero, apperrors.NewForbiddenError(fmt.Sprintf("%s requires %s", action, perm)).
			WithCode(DeniedCode).
			WithStatusMsg("You do not have permission to perform this action").
			WithDetails(map[string]interface{}{
				"action_id":  actionID,
				"permission": perm.String(),
			})
	}

	result, err := fn()
	if err != nil {
		s.metrics.ObserveAdminAction(action, metrics.OutcomeFailed)
		log.Debug().Err(err).Msg("Admin action failed")
		return zero, err
	}

	s.metrics.ObserveAdminAction(action, metrics.OutcomeSuccess)
	log.Debug().Msg("Admin action completed")
	return result, nil
}

func gatedErr(ctx context.Context, s *AdminService, actorID string, perm models.Permission, action string, fn func() error) error {
	_, err := gated(ctx, s, actorID, perm, action, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// CreateCourse adds a course to the catalog on behalf of an admin
func (s *AdminService) CreateCourse(ctx context.Context, actorID string, input CourseInput) (*models.Course, error) {
	return gated(ctx, s, actorID, models.PermissionCourseManagement, "create_course", func() (*models.Course, error) {
		return s.catalog.AddCourse(ctx, input)
	})
}

// CreateCourseSection adds a section to a course on behalf of an admin
func (s *AdminService) CreateCourseSection(ctx context.Context, actorID, courseID string, slots []models.TimeSlot, capacity int) (*models.Section, error) {
	return gated(ctx, s, actorID, models.PermissionCourseManagement, "create_section", func() (*models.Section, error) {
		return s.catalog.CreateSection(ctx, courseID, slots, capacity)
	})
}

// RemoveCourse removes a course and its sections
func (s *AdminService) RemoveCourse(ctx context.Context, actorID, courseID string) error {
	return gatedErr(ctx, s, actorID, models.PermissionCourseManagement, "remove_course", func() error {
		return s.catalog.RemoveCourse(ctx, courseID)
	})
}

// RemoveCourseSection removes one section of a course
func (s *AdminService) RemoveCourseSection(ctx context.Context, actorID, courseID, crn string) error {
	return gatedErr(ctx, s, actorID, models.PermissionCourseManagement, "remove_section", func() error {
		return s.catalog.RemoveSection(ctx, courseID, crn)
	})
}

// CreateStudent registers a student on behalf of an admin
func (s *AdminService) CreateStudent(ctx context.Context, actorID, name string) (*NewAccount, error) {
	return gated(ctx, s, actorID, models.PermissionUserManagement, "create_student", func() (*NewAccount, error) {
		return s.accounts.CreateStudent(ctx, name)
	})
}

// CreateInstructor registers an instructor on behalf of an admin
func (s *AdminService) CreateInstructor(ctx context.Context, actorID, name string) (*NewAccount, error) {
	return gated(ctx, s, actorID, models.PermissionUserManagement, "create_instructor", func() (*NewAccount, error) {
		return s.accounts.CreateInstructor(ctx, name)
	})
}

// CreateAdmin registers an admin with no permissions on behalf of an admin
func (s *AdminService) CreateAdmin(ctx context.Context, actorID, name string) (*NewAccount, error) {
	return gated(ctx, s, actorID, models.PermissionUserManagement, "create_admin", func() (*NewAccount, error) {
		return s.accounts.CreateAdmin(ctx, name)
	})
}

// RemoveUser deletes an identity and its enrollments and assignments
func (s *AdminService) RemoveUser(ctx context.Context, actorID, userID string) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "remove_user", func() error {
		return s.accounts.RemoveUser(ctx, userID)
	})
}

// SetAdvisingHold sets or clears one student's advising hold
func (s *AdminService) SetAdvisingHold(ctx context.Context, actorID, studentID string, hold bool) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "set_advising_hold", func() error {
		return s.students.SetAdvisingHold(ctx, studentID, hold)
	})
}

// SetAllAdvisingHolds sets or clears the hold of every student
func (s *AdminService) SetAllAdvisingHolds(ctx context.Context, actorID string, hold bool) (int, error) {
	return gated(ctx, s, actorID, models.PermissionUserManagement, "set_all_advising_holds", func() (int, error) {
		return s.accounts.SetAllAdvisingHolds(ctx, hold), nil
	})
}

// EnrollStudent enrolls a student under the normal student rules
func (s *AdminService) EnrollStudent(ctx context.Context, actorID, studentID, crn string) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "enroll_student", func() error {
		return s.students.Enroll(ctx, studentID, crn)
	})
}

// DropStudent drops a student from a section
func (s *AdminService) DropStudent(ctx context.Context, actorID, studentID, crn string) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "drop_student", func() error {
		return s.students.Drop(ctx, studentID, crn)
	})
}

// AssignInstructor makes an instructor the instructor of a section
func (s *AdminService) AssignInstructor(ctx context.Context, actorID, crn, instructorID string) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "assign_instructor", func() error {
		return s.sections.AssignInstructor(ctx, crn, instructorID)
	})
}

// UnassignInstructor clears a section's instructor
func (s *AdminService) UnassignInstructor(ctx context.Context, actorID, crn string) error {
	return gatedErr(ctx, s, actorID, models.PermissionUserManagement, "unassign_instructor", func() error {
		return s.sections.AssignInstructor(ctx, crn, "")
	})
}

// GrantPermission grants perm to another admin
func (s *AdminService) GrantPermission(ctx context.Context, actorID, adminID string, perm models.Permission) error {
	return gatedErr(ctx, s, actorID, models.PermissionAdminManagement, "grant_permission", func() error {
		return s.AddPermission(ctx, adminID, perm)
	})
}

// RevokePermissionFrom removes perm from another admin
func (s *AdminService) RevokePermissionFrom(ctx context.Context, actorID, adminID string, perm models.Permission) error {
	return gatedErr(ctx, s, actorID, models.PermissionAdminManagement, "revoke_permission", func() error {
		return s.RevokePermission(ctx, adminID, perm)
	})
}

// GrantAllPermissionsTo gives another admin every permission
func (s *AdminService) GrantAllPermissionsTo(ctx context.Context, actorID, adminID string) error {
	return gatedErr(ctx, s, actorID, models.PermissionAdminManagement, "grant_all_permissions", func() error {
		return s.GrantAllPermissions(ctx, adminID)
	})
}

// ListAdmins returns every admin with their permissions
func (s *AdminService) ListAdmins(ctx context.Context, actorID string) ([]*models.User, error) {
	return gated(ctx, s, actorID, models.PermissionAdminManagement, "list_admins", func() ([]*models.User, error) {
		return s.accounts.ListUsers(ctx, models.RoleAdmin), nil
	})
}

// ListCourses returns the catalog's courses
func (s *AdminService) ListCourses(ctx context.Context, actorID string) ([]*models.Course, error) {
	return gated(ctx, s, actorID, models.PermissionViewCourses, "list_courses", func() ([]*models.Course, error) {
		return s.catalog.ListCourses(ctx)
	})
}

// ListSections returns the sections of a course, or of every course when
// courseID is empty
func (s *AdminService) ListSections(ctx context.Context, actorID, courseID string) ([]*models.Section, error) {
	return gated(ctx, s, actorID, models.PermissionViewCourses, "list_sections", func() ([]*models.Section, error) {
		return s.catalog.ListSections(ctx, courseID)
	})
}

// ListUsers returns identities of role, or all of them when role is empty
func (s *AdminService) ListUsers(ctx context.Context, actorID string, role models.RoleType) ([]*models.User, error) {
	return gated(ctx, s, actorID, models.PermissionViewUsers, "list_users", func() ([]*models.User, error) {
		return s.accounts.ListUsers(ctx, role), nil
	})
}
