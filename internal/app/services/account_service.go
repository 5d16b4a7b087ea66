package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/auth"
	"github.com/yigit/registrar/internal/pkg/metrics"
	"github.com/yigit/registrar/internal/pkg/sequence"
)

// Registry defaults
const (
	DefaultEmailDomain            = "university.edu"
	DefaultStudentIDBase    int64 = 800999999
	DefaultInstructorIDBase int64 = 801999999
	DefaultAdminIDBase      int64 = 802999999

	idWidth           = 9
	maxCreateAttempts = 3
)

// OverrideAccount is a fixed credential that signs in without a registry entry
type OverrideAccount struct {
	Role     models.RoleType `validate:"required,oneof=STUDENT INSTRUCTOR ADMIN"`
	Email    string          `validate:"required"`
	Password string          `validate:"required"`
}

// AccountConfig controls identity issuance and authentication
type AccountConfig struct {
	EmailDomain      string            `validate:"required,fqdn"`
	StudentIDBase    int64             `validate:"gte=0"`
	InstructorIDBase int64             `validate:"gtfield=StudentIDBase"`
	AdminIDBase      int64             `validate:"gtfield=InstructorIDBase"`
	BcryptCost       int               `validate:"gte=0,lte=31"`
	AllowOverrides   bool
	Overrides        []OverrideAccount `validate:"dive"`
}

// DefaultAccountConfig returns the registry defaults with overrides disabled
func DefaultAccountConfig() AccountConfig {
	return AccountConfig{
		EmailDomain:      DefaultEmailDomain,
		StudentIDBase:    DefaultStudentIDBase,
		InstructorIDBase: DefaultInstructorIDBase,
		AdminIDBase:      DefaultAdminIDBase,
		BcryptCost:       auth.BcryptCost,
	}
}

// NewAccount is a freshly created identity with its one-time default password
type NewAccount struct {
	User            *models.User `json:"user"`
	DefaultPassword string       `json:"defaultPassword"`
}

// AccountOption customizes an AccountService
type AccountOption func(*AccountService)

// WithDigitSource replaces the random digits of default passwords
func WithDigitSource(digits auth.DigitSource) AccountOption {
	return func(s *AccountService) { s.digits = digits }
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

// AccountService is the registry of identities
type AccountService struct {
	userRepo   *repositories.UserRepository
	rosterRepo *repositories.RosterRepository
	hasher     *auth.Hasher
	config     AccountConfig
	ids        map[models.RoleType]*sequence.Formatter
	digits     auth.DigitSource
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAccountService creates a new AccountService. Each role draws ids from its
// own sequence, starting right above the role's base. An invalid cfg is
// rejected with ErrValidationFailed.
func NewAccountService(repos *repositories.Repositories, cfg AccountConfig, m *metrics.Metrics, logger zerolog.Logger, opts ...AccountOption) (*AccountService, error) {
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = DefaultEmailDomain
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, validationError(err)
	}
	if cfg.AllowOverrides && len(cfg.Overrides) == 0 {
		return nil, fmt.Errorf("%w: overrides are allowed but none are configured", apperrors.ErrValidationFailed)
	}
	s := &AccountService{
		userRepo:   repos.UserRepository,
		rosterRepo: repos.RosterRepository,
		hasher:     auth.NewHasher(cfg.BcryptCost),
		config:     cfg,
		ids: map[models.RoleType]*sequence.Formatter{
			models.RoleStudent:    sequence.NewFormatter(sequence.NewCounter(cfg.StudentIDBase), idWidth),
			models.RoleInstructor: sequence.NewFormatter(sequence.NewCounter(cfg.InstructorIDBase), idWidth),
			models.RoleAdmin:      sequence.NewFormatter(sequence.NewCounter(cfg.AdminIDBase), idWidth),
		},
		digits:  auth.RandomDigits,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate returns the identity whose email and password both match
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if user, ok := s.overrideUser(email, password); ok {
		s.logger.Warn().Str("email", email).Str("role", string(user.RoleType)).Msg("Override credentials used")
		return user, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user.Email != email || !s.hasher.CheckPassword(user.PasswordHash, password) {
		s.logger.Debug().Str("email", email).Msg("Authentication failed")
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) overrideUser(email, password string) (*models.User, bool) {
	if !s.config.AllowOverrides {
		return nil, false
	}
	for _, o := range s.config.Overrides {
		if o.Email != email || o.Password != password || !o.Role.Valid() {
			continue
		}
		user := &models.User{
			Name:      "Override " + strings.ToLower(string(o.Role)),
			Email:     o.Email,
			RoleType:  o.Role,
			CreatedAt: s.now(),
		}
		switch o.Role {
		case models.RoleStudent:
			user.ID = strconv.FormatInt(s.config.StudentIDBase, 10)
			user.Student = &models.StudentProfile{}
		case models.RoleInstructor:
			user.ID = strconv.FormatInt(s.config.InstructorIDBase, 10)
		case models.RoleAdmin:
			user.ID = strconv.FormatInt(s.config.AdminIDBase, 10)
			user.Admin = &models.AdminProfile{Permissions: models.FullPermissionSet()}
		}
		return user, true
	}
	return nil, false
}

// resolveActor loads the identity behind an acting id. Override identities
// are never stored, so they resolve from the configuration.
func (s *AccountService) resolveActor(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err == nil || !s.config.AllowOverrides {
		return user, err
	}
	for _, o := range s.config.Overrides {
		if override, ok := s.overrideUser(o.Email, o.Password); ok && override.ID == id {
			return override, nil
		}
	}
	return nil, err
}

// AddUser stores an identity. Ids and emails must be unused.
func (s *AccountService) AddUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" || user.Email == "" || !user.RoleType.Valid() {
		return fmt.Errorf("%w: user needs an id, an email and a known role", apperrors.ErrValidationFailed)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrIdentifierExists, apperrors.ErrEmailAlreadyExists) {
			return fmt.Errorf("%w: %w", apperrors.ErrResourceAlreadyExists, err)
		}
		return err
	}

	s.refreshUsers(ctx)
	s.logger.Debug().Str("userId", user.ID).Str("role", string(user.RoleType)).Msg("User added")
	return nil
}

// RemoveUser deletes an identity and every enrollment and assignment it holds
func (s *AccountService) RemoveUser(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	dropped, unassigned := s.rosterRepo.ForgetUser(ctx, userID)
	for range dropped {
		s.metrics.ObserveDrop()
	}

	s.refreshUsers(ctx)
	s.logger.Debug().
		Str("userId", userID).
		Strs("dropped", dropped).
		Strs("unassigned", unassigned).
		Msg("User removed")
	return nil
}

// FindByIDOrEmail looks an identity up by id or by email
func (s *AccountService) FindByIDOrEmail(ctx context.Context, value string) (*models.User, error) {
	return s.userRepo.GetByIDOrEmail(ctx, strings.TrimSpace(value))
}

// GenerateEmail derives an unused address from a "First Last" name: the first
// initial and the last name, plus one more than the highest numeric suffix
// already issued for that stem.
func (s *AccountService) GenerateEmail(ctx context.Context, name string) (string, error) {
	fields, err := nameFields(name)
	if err != nil {
		return "", err
	}
	first := []rune(fields[0])
	base := strings.ToLower(string(unicode.ToLower(first[0])) + fields[1])
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `(\d*)$`)

	found := false
	highest := 0
	for _, email := range s.userRepo.Emails(ctx) {
		local, _, _ := strings.Cut(email, "@")
		match := pattern.FindStringSubmatch(strings.ToLower(local))
		if match == nil {
			continue
		}
		found = true
		if match[1] == "" {
			continue
		}
		if n, err := strconv.Atoi(match[1]); err == nil && n > highest {
			highest = n
		}
	}

	if !found {
		return base + "@" + s.config.EmailDomain, nil
	}
	return fmt.Sprintf("%s%d@%s", base, highest+1, s.config.EmailDomain), nil
}

// nameFields splits a "First Last" name. Any other shape is ErrInvalidName.
func nameFields(name string) ([]string, error) {
	fields := strings.Fields(name)
	if len(fields) != 2 {
		return nil, apperrors.ErrInvalidName
	}
	return fields, nil
}

// GenerateDefaultPassword returns the first name followed by four random digits
func (s *AccountService) GenerateDefaultPassword(name string) (string, error) {
	fields, err := nameFields(name)
	if err != nil {
		return "", err
	}
	return auth.DefaultPassword(fields[0], s.digits), nil
}

// NewUser builds an unsaved identity with a generated id, email and default
// password. The password is returned in plain text once; only its hash is kept.
func (s *AccountService) NewUser(ctx context.Context, role models.RoleType, name string) (*NewAccount, error) {
	ids, ok := s.ids[role]
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, role)
	}
	name = strings.Join(strings.Fields(name), " ")

	email, err := s.GenerateEmail(ctx, name)
	if err != nil {
		return nil, err
	}
	password, err := s.GenerateDefaultPassword(name)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                 ids.Next(),
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		NeedsPasswordReset: true,
		RoleType:           role,
		CreatedAt:          s.now(),
	}
	switch role {
	case models.RoleStudent:
		user.Student = &models.StudentProfile{}
	case models.RoleAdmin:
		user.Admin = &models.AdminProfile{}
	}
	return &NewAccount{User: user, DefaultPassword: password}, nil
}

// CreateUser builds and stores a new identity. A generated email taken by a
// concurrent creation is regenerated.
func (s *AccountService) CreateUser(ctx context.Context, role models.RoleType, name string) (*NewAccount, error) {
	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		account, err := s.NewUser(ctx, role, name)
		if err != nil {
			return nil, err
		}
		lastErr = s.AddUser(ctx, account.User)
		if lastErr == nil {
			s.logger.Info().
				Str("userId", account.User.ID).
				Str("email", account.User.Email).
				Str("role", string(role)).
				Msg("Account created")
			return account, nil
		}
		if !errors.Is(lastErr, apperrors.ErrEmailAlreadyExists) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// CreateStudent creates a student without an advising hold
func (s *AccountService) CreateStudent(ctx context.Context, name string) (*NewAccount, error) {
	return s.CreateUser(ctx, models.RoleStudent, name)
}

// CreateInstructor creates an instructor
func (s *AccountService) CreateInstructor(ctx context.Context, name string) (*NewAccount, error) {
	return s.CreateUser(ctx, models.RoleInstructor, name)
}

// CreateAdmin creates an admin with no permissions
func (s *AccountService) CreateAdmin(ctx context.Context, name string) (*NewAccount, error) {
	return s.CreateUser(ctx, models.RoleAdmin, name)
}

// ChangePassword replaces the user's password and clears the reset flag
func (s *AccountService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.ErrInvalidPassword
	}
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.userRepo.Update(ctx, userID, func(user *models.User) error {
		user.PasswordHash = hash
		user.NeedsPasswordReset = false
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("userId", userID).Msg("Password changed")
	return nil
}

// SetAllAdvisingHolds sets or clears the hold of every student. It returns the
// number of students changed.
func (s *AccountService) SetAllAdvisingHolds(ctx context.Context, hold bool) int {
	changed := s.userRepo.UpdateAll(ctx, models.RoleStudent, func(user *models.User) bool {
		if user.Student == nil {
			user.Student = &models.StudentProfile{}
		}
		if user.Student.AdvisingHold == hold {
			return false
		}
		user.Student.AdvisingHold = hold
		return true
	})

	s.logger.Debug().Bool("hold", hold).Int("changed", changed).Msg("Advising holds updated")
	return changed
}

// ListUsers returns identities in creation order. An empty role lists all.
func (s *AccountService) ListUsers(ctx context.Context, role models.RoleType) []*models.User {
	return s.userRepo.GetAll(ctx, role)
}

// RoleForID infers a role from the id band an id falls in
func (s *AccountService) RoleForID(id string) (models.RoleType, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", false
	}
	switch {
	case n > s.config.AdminIDBase:
		return models.RoleAdmin, true
	case n > s.config.InstructorIDBase:
		return models.RoleInstructor, true
	case n > s.config.StudentIDBase:
		return models.RoleStudent, true
	}
	return "", false
}

func (s *AccountService) refreshUsers(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	for role, count := range s.userRepo.CountByRole(ctx) {
		s.metrics.SetUsers(string(role), count)
	}
}
