package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// UserRepository stores identities keyed by id, with a unique email index
type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
	order   []string
}

// NewUserRepository creates a new UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a user if its id and email are both unused
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return apperrors.NewValidationError("user is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		return apperrors.ErrIdentifierExists
	}
	if _, exists := r.byEmail[emailKey(user.Email)]; exists {
		return apperrors.ErrEmailAlreadyExists
	}

	r.users[user.ID] = user.Clone()
	r.byEmail[emailKey(user.Email)] = user.ID
	r.order = append(r.order, user.ID)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user.Clone(), nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return r.users[id].Clone(), nil
}

// GetByIDOrEmail resolves value as an email first, then as an id
func (r *UserRepository) GetByIDOrEmail(ctx context.Context, value string) (*models.User, error) {
	if user, err := r.GetByEmail(ctx, value); err == nil {
		return user, nil
	}
	return r.GetByID(ctx, value)
}

// EmailExists checks whether an email is taken
func (r *UserRepository) EmailExists(_ context.Context, email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[emailKey(email)]
	return ok
}

// Emails returns every stored email address
func (r *UserRepository) Emails(_ context.Context) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emails := make([]string, 0, len(r.order))
	for _, id := range r.order {
		emails = append(emails, r.users[id].Email)
	}
	return emails
}

// GetAll returns users in creation order. An empty role returns every user.
func (r *UserRepository) GetAll(_ context.Context, role models.RoleType) []*models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		user := r.users[id]
		if role != "" && user.RoleType != role {
			continue
		}
		users = append(users, user.Clone())
	}
	return users
}

// CountByRole returns how many users hold each role
func (r *UserRepository) CountByRole(_ context.Context) map[models.RoleType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.RoleType]int, len(models.Roles))
	for _, role := range models.Roles {
		counts[role] = 0
	}
	for _, user := range r.users {
		counts[user.RoleType]++
	}
	return counts
}

// Update applies mutate to the stored user under the repository lock. The id
// and role cannot change; an email change must stay unique.
func (r *UserRepository) Update(_ context.Context, id string, mutate func(user *models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.ID != current.ID || next.RoleType != current.RoleType {
		return nil, apperrors.NewBadRequestError("user id and role cannot change")
	}
	if emailKey(next.Email) != emailKey(current.Email) {
		if _, taken := r.byEmail[emailKey(next.Email)]; taken {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		delete(r.byEmail, emailKey(current.Email))
		r.byEmail[emailKey(next.Email)] = id
	}

	r.users[id] = next
	return next.Clone(), nil
}

// UpdateAll applies mutate to every user with the given role and returns how
// many were changed.
func (r *UserRepository) UpdateAll(_ context.Context, role models.RoleType, mutate func(user *models.User) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for _, id := range r.order {
		user := r.users[id]
		if role != "" && user.RoleType != role {
			continue
		}
		if mutate(user) {
			changed++
		}
	}
	return changed
}

// Delete removes a user by ID
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.byEmail, emailKey(user.Email))
	delete(r.users, id)
	r.order, _ = removeString(r.order, id)
	return nil
}
