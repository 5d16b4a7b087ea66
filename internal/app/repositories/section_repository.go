package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// SectionRepository indexes every section of the catalog by CRN
type SectionRepository struct {
	mu       sync.RWMutex
	sections map[string]models.Section
}

// NewSectionRepository creates a new section repository
func NewSectionRepository() *SectionRepository {
	return &SectionRepository{sections: make(map[string]models.Section)}
}

// Create stores a section under its CRN
func (r *SectionRepository) Create(_ context.Context, section models.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sections[section.CRN]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("CRN %s is already in use", section.CRN))
	}
	stored := section.Clone()
	stored.Enrolled = 0
	stored.InstructorID = ""
	r.sections[section.CRN] = stored
	return nil
}

// GetByCRN retrieves a section by reference number
func (r *SectionRepository) GetByCRN(_ context.Context, crn string) (*models.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	section, ok := r.sections[crn]
	if !ok {
		return nil, apperrors.ErrSectionNotFound
	}
	out := section.Clone()
	return &out, nil
}

// GetMany retrieves sections in the order of crns, skipping unknown ones
func (r *SectionRepository) GetMany(_ context.Context, crns []string) []*models.Section {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Section, 0, len(crns))
	for _, crn := range crns {
		if section, ok := r.sections[crn]; ok {
			clone := section.Clone()
			out = append(out, &clone)
		}
	}
	return out
}

// Delete removes a section by CRN
func (r *SectionRepository) Delete(_ context.Context, crn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sections[crn]; !ok {
		return apperrors.ErrSectionNotFound
	}
	delete(r.sections, crn)
	return nil
}

// Count returns the number of stored sections
func (r *SectionRepository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sections)
}
