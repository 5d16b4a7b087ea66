package models

// Course represents a catalog entry that owns its sections.
type Course struct {
	ID          string `json:"id" validate:"required"`   // e.g. "MATH 1241"
	Name        string `json:"name" validate:"required"` // e.g. "Calculus 1"
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"gte=0"`

	// SectionCRNs keeps the owned sections in creation order
	SectionCRNs []string `json:"sectionCrns"`
}

// Clone returns a copy that shares no slices with c.
func (c Course) Clone() Course {
	out := c
	out.SectionCRNs = append([]string(nil), c.SectionCRNs...)
	return out
}

// HasSection reports whether crn belongs to the course.
func (c Course) HasSection(crn string) bool {
	for _, owned := range c.SectionCRNs {
		if owned == crn {
			return true
		}
	}
	return false
}
