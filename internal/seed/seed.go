package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// Options controls the default data written at startup
type Options struct {
	AdminName     string
	AdminPassword string
	CatalogFile   string
}

// Catalog is the layout of a catalog seed file
type Catalog struct {
	Courses []Course `yaml:"courses"`
}

// Course is one course of a catalog seed file
type Course struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Credits     int       `yaml:"credits"`
	Sections    []Section `yaml:"sections"`
}

// Section is one section of a seeded course
type Section struct {
	Capacity int       `yaml:"capacity"`
	Meetings []Meeting `yaml:"meetings"`
}

// Meeting is a weekly meeting written as day name and "HH:MM" clock readings
type Meeting struct {
	Day   string `yaml:"day"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Result reports what CreateDefaultData created
type Result struct {
	// Admin is nil when an admin already existed
	Admin    *services.NewAccount
	Courses  int
	Sections int
}

// CreateDefaultData creates the default admin when no admin exists and loads
// the optional catalog file. Failures are collected and the remaining data is
// still written.
func CreateDefaultData(ctx context.Context, svc *services.Services, opts Options, lgr zerolog.Logger) (*Result, error) {
	lgr.Info().Msg("Checking/Creating default data (Admin/Catalog)...")
	result := &Result{}
	var finalErr error

	admin, err := createDefaultAdmin(ctx, svc, opts, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		finalErr = errors.Join(finalErr, err)
	}
	result.Admin = admin

	if opts.CatalogFile != "" {
		catalog, err := LoadCatalog(opts.CatalogFile)
		if err != nil {
			lgr.Error().Err(err).Str("path", opts.CatalogFile).Msg("Error reading catalog file")
			finalErr = errors.Join(finalErr, err)
		} else {
			courses, sections, err := ApplyCatalog(ctx, svc.Catalog, catalog, lgr)
			result.Courses, result.Sections = courses, sections
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().
		Int("courses", result.Courses).
		Int("sections", result.Sections).
		Msg("Default data check/creation finished.")
	return result, finalErr
}

func createDefaultAdmin(ctx context.Context, svc *services.Services, opts Options, lgr zerolog.Logger) (*services.NewAccount, error) {
	if len(svc.Accounts.ListUsers(ctx, models.RoleAdmin)) > 0 {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil, nil
	}

	lgr.Info().Msg("Creating default admin user...")
	account, err := svc.Accounts.CreateAdmin(ctx, opts.AdminName)
	if err != nil {
		return nil, err
	}
	if err := svc.Admins.GrantAllPermissions(ctx, account.User.ID); err != nil {
		return nil, err
	}
	if opts.AdminPassword != "" {
		if err := svc.Accounts.ChangePassword(ctx, account.User.ID, opts.AdminPassword); err != nil {
			return nil, err
		}
		account.DefaultPassword = ""
	}

	lgr.Info().
		Str("adminID", account.User.ID).
		Str("email", account.User.Email).
		Msg("Default admin user created successfully")
	return account, nil
}

// LoadCatalog reads a catalog seed file
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	catalog := &Catalog{}
	if err := yaml.Unmarshal(raw, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return catalog, nil
}

// ApplyCatalog adds every course of catalog with its sections. Courses whose
// id is already taken are skipped along with their sections.
func ApplyCatalog(ctx context.Context, svc *services.CatalogService, catalog *Catalog, lgr zerolog.Logger) (courses, sections int, err error) {
	var finalErr error
	for _, entry := range catalog.Courses {
		_, err := svc.AddCourse(ctx, services.CourseInput{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Credits:     entry.Credits,
		})
		if errors.Is(err, apperrors.ErrDuplicateID) {
			lgr.Info().Str("courseID", entry.ID).Msg("Course already exists, skipping")
			continue
		}
		if err != nil {
			lgr.Error().Err(err).Str("courseID", entry.ID).Msg("Error creating course")
			finalErr = errors.Join(finalErr, fmt.Errorf("course %q: %w", entry.ID, err))
			continue
		}
		courses++

		for i, sectionEntry := range entry.Sections {
			slots, err := sectionEntry.timeSlots()
			if err == nil {
				_, err = svc.CreateSection(ctx, entry.ID, slots, sectionEntry.Capacity)
			}
			if err != nil {
				lgr.Error().Err(err).Str("courseID", entry.ID).Int("section", i+1).Msg("Error creating section")
				finalErr = errors.Join(finalErr, fmt.Errorf("course %q section %d: %w", entry.ID, i+1, err))
				continue
			}
			sections++
		}
	}
	return courses, sections, finalErr
}

func (s Section) timeSlots() ([]models.TimeSlot, error) {
	slots := make([]models.TimeSlot, 0, len(s.Meetings))
	for _, meeting := range s.Meetings {
		day, err := models.ParseWeekday(meeting.Day)
		if err != nil {
			return nil, err
		}
		start, err := models.ParseClock(meeting.Start)
		if err != nil {
			return nil, err
		}
		end, err := models.ParseClock(meeting.End)
		if err != nil {
			return nil, err
		}
		slot, err := models.NewTimeSlot(day, start, end)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
