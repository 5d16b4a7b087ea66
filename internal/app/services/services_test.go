package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/metrics"
)

var fixedNow = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

// serviceSuite wires a fresh set of services for every test
type serviceSuite struct {
	suite.Suite
	ctx     context.Context
	repos   *repositories.Repositories
	metrics *metrics.Metrics
	svc     *Services
}

func testConfig() Config {
	accounts := DefaultAccountConfig()
	accounts.BcryptCost = bcrypt.MinCost
	return Config{
		Accounts: accounts,
		Catalog:  CatalogConfig{CRNBase: DefaultCRNBase, CRNWidth: DefaultCRNWidth},
	}
}

func (s *serviceSuite) SetupTest() {
	s.build(testConfig())
}

func (s *serviceSuite) build(cfg Config) {
	s.ctx = context.Background()
	s.repos = repositories.NewRepositories(repositories.DefaultSectionNumberWidth)
	s.metrics = metrics.New("test", nil)
	svc, err := NewServices(s.repos, cfg, s.metrics, zerolog.Nop(),
		WithDigitSource(func() int { return 1234 }),
		WithClock(func() time.Time { return fixedNow }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func slot(day time.Weekday, startHour, startMinute, endHour, endMinute int) models.TimeSlot {
	return models.MustTimeSlot(day, models.Clock(startHour, startMinute), models.Clock(endHour, endMinute))
}

func (s *serviceSuite) course(id, name string) *models.Course {
	course, err := s.svc.Catalog.AddCourse(s.ctx, CourseInput{ID: id, Name: name, Credits: 3})
	s.Require().NoError(err)
	return course
}

func (s *serviceSuite) section(courseID string, capacity int, slots ...models.TimeSlot) *models.Section {
	if len(slots) == 0 {
		slots = []models.TimeSlot{slot(time.Monday, 9, 0, 10, 15)}
	}
	section, err := s.svc.Catalog.CreateSection(s.ctx, courseID, slots, capacity)
	s.Require().NoError(err)
	return section
}

func (s *serviceSuite) student(name string) *models.User {
	account, err := s.svc.Accounts.CreateStudent(s.ctx, name)
	s.Require().NoError(err)
	return account.User
}

func (s *serviceSuite) instructor(name string) *models.User {
	account, err := s.svc.Accounts.CreateInstructor(s.ctx, name)
	s.Require().NoError(err)
	return account.User
}

func (s *serviceSuite) admin(name string, perms ...models.Permission) *models.User {
	account, err := s.svc.Accounts.CreateAdmin(s.ctx, name)
	s.Require().NoError(err)
	for _, perm := range perms {
		s.Require().NoError(s.svc.Admins.AddPermission(s.ctx, account.User.ID, perm))
	}
	return account.User
}

func crnsOf(sections []*models.Section) []string {
	out := make([]string, 0, len(sections))
	for _, section := range sections {
		out = append(out, section.CRN)
	}
	return out
}

func idsOf(users []*models.User) []string {
	out := make([]string, 0, len(users))
	for _, user := range users {
		out = append(out, user.ID)
	}
	return out
}
