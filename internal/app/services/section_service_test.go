package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type SectionServiceSuite struct {
	serviceSuite
}

func TestSectionServiceSuite(t *testing.T) {
	suite.Run(t, new(SectionServiceSuite))
}

func (s *SectionServiceSuite) TestCapacityFreesUpAfterDrop() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 1)
	x := s.student("Xavier Xu")
	y := s.student("Yara Young")

	s.Require().NoError(s.svc.Sections.Enroll(s.ctx, section.CRN, x.ID))
	s.ErrorIs(s.svc.Sections.Enroll(s.ctx, section.CRN, y.ID), apperrors.ErrCapacityExceeded)

	full, err := s.svc.Sections.IsFull(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.True(full)

	s.Require().NoError(s.svc.Sections.Drop(s.ctx, section.CRN, x.ID))
	s.Require().NoError(s.svc.Sections.Enroll(s.ctx, section.CRN, y.ID))

	count, err := s.svc.Sections.EnrolledCount(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.EnrollmentAttempts.WithLabelValues("success")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.EnrollmentAttempts.WithLabelValues("capacity_exceeded")))
}

func (s *SectionServiceSuite) TestEnrollAndDropAreIdempotent() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 10)
	student := s.student("Jane Doe")

	s.Require().NoError(s.svc.Sections.Enroll(s.ctx, section.CRN, student.ID))
	s.ErrorIs(s.svc.Sections.Enroll(s.ctx, section.CRN, student.ID), apperrors.ErrAlreadyEnrolled)

	count, _ := s.svc.Sections.EnrolledCount(s.ctx, section.CRN)
	s.Equal(1, count)

	other := s.student("John Roe")
	s.ErrorIs(s.svc.Sections.Drop(s.ctx, section.CRN, other.ID), apperrors.ErrNotEnrolled)
	count, _ = s.svc.Sections.EnrolledCount(s.ctx, section.CRN)
	s.Equal(1, count)
}

func (s *SectionServiceSuite) TestAssignInstructorRoundTrip() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 10)
	instructor := s.instructor("Ada Lovelace")

	s.Require().NoError(s.svc.Sections.AssignInstructor(s.ctx, section.CRN, instructor.ID))

	assigned, err := s.svc.Sections.Instructor(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Equal(instructor.ID, assigned.ID)

	held, err := s.svc.Instructors.AssignedSections(s.ctx, instructor.ID)
	s.Require().NoError(err)
	s.Equal([]string{section.CRN}, crnsOf(held))

	s.Require().NoError(s.svc.Sections.AssignInstructor(s.ctx, section.CRN, ""))

	_, err = s.svc.Sections.Instructor(s.ctx, section.CRN)
	s.ErrorIs(err, apperrors.ErrNotAssigned)

	held, err = s.svc.Instructors.AssignedSections(s.ctx, instructor.ID)
	s.Require().NoError(err)
	s.Empty(held)

	got, err := s.svc.Sections.Get(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Empty(got.InstructorID)
}

func (s *SectionServiceSuite) TestReassignMovesSection() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 10)
	first := s.instructor("Ada Lovelace")
	second := s.instructor("Alan Turing")

	s.Require().NoError(s.svc.Sections.AssignInstructor(s.ctx, section.CRN, first.ID))
	s.Require().NoError(s.svc.Sections.AssignInstructor(s.ctx, section.CRN, second.ID))

	held, _ := s.svc.Instructors.AssignedSections(s.ctx, first.ID)
	s.Empty(held)
	held, _ = s.svc.Instructors.AssignedSections(s.ctx, second.ID)
	s.Equal([]string{section.CRN}, crnsOf(held))
}

func (s *SectionServiceSuite) TestRoleAndLookupErrors() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 10)
	student := s.student("Jane Doe")
	instructor := s.instructor("Ada Lovelace")

	s.ErrorIs(s.svc.Sections.AssignInstructor(s.ctx, section.CRN, student.ID), apperrors.ErrWrongRole)
	s.ErrorIs(s.svc.Sections.Enroll(s.ctx, section.CRN, instructor.ID), apperrors.ErrWrongRole)
	s.ErrorIs(s.svc.Sections.Enroll(s.ctx, section.CRN, "nobody"), apperrors.ErrUserNotFound)
	s.ErrorIs(s.svc.Sections.Enroll(s.ctx, "99999", student.ID), apperrors.ErrResourceNotFound)

	_, err := s.svc.Sections.IsFull(s.ctx, "99999")
	s.ErrorIs(err, apperrors.ErrSectionNotFound)
}

func (s *SectionServiceSuite) TestRosterKeepsEnrollmentOrder() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 10)
	a := s.student("Amy Adams")
	b := s.student("Bob Brown")

	s.Require().NoError(s.svc.Sections.Enroll(s.ctx, section.CRN, b.ID))
	s.Require().NoError(s.svc.Sections.Enroll(s.ctx, section.CRN, a.ID))

	roster, err := s.svc.Sections.Roster(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Equal([]string{b.ID, a.ID}, idsOf(roster))

	got, err := s.svc.Sections.Get(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Equal("2/10", got.SizeLabel())
}

func (s *SectionServiceSuite) TestConcurrentEnrollmentNeverExceedsCapacity() {
	const capacity = 5
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", capacity)

	students := make([]*models.User, 20)
	for i := range students {
		students[i] = s.student(fmt.Sprintf("Student Number%d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, student := range students {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.svc.Sections.Enroll(s.ctx, section.CRN, id); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(student.ID)
	}
	wg.Wait()

	s.Equal(capacity, successes)
	count, err := s.svc.Sections.EnrolledCount(s.ctx, section.CRN)
	s.Require().NoError(err)
	s.Equal(capacity, count)
}

func (s *SectionServiceSuite) TestStaleSectionCannotGainLinks() {
	s.course("MATH 1241", "Calculus 1")
	stale := s.section("MATH 1241", 10)
	student := s.student("Jane Doe")
	instructor := s.instructor("Ada Lovelace")

	// the record is gone but callers still hold the section they read earlier
	s.Require().NoError(s.repos.SectionRepository.Delete(s.ctx, stale.CRN))

	s.ErrorIs(s.svc.Sections.enroll(s.ctx, stale, student.ID, nil), apperrors.ErrSectionNotFound)
	_, err := s.repos.RosterRepository.AssignIf(s.ctx, stale.CRN, instructor.ID, s.svc.Sections.exists(s.ctx, stale.CRN))
	s.ErrorIs(err, apperrors.ErrSectionNotFound)

	s.Empty(s.repos.RosterRepository.Roster(s.ctx, stale.CRN))
	s.Empty(s.repos.RosterRepository.Schedule(s.ctx, student.ID))
	s.Empty(s.repos.RosterRepository.Assignments(s.ctx, instructor.ID))
}

func (s *SectionServiceSuite) TestEnrollmentRacingRemovalLeavesNoDanglingLinks() {
	s.course("MATH 1241", "Calculus 1")
	section := s.section("MATH 1241", 50)
	instructor := s.instructor("Ada Lovelace")

	students := make([]*models.User, 30)
	for i := range students {
		students[i] = s.student(fmt.Sprintf("Student Number%d", i))
	}

	var wg sync.WaitGroup
	for _, student := range students {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = s.svc.Students.Enroll(s.ctx, id, section.CRN)
		}(student.ID)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.svc.Instructors.AssignCourse(s.ctx, instructor.ID, section.CRN)
	}()
	go func() {
		defer wg.Done()
		s.NoError(s.svc.Catalog.RemoveSection(s.ctx, "MATH 1241", section.CRN))
	}()
	wg.Wait()

	s.Empty(s.repos.RosterRepository.Roster(s.ctx, section.CRN))
	for _, student := range students {
		enrolled, err := s.svc.Students.EnrolledSections(s.ctx, student.ID)
		s.Require().NoError(err)
		s.Empty(enrolled)
		s.Empty(s.repos.RosterRepository.Schedule(s.ctx, student.ID))
	}
	s.Empty(s.repos.RosterRepository.Assignments(s.ctx, instructor.ID))
}
