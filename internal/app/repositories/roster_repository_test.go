package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type RosterRepositorySuite struct {
	suite.Suite
	repo *RosterRepository
	ctx  context.Context
}

func (s *RosterRepositorySuite) SetupTest() {
	s.repo = NewRosterRepository()
	s.ctx = context.Background()
}

func TestRosterRepositorySuite(t *testing.T) {
	suite.Run(t, new(RosterRepositorySuite))
}

func (s *RosterRepositorySuite) TestEnrollKeepsBothSidesInSync() {
	s.Require().NoError(s.repo.Enroll(s.ctx, "10001", "801000000", 2, nil))
	s.Require().NoError(s.repo.Enroll(s.ctx, "10002", "801000000", 2, nil))

	s.Equal([]string{"801000000"}, s.repo.Roster(s.ctx, "10001"))
	s.Equal([]string{"10001", "10002"}, s.repo.Schedule(s.ctx, "801000000"))
	s.True(s.repo.IsEnrolled(s.ctx, "10001", "801000000"))

	s.Require().NoError(s.repo.Drop(s.ctx, "10001", "801000000"))
	s.Empty(s.repo.Roster(s.ctx, "10001"))
	s.Equal([]string{"10002"}, s.repo.Schedule(s.ctx, "801000000"))
}

func (s *RosterRepositorySuite) TestEnrollRejections() {
	s.Run("already enrolled", func() {
		repo := NewRosterRepository()
		s.Require().NoError(repo.Enroll(s.ctx, "10001", "a", 5, nil))
		s.ErrorIs(repo.Enroll(s.ctx, "10001", "a", 5, nil), apperrors.ErrAlreadyEnrolled)
		s.Equal(1, repo.Count(s.ctx, "10001"))
	})

	s.Run("capacity", func() {
		repo := NewRosterRepository()
		s.Require().NoError(repo.Enroll(s.ctx, "10001", "a", 1, nil))
		s.ErrorIs(repo.Enroll(s.ctx, "10001", "b", 1, nil), apperrors.ErrCapacityExceeded)
		s.Empty(repo.Schedule(s.ctx, "b"))
	})

	s.Run("guard vetoes before roster checks", func() {
		repo := NewRosterRepository()
		s.Require().NoError(repo.Enroll(s.ctx, "10001", "a", 1, nil))
		veto := errors.New("veto")
		var seen []string
		err := repo.Enroll(s.ctx, "10001", "a", 1, func(crns []string) error {
			seen = crns
			return veto
		})
		s.ErrorIs(err, veto)
		s.Equal([]string{"10001"}, seen)
	})

	s.Run("drop of absent student", func() {
		s.ErrorIs(s.repo.Drop(s.ctx, "10009", "nobody"), apperrors.ErrNotEnrolled)
	})
}

func (s *RosterRepositorySuite) TestCapacityHoldsUnderConcurrency() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.repo.Enroll(s.ctx, "10001", string(rune('A'+i)), 10, nil)
		}(i)
	}
	wg.Wait()
	s.Equal(10, s.repo.Count(s.ctx, "10001"))
}

func (s *RosterRepositorySuite) TestAssignments() {
	s.Equal("", s.repo.Assign(s.ctx, "10001", "802000000"))
	s.Equal([]string{"10001"}, s.repo.Assignments(s.ctx, "802000000"))

	s.Run("reassign moves the section", func() {
		previous := s.repo.Assign(s.ctx, "10001", "802000001")
		s.Equal("802000000", previous)
		s.Empty(s.repo.Assignments(s.ctx, "802000000"))
		id, ok := s.repo.InstructorOf(s.ctx, "10001")
		s.True(ok)
		s.Equal("802000001", id)
	})

	s.Run("unassign", func() {
		s.repo.Assign(s.ctx, "10001", "")
		_, ok := s.repo.InstructorOf(s.ctx, "10001")
		s.False(ok)
		s.Empty(s.repo.Assignments(s.ctx, "802000001"))
	})

	s.Run("assign if not held", func() {
		s.Require().NoError(s.repo.AssignIfNotHeld(s.ctx, "802000000", "10002", nil))
		s.ErrorIs(s.repo.AssignIfNotHeld(s.ctx, "802000000", "10002", nil), apperrors.ErrAlreadyAssigned)
	})

	s.Run("unassign if held", func() {
		s.ErrorIs(s.repo.UnassignIfHeld(s.ctx, "802000001", "10002"), apperrors.ErrNotAssigned)
		s.Require().NoError(s.repo.UnassignIfHeld(s.ctx, "802000000", "10002"))
		s.ErrorIs(s.repo.UnassignIfHeld(s.ctx, "802000000", "10002"), apperrors.ErrNotAssigned)
	})
}

func (s *RosterRepositorySuite) TestPreconditionsAbortLinks() {
	gone := func() error { return apperrors.ErrSectionNotFound }

	s.ErrorIs(s.repo.Enroll(s.ctx, "10001", "u1", 5, func([]string) error { return gone() }), apperrors.ErrSectionNotFound)
	s.ErrorIs(s.repo.AssignIfNotHeld(s.ctx, "i1", "10001", gone), apperrors.ErrSectionNotFound)
	_, err := s.repo.AssignIf(s.ctx, "10001", "i1", gone)
	s.ErrorIs(err, apperrors.ErrSectionNotFound)

	s.Empty(s.repo.Roster(s.ctx, "10001"))
	s.Empty(s.repo.Schedule(s.ctx, "u1"))
	s.Empty(s.repo.Assignments(s.ctx, "i1"))

	previous, err := s.repo.AssignIf(s.ctx, "10001", "i1", nil)
	s.Require().NoError(err)
	s.Empty(previous)
}

func (s *RosterRepositorySuite) TestForgetUser() {
	s.Require().NoError(s.repo.Enroll(s.ctx, "10001", "u1", 5, nil))
	s.Require().NoError(s.repo.Enroll(s.ctx, "10002", "u1", 5, nil))
	s.repo.Assign(s.ctx, "10003", "i1")

	dropped, unassigned := s.repo.ForgetUser(s.ctx, "u1")
	s.ElementsMatch([]string{"10001", "10002"}, dropped)
	s.Empty(unassigned)
	s.Empty(s.repo.Roster(s.ctx, "10001"))

	dropped, unassigned = s.repo.ForgetUser(s.ctx, "i1")
	s.Empty(dropped)
	s.Equal([]string{"10003"}, unassigned)
	_, ok := s.repo.InstructorOf(s.ctx, "10003")
	s.False(ok)
}
