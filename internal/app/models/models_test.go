package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionSet(t *testing.T) {
	var set PermissionSet
	assert.False(t, set.Has(PermissionCourseManagement))
	assert.Equal(t, "", set.String())

	set = set.With(PermissionViewUsers).With(PermissionCourseManagement)
	set = set.With(PermissionCourseManagement)
	assert.True(t, set.Has(PermissionCourseManagement))
	assert.True(t, set.Has(PermissionViewUsers))
	assert.False(t, set.Has(PermissionAdminManagement))
	assert.Equal(t, "COURSE_MANAGEMENT, VIEW_USERS", set.String())

	set = set.Without(PermissionViewUsers).Without(PermissionViewUsers)
	assert.Equal(t, []Permission{PermissionCourseManagement}, set.List())

	full := FullPermissionSet()
	assert.Len(t, full.List(), 5)
	assert.False(t, full.Has(0))
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission(" view_courses ")
	require.NoError(t, err)
	assert.Equal(t, PermissionViewCourses, p)

	_, err = ParsePermission("SUPERUSER")
	require.Error(t, err)
}

func TestUserCloneIsDeep(t *testing.T) {
	u := &User{
		ID:       "801000000",
		Name:     "Jane Doe",
		RoleType: RoleStudent,
		Student:  &StudentProfile{AdvisingHold: true},
	}
	c := u.Clone()
	c.Student.AdvisingHold = false
	assert.True(t, u.Student.AdvisingHold)
	assert.Equal(t, "Jane", c.FirstName())
	assert.True(t, c.IsStudent())
	assert.False(t, c.IsAdmin())

	var nilUser *User
	assert.Nil(t, nilUser.Clone())
	assert.False(t, nilUser.IsInstructor())
}

func TestSectionHelpers(t *testing.T) {
	s := Section{
		CRN:      "10001",
		Capacity: 2,
		Enrolled: 2,
		TimeSlots: []TimeSlot{
			MustTimeSlot(time.Monday, Clock(9, 0), Clock(10, 15)),
		},
	}
	assert.True(t, s.IsFull())
	assert.Equal(t, "2/2", s.SizeLabel())
	assert.Equal(t, "Monday 09:00-10:15", s.ScheduleLabel())

	c := s.Clone()
	c.TimeSlots[0] = MustTimeSlot(time.Friday, Clock(9, 0), Clock(10, 0))
	assert.Equal(t, time.Monday, s.TimeSlots[0].Day())

	course := Course{ID: "MATH 1241", SectionCRNs: []string{"10001"}}
	assert.True(t, course.HasSection("10001"))
	assert.False(t, course.HasSection("10002"))
}

func TestRoleTypeValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid())
	}
	assert.False(t, RoleType("GUEST").Valid())
}
