package models

import (
	"strings"
	"time"
)

// User is an identity in the registry. Role-specific state hangs off the
// matching profile; the others stay nil.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	NeedsPasswordReset bool      `json:"needsPasswordReset"`
	RoleType           RoleType  `json:"roleType"`
	CreatedAt          time.Time `json:"createdAt"`

	Student *StudentProfile `json:"student,omitempty"`
	Admin   *AdminProfile   `json:"admin,omitempty"`
}

// StudentProfile holds the state only students carry.
type StudentProfile struct {
	AdvisingHold bool `json:"advisingHold"`
}

// AdminProfile holds the permissions of an admin.
type AdminProfile struct {
	Permissions PermissionSet `json:"permissions"`
}

// IsStudent reports whether the user has the student role.
func (u *User) IsStudent() bool { return u != nil && u.RoleType == RoleStudent }

// IsInstructor reports whether the user has the instructor role.
func (u *User) IsInstructor() bool { return u != nil && u.RoleType == RoleInstructor }

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.RoleType == RoleAdmin }

// FirstName returns the first whitespace-separated token of Name.
func (u *User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Student != nil {
		profile := *u.Student
		out.Student = &profile
	}
	if u.Admin != nil {
		profile := *u.Admin
		out.Admin = &profile
	}
	return &out
}
