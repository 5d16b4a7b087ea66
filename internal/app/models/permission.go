package models

import (
	"fmt"
	"strings"
)

// Permission is a capability an admin must hold before a gated action.
type Permission uint8

const (
	PermissionCourseManagement Permission = 1 << iota
	PermissionUserManagement
	PermissionAdminManagement
	PermissionViewCourses
	PermissionViewUsers
)

// AllPermissions lists every permission in display order.
var AllPermissions = []Permission{
	PermissionCourseManagement,
	PermissionUserManagement,
	PermissionAdminManagement,
	PermissionViewCourses,
	PermissionViewUsers,
}

var permissionNames = map[Permission]string{
	PermissionCourseManagement: "COURSE_MANAGEMENT",
	PermissionUserManagement:   "USER_MANAGEMENT",
	PermissionAdminManagement:  "ADMIN_MANAGEMENT",
	PermissionViewCourses:      "VIEW_COURSES",
	PermissionViewUsers:        "VIEW_USERS",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Permission(%d)", uint8(p))
}

// ParsePermission resolves a permission by its name, case-insensitively.
func ParsePermission(name string) (Permission, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for _, p := range AllPermissions {
		if permissionNames[p] == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", name)
}

// PermissionSet is a set of permissions stored as a bit mask.
type PermissionSet uint8

// FullPermissionSet holds every permission.
func FullPermissionSet() PermissionSet {
	return NewPermissionSet(AllPermissions...)
}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	return p != 0 && s&PermissionSet(p) == PermissionSet(p)
}

// With returns the set plus p.
func (s PermissionSet) With(p Permission) PermissionSet {
	return s | PermissionSet(p)
}

// Without returns the set minus p.
func (s PermissionSet) Without(p Permission) PermissionSet {
	return s &^ PermissionSet(p)
}

// List returns the members in display order.
func (s PermissionSet) List() []Permission {
	var out []Permission
	for _, p := range AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// String renders the members as "A, B, C"; an empty set renders as "".
func (s PermissionSet) String() string {
	names := make([]string, 0, len(AllPermissions))
	for _, p := range s.List() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
