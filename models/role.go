package models

// Master role names. Stored directly on the user row.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "super_admin"
)

// ValidRole reports whether name is one of the master roles.
func ValidRole(name string) bool {
	switch name {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}
