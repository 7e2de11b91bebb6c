package domain

type Role string

const (
	// Editor can sign in and work with content, but cannot manage users.
	RoleEditor Role = "editor"
	// Admin can manage users and settings. The first user to sign in becomes admin.
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	return r == string(RoleEditor) || r == string(RoleAdmin)
}
