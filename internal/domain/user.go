package domain

import "time"

type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Disabled  bool
	SignupAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Role     *Role
	Disabled *bool
	SignupAt *time.Time
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Role == nil && u.Disabled == nil && u.SignupAt == nil
}

// Apply returns user with the non-nil fields of u copied onto it.
func (u UserUpdate) Apply(user User) User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.Disabled != nil {
		user.Disabled = *u.Disabled
	}
	if u.SignupAt != nil {
		t := *u.SignupAt
		user.SignupAt = &t
	}
	return user
}
