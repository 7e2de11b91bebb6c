package dto

import (
	"time"

	"github.com/baechuer/sso-service/internal/domain"
)

type UserView struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name,omitempty"`
	Role     string     `json:"role"`
	SignupAt *time.Time `json:"signup_at,omitempty"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     string(u.Role),
		SignupAt: u.SignupAt,
	}
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}
