package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/sso-service/internal/domain"
)

type userRow struct {
	ID        string
	Email     string
	Name      string
	Role      string
	Disabled  bool
	SignupAt  sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

const userColumns = `id, email, name, role, disabled, signup_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Email,
		&ur.Name,
		&ur.Role,
		&ur.Disabled,
		&ur.SignupAt,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:        ur.ID,
		Email:     ur.Email,
		Name:      ur.Name,
		Role:      domain.Role(ur.Role),
		Disabled:  ur.Disabled,
		CreatedAt: ur.CreatedAt,
		UpdatedAt: ur.UpdatedAt,
	}
	if ur.SignupAt.Valid {
		t := ur.SignupAt.Time
		u.SignupAt = &t
	}
	return u
}
