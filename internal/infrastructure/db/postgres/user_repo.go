package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/sso-service/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ---------- sso.UserDirectory ----------

// AdminRegistrationOpen is true only while the users table is empty.
func (r *UserRepo) AdminRegistrationOpen(ctx context.Context) (bool, error) {
	const q = `SELECT NOT EXISTS (SELECT 1 FROM users);`

	var open bool
	if err := r.db.QueryRowContext(ctx, q).Scan(&open); err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return open, nil
}

func (r *UserRepo) FindOneByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrMissingField("email")
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.ErrDBUnavailable(err)
	}
	u := toDomainUser(ur)
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// Update writes the set fields of upd and returns the stored row.
func (r *UserRepo) Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if upd.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 5)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Role != nil {
		if !domain.IsValidRole(string(*upd.Role)) {
			return domain.User{}, domain.ErrInvalidRole(string(*upd.Role))
		}
		add("role", string(*upd.Role))
	}
	if upd.Disabled != nil {
		add("disabled", *upd.Disabled)
	}
	if upd.SignupAt != nil {
		add("signup_at", *upd.SignupAt)
	}
	sets = append(sets, "updated_at = NOW()")

	q := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + userColumns + `;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.Role == "" {
		u.Role = domain.RoleEditor
	}
	if !domain.IsValidRole(string(u.Role)) {
		return domain.User{}, domain.ErrInvalidRole(string(u.Role))
	}

	var signupAt sql.NullTime
	if u.SignupAt != nil {
		signupAt = sql.NullTime{Time: *u.SignupAt, Valid: true}
	}

	q := `
INSERT INTO users (id, email, name, role, disabled, signup_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING ` + userColumns + `;`

	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.Name, string(u.Role), u.Disabled, signupAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// Ping reports whether the database is reachable.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
