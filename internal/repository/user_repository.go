package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/blood-donation-match/internal/model"
	"github.com/iliyamo/blood-donation-match/internal/utils"
)

// UserRepo provides access to the `users` table. Soft-deleted rows
// (deleted_at set) are invisible to the lookup methods so that a
// deleted account fails credential resolution everywhere.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,full_name,phone_number,role,deleted_at,created_at,updated_at"

// Create inserts a user and returns its ID. The email is normalized to
// lower case before hashing and insertion. A duplicate email or
// username surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, username, password, role, fullName string, phone *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, full_name, phone_number, role) VALUES (?,?,?,?,?,?)",
		email, username, hash, fullName, phone, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a live user by normalized email. Soft-deleted
// accounts are treated as absent and yield ErrUserNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1", email)
}

// GetByID fetches a live user by id. Soft-deleted accounts yield
// ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id)
}

// SoftDelete marks the account deleted by stamping deleted_at. The row
// is kept so that existing requests and responses stay attributable.
// Deleting an already-deleted account is a no-op.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at = UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL", id)
	return err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	var phone sql.NullString
	var deletedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName,
		&phone, &u.Role, &deletedAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if phone.Valid {
		p := phone.String
		u.PhoneNumber = &p
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, nil
}
