package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-auth-service/internal/model"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with email_verified=false and returns its ID. The
// password must already be hashed by the caller; repositories never see
// plaintext credentials.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string, termsAccepted bool) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, terms_accepted) VALUES (?,?,?,?)",
		username, email, passwordHash, termsAccepted)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "email=?", email)
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.get(ctx, "username=?", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, "id=?", id)
}

func (r *UserRepo) get(ctx context.Context, where string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,email_verified,terms_accepted,created_at,updated_at FROM users WHERE "+where+" LIMIT 1",
		arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.TermsAccepted, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// MarkVerified sets email_verified=true for a user.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified=TRUE, updated_at=NOW() WHERE id=?", id)
	return err
}

// SetPassword replaces the stored password hash for a user.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=NOW() WHERE id=?", passwordHash, id)
	return err
}

// UpdateProfile applies a partial profile update. Empty fields are left
// untouched. Changing the email clears email_verified, because the new
// address has never had a verification token consumed against it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, email string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username != "" {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET username=?, updated_at=NOW() WHERE id=?", username, id); err != nil {
			return model.User{}, mapDuplicate(err)
		}
	}
	if email != "" {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET email=?, email_verified=FALSE, updated_at=NOW() WHERE id=?", email, id); err != nil {
			return model.User{}, mapDuplicate(err)
		}
	}
	return r.GetByID(ctx, id)
}

// mapDuplicate translates a MySQL duplicate-key error (code 1062) into the
// sentinel for whichever unique index collided. Other errors pass through.
func mapDuplicate(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}
