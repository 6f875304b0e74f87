package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/utils"
)

// UserRepo provides data access to the users table, including the
// password reset token that lives directly on the user row.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,first_name,last_name,role,reset_token,reset_token_expires,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		token   sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &token, &expires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if token.Valid {
		u.ResetToken = &token.String
	}
	if expires.Valid {
		u.ResetTokenExpires = &expires.Time
	}
	return u, nil
}

// Create inserts a user together with its empty profile row in one
// transaction and returns the new id. The password is hashed here so no
// caller ever handles a plaintext password beyond the request boundary.
func (r *UserRepo) Create(ctx context.Context, email, password, firstName, lastName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, role) VALUES (?,?,?,?,?)",
		email, hash, firstName, lastName, role)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id) VALUES (?)", id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,email,first_name,last_name,role,created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CanonicalAdminID returns the id of the lowest-id admin account. The
// deployment is expected to always have one; ErrNotFound here signals a
// misconfiguration, not a user error.
func (r *UserRepo) CanonicalAdminID(ctx context.Context) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE role=? ORDER BY id LIMIT 1",
		model.RoleAdmin).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

// CountByRole returns how many accounts carry the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=?", role).Scan(&n)
	return n, err
}

// UpdateInfo updates the mutable identity attributes. Empty fields are
// left untouched.
func (r *UserRepo) UpdateInfo(ctx context.Context, id uint64, firstName, lastName, email string) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if firstName != "" {
		sets = append(sets, "first_name=?")
		args = append(args, firstName)
	}
	if lastName != "" {
		sets = append(sets, "last_name=?")
		args = append(args, lastName)
	}
	if email != "" {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(email)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
			return ErrEmailExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole changes a user's role. Callers that change the admin roster
// must invalidate the canonical-admin cache afterwards.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a password reset token and its expiry on the user
// row, overwriting any prior token so at most one is active per user.
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, token string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token=?, reset_token_expires=? WHERE id=?",
		token, expires, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPasswordByToken atomically sets a new password hash and clears the
// reset token, succeeding only when a matching non-expired token exists.
// The single statement makes the token single-use: a second consumption
// matches zero rows and returns ErrNotFound, indistinguishable from a
// token that never existed.
func (r *UserRepo) ResetPasswordByToken(ctx context.Context, token, newHash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, reset_token=NULL, reset_token_expires=NULL
		 WHERE reset_token=? AND reset_token_expires > UTC_TIMESTAMP()`,
		newHash, token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCascade removes a user and every dependent row in one all-or-
// nothing transaction: appointments, forms, documents, visio links,
// internal messages in both directions, the profile, then the user row.
// A partial failure rolls the whole delete back.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	deletes := []string{
		"DELETE FROM appointments WHERE user_id=?",
		"DELETE FROM forms WHERE user_id=?",
		"DELETE FROM documents WHERE user_id=?",
		"DELETE FROM visio_links WHERE user_id=?",
		"DELETE FROM internal_messages WHERE sender_id=? OR receiver_id=?",
		"DELETE FROM profiles WHERE user_id=?",
	}
	for _, q := range deletes {
		args := []interface{}{id}
		if strings.Count(q, "?") == 2 {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
