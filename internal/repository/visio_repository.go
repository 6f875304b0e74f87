package repository

import (
	"context"
	"database/sql"

	"github.com/odialabs/coaching-api/internal/model"
)

// VisioRepo stores video-call links, at most one active per user.
type VisioRepo struct{ DB *sql.DB }

func NewVisioRepo(db *sql.DB) *VisioRepo { return &VisioRepo{DB: db} }

// ActivateTx deactivates any existing active link for the user and
// inserts the new one as active, in one transaction.
func (r *VisioRepo) ActivateTx(ctx context.Context, userID uint64, url string) (model.VisioLink, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.VisioLink{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE visio_links SET is_active = FALSE WHERE user_id = ? AND is_active = TRUE", userID); err != nil {
		return model.VisioLink{}, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO visio_links (user_id, url, is_active) VALUES (?,?,TRUE)", userID, url)
	if err != nil {
		return model.VisioLink{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.VisioLink{}, err
	}
	var v model.VisioLink
	if err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, url, is_active, created_at, updated_at FROM visio_links WHERE id=?", id).
		Scan(&v.ID, &v.UserID, &v.URL, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return model.VisioLink{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.VisioLink{}, err
	}
	return v, nil
}

// Deactivate turns off the user's active link, if any.
func (r *VisioRepo) Deactivate(ctx context.Context, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE visio_links SET is_active = FALSE WHERE user_id = ? AND is_active = TRUE", userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActiveByUser returns the user's current active link.
func (r *VisioRepo) GetActiveByUser(ctx context.Context, userID uint64) (model.VisioLink, error) {
	var v model.VisioLink
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, url, is_active, created_at, updated_at FROM visio_links WHERE user_id = ? AND is_active = TRUE",
		userID).Scan(&v.ID, &v.UserID, &v.URL, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.VisioLink{}, ErrNotFound
	}
	return v, err
}
