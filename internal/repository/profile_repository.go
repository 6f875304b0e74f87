package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/odialabs/coaching-api/internal/model"
)

// ProfileRepo provides data access to profiles, documents and forms. The
// progress_* columns are maintained here: completing the profile fields,
// adding a first document or submitting a form bumps the corresponding
// percentage to 100.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Get fetches the profile row for a user.
func (r *ProfileRepo) Get(ctx context.Context, userID uint64) (model.Profile, error) {
	var (
		p      model.Profile
		phone  sql.NullString
		addr   sql.NullString
		birth  sql.NullTime
		status sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, phone, address, birth_date, family_status,
		        progress_profile, progress_documents, progress_form,
		        progress_phone_call, progress_strategy_call, updated_at
		 FROM profiles WHERE user_id=?`, userID).
		Scan(&p.UserID, &phone, &addr, &birth, &status,
			&p.ProgressProfile, &p.ProgressDocuments, &p.ProgressForm,
			&p.ProgressPhoneCall, &p.ProgressStrategy, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	if addr.Valid {
		p.Address = &addr.String
	}
	if birth.Valid {
		p.BirthDate = &birth.Time
	}
	if status.Valid {
		p.FamilyStatus = &status.String
	}
	return p, nil
}

// UpdateInformations updates the contact fields and bumps the profile
// progression to 100 once all four are present, in one statement so the
// progression can never observe a half-updated row.
func (r *ProfileRepo) UpdateInformations(ctx context.Context, userID uint64, phone, address, familyStatus *string, birthDate *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE profiles SET
		     phone = ?, address = ?, birth_date = ?, family_status = ?,
		     progress_profile = CASE
		         WHEN ? IS NOT NULL AND ? IS NOT NULL AND ? IS NOT NULL AND ? IS NOT NULL
		         THEN 100 ELSE progress_profile END
		 WHERE user_id = ?`,
		phone, address, birthDate, familyStatus,
		phone, address, birthDate, familyStatus, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProgress sets a single progression column. The column name is taken
// from a fixed whitelist, never from caller input.
func (r *ProfileRepo) SetProgress(ctx context.Context, userID uint64, column string, value int) error {
	switch column {
	case "progress_profile", "progress_documents", "progress_form",
		"progress_phone_call", "progress_strategy_call":
	default:
		return ErrNotFound
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET "+column+"=? WHERE user_id=?", value, userID)
	return err
}

// AddDocument stores a document metadata row and marks the documents
// progression complete.
func (r *ProfileRepo) AddDocument(ctx context.Context, userID uint64, name, docType, url string) (model.Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Document{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO documents (user_id, name, type, url) VALUES (?,?,?,?)",
		userID, name, docType, url)
	if err != nil {
		return model.Document{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Document{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET progress_documents=100 WHERE user_id=?", userID); err != nil {
		return model.Document{}, err
	}

	var d model.Document
	err = tx.QueryRowContext(ctx,
		"SELECT id, user_id, name, type, url, created_at FROM documents WHERE id=?", id).
		Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.URL, &d.CreatedAt)
	if err != nil {
		return model.Document{}, err
	}
	return d, tx.Commit()
}

// ListDocuments returns a user's documents, newest first.
func (r *ProfileRepo) ListDocuments(ctx context.Context, userID uint64) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, name, type, url, created_at FROM documents WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.URL, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SaveForm inserts a form submission and marks the form progression
// complete in the same transaction.
func (r *ProfileRepo) SaveForm(ctx context.Context, userID uint64, data string) (model.Form, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Form{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO forms (user_id, data, status) VALUES (?,?,'submitted')",
		userID, data)
	if err != nil {
		return model.Form{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Form{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET progress_form=100 WHERE user_id=?", userID); err != nil {
		return model.Form{}, err
	}

	f, err := scanFormTx(ctx, tx, uint64(id))
	if err != nil {
		return model.Form{}, err
	}
	return f, tx.Commit()
}

// UpdateForm replaces the data of an existing form belonging to the user.
func (r *ProfileRepo) UpdateForm(ctx context.Context, userID, formID uint64, data string) (model.Form, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE forms SET data=? WHERE id=? AND user_id=?", data, formID, userID)
	if err != nil {
		return model.Form{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Distinguish missing from unchanged: an update with identical
		// data also affects zero rows in MySQL, so probe for existence.
		var one int
		probe := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM forms WHERE id=? AND user_id=?", formID, userID).Scan(&one)
		if probe == sql.ErrNoRows {
			return model.Form{}, ErrNotFound
		}
	}

	var f model.Form
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, data, status, created_at, updated_at FROM forms WHERE id=?", formID).
		Scan(&f.ID, &f.UserID, &f.Data, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// ListForms returns a user's form submissions, newest first.
func (r *ProfileRepo) ListForms(ctx context.Context, userID uint64) ([]model.Form, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, data, status, created_at, updated_at FROM forms WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []model.Form
	for rows.Next() {
		var f model.Form
		if err := rows.Scan(&f.ID, &f.UserID, &f.Data, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// DeleteForm removes a form belonging to the user.
func (r *ProfileRepo) DeleteForm(ctx context.Context, userID, formID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM forms WHERE id=? AND user_id=?", formID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFormTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Form, error) {
	var f model.Form
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, data, status, created_at, updated_at FROM forms WHERE id=?", id).
		Scan(&f.ID, &f.UserID, &f.Data, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}
