package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/odialabs/coaching-api/internal/model"
)

// EducationRepo manages educational sections and their contents.
type EducationRepo struct{ DB *sql.DB }

func NewEducationRepo(db *sql.DB) *EducationRepo { return &EducationRepo{DB: db} }

const sectionColumns = "id, title, description, display_order, created_at, updated_at"
const contentColumns = "id, section_id, title, body, content_type, url, display_order, created_at, updated_at"

// ListSections returns all sections ordered for display.
func (r *EducationRepo) ListSections(ctx context.Context) ([]model.EducationSection, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sectionColumns+" FROM education_sections ORDER BY display_order ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EducationSection
	for rows.Next() {
		var s model.EducationSection
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListContents returns the contents of one section ordered for display.
func (r *EducationRepo) ListContents(ctx context.Context, sectionID uint64) ([]model.EducationContent, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contentColumns+" FROM education_contents WHERE section_id = ? ORDER BY display_order ASC, id ASC",
		sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EducationContent
	for rows.Next() {
		var c model.EducationContent
		if err := rows.Scan(&c.ID, &c.SectionID, &c.Title, &c.Body, &c.ContentType, &c.URL, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateSection inserts a section and returns it.
func (r *EducationRepo) CreateSection(ctx context.Context, title, description string, order int) (model.EducationSection, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO education_sections (title, description, display_order) VALUES (?,?,?)",
		title, description, order)
	if err != nil {
		return model.EducationSection{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.EducationSection{}, err
	}
	return r.getSection(ctx, uint64(id))
}

func (r *EducationRepo) getSection(ctx context.Context, id uint64) (model.EducationSection, error) {
	var s model.EducationSection
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+sectionColumns+" FROM education_sections WHERE id=?", id).
		Scan(&s.ID, &s.Title, &s.Description, &s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.EducationSection{}, ErrNotFound
	}
	return s, err
}

// UpdateSection applies the non-nil fields to a section.
func (r *EducationRepo) UpdateSection(ctx context.Context, id uint64, title, description *string, order *int) (model.EducationSection, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if title != nil {
		sets = append(sets, "title=?")
		args = append(args, *title)
	}
	if description != nil {
		sets = append(sets, "description=?")
		args = append(args, *description)
	}
	if order != nil {
		sets = append(sets, "display_order=?")
		args = append(args, *order)
	}
	if len(sets) == 0 {
		return r.getSection(ctx, id)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE education_sections SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return model.EducationSection{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.EducationSection{}, err
	} else if n == 0 {
		if _, err := r.getSection(ctx, id); err != nil {
			return model.EducationSection{}, err
		}
	}
	return r.getSection(ctx, id)
}

// DeleteSection removes a section and its contents.
func (r *EducationRepo) DeleteSection(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM education_contents WHERE section_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM education_sections WHERE id = ?", id)
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
	return tx.Commit()
}

// CreateContent inserts a content row under a section and returns it.
func (r *EducationRepo) CreateContent(ctx context.Context, c model.EducationContent) (model.EducationContent, error) {
	if _, err := r.getSection(ctx, c.SectionID); err != nil {
		return model.EducationContent{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO education_contents (section_id, title, body, content_type, url, display_order) VALUES (?,?,?,?,?,?)",
		c.SectionID, c.Title, c.Body, c.ContentType, c.URL, c.DisplayOrder)
	if err != nil {
		return model.EducationContent{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.EducationContent{}, err
	}
	return r.getContent(ctx, uint64(id))
}

func (r *EducationRepo) getContent(ctx context.Context, id uint64) (model.EducationContent, error) {
	var c model.EducationContent
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM education_contents WHERE id=?", id).
		Scan(&c.ID, &c.SectionID, &c.Title, &c.Body, &c.ContentType, &c.URL, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.EducationContent{}, ErrNotFound
	}
	return c, err
}

// UpdateContent applies the non-nil fields to a content row.
func (r *EducationRepo) UpdateContent(ctx context.Context, id uint64, title, body, contentType, url *string, order *int) (model.EducationContent, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if title != nil {
		sets = append(sets, "title=?")
		args = append(args, *title)
	}
	if body != nil {
		sets = append(sets, "body=?")
		args = append(args, *body)
	}
	if contentType != nil {
		sets = append(sets, "content_type=?")
		args = append(args, *contentType)
	}
	if url != nil {
		sets = append(sets, "url=?")
		args = append(args, *url)
	}
	if order != nil {
		sets = append(sets, "display_order=?")
		args = append(args, *order)
	}
	if len(sets) == 0 {
		return r.getContent(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE education_contents SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
		return model.EducationContent{}, err
	}
	return r.getContent(ctx, id)
}

// DeleteContent removes one content row.
func (r *EducationRepo) DeleteContent(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM education_contents WHERE id = ?", id)
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
