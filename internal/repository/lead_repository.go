package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/odialabs/coaching-api/internal/model"
)

// LeadRepo stores public signup leads and contact messages.
type LeadRepo struct{ DB *sql.DB }

func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{DB: db} }

// CreateLead records a prospect. A duplicate email yields
// ErrEmailExists so the public endpoint can stay idempotent.
func (r *LeadRepo) CreateLead(ctx context.Context, l model.StudentLead) (model.StudentLead, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO student_leads (first_name, last_name, school, region, email) VALUES (?,?,?,?,?)",
		l.FirstName, l.LastName, l.School, l.Region, l.Email)
	if err != nil {
		if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
			return model.StudentLead{}, ErrEmailExists
		}
		return model.StudentLead{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.StudentLead{}, err
	}
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, school, region, email, created_at FROM student_leads WHERE id=?", id).
		Scan(&l.ID, &l.FirstName, &l.LastName, &l.School, &l.Region, &l.Email, &l.CreatedAt)
	return l, err
}

// ListLeads returns all captured leads, newest first.
func (r *LeadRepo) ListLeads(ctx context.Context) ([]model.StudentLead, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, first_name, last_name, school, region, email, created_at FROM student_leads ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StudentLead
	for rows.Next() {
		var l model.StudentLead
		if err := rows.Scan(&l.ID, &l.FirstName, &l.LastName, &l.School, &l.Region, &l.Email, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLead removes a captured lead.
func (r *LeadRepo) DeleteLead(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM student_leads WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateContactMessage records a message from the public contact form.
func (r *LeadRepo) CreateContactMessage(ctx context.Context, email, content string) (model.ContactMessage, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_messages (email, content) VALUES (?,?)", email, content)
	if err != nil {
		return model.ContactMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContactMessage{}, err
	}
	var m model.ContactMessage
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, email, content, created_at FROM contact_messages WHERE id=?", id).
		Scan(&m.ID, &m.Email, &m.Content, &m.CreatedAt)
	return m, err
}

// ListContactMessages returns contact messages, newest first.
func (r *LeadRepo) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, email, content, created_at FROM contact_messages ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Email, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
