package model

import "time"

// EducationSection groups educational contents under a titled heading.
type EducationSection struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EducationContent is one piece of educational material inside a section.
type EducationContent struct {
	ID           uint64    `json:"id"`
	SectionID    uint64    `json:"section_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ContentType  string    `json:"content_type"`
	URL          string    `json:"url"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentLead is a prospect captured from the public signup form.
type StudentLead struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	School    string    `json:"school"`
	Region    string    `json:"region"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is an unauthenticated message left through the public
// contact widget, identified only by the visitor's email.
type ContactMessage struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
