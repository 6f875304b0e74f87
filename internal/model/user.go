package model

import "time"

// Roles stored in users.role. There is exactly one canonical admin used
// as the counterparty of every internal-messaging conversation; "visitor"
// accounts are created from lead-capture forms with a generated password.
const (
	RoleUser    = "user"
	RoleVisitor = "visitor"
	RoleAdmin   = "admin"
)

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. The password
// reset token lives directly on the user row: at most one reset token is
// active per user and it is cleared on successful consumption.
//
// Fields:
//
//	ID                – primary key identifier of the user.
//	Email             – unique email address (natural lookup key, mutable).
//	PasswordHash      – bcrypt hashed password.
//	FirstName         – given name.
//	LastName          – family name.
//	Role              – one of user, visitor, admin.
//	ResetToken        – active password reset token (nullable).
//	ResetTokenExpires – expiry of the reset token (nullable).
//	CreatedAt         – timestamp of creation.
//	UpdatedAt         – timestamp of last update.
type User struct {
	ID                uint64     // users.id
	Email             string     // users.email
	PasswordHash      string     // users.password_hash
	FirstName         string     // users.first_name
	LastName          string     // users.last_name
	Role              string     // users.role
	ResetToken        *string    // users.reset_token (nullable)
	ResetTokenExpires *time.Time // users.reset_token_expires (nullable)
	CreatedAt         time.Time  // users.created_at
	UpdatedAt         time.Time  // users.updated_at
}

// Profile holds the coaching progress data attached 1:1 to a user. The
// progression_* columns are percentages (0-100) driven by profile
// completion, document uploads, submitted forms and booked appointments.
type Profile struct {
	UserID              uint64     // profiles.user_id
	Phone               *string    // profiles.phone (nullable)
	Address             *string    // profiles.address (nullable)
	BirthDate           *time.Time // profiles.birth_date (nullable)
	FamilyStatus        *string    // profiles.family_status (nullable)
	ProgressProfile     int        // profiles.progress_profile
	ProgressDocuments   int        // profiles.progress_documents
	ProgressForm        int        // profiles.progress_form
	ProgressPhoneCall   int        // profiles.progress_phone_call
	ProgressStrategy    int        // profiles.progress_strategy_call
	UpdatedAt           time.Time  // profiles.updated_at
}

// Document is a metadata row for a file the user has provided; only the
// reference is stored, never the file itself.
type Document struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Form is a coaching questionnaire submitted by a user. Data is an opaque
// JSON document owned by the frontend.
type Form struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Data      string    `json:"data"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
