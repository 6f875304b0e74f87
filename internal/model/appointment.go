package model

import "time"

// Time slot and appointment states.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"

	AppointmentScheduled = "scheduled"
	AppointmentCanceled  = "canceled"
	AppointmentDone      = "done"

	// Appointment types: a first phone call and a strategy session.
	TypePhone    = "phone"
	TypeStrategy = "strategy"
)

// TimeSlot is a bookable window opened by the admin.
type TimeSlot struct {
	ID        uint64    `json:"id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Status    string    `json:"status"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment links a user to a booked time slot. Reminder flags record
// which reminder emails have already gone out so the periodic scans are
// idempotent.
type Appointment struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	SlotID      uint64    `json:"slot_id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	Reminded24h bool      `json:"-"`
	Reminded2h  bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VisioLink is a video-conference URL the admin activates for a user. At
// most one link per user is active at a time; activating a new one
// deactivates the previous ones in the same transaction.
type VisioLink struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
