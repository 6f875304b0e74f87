// Package queue defines message payloads exchanged over the broker and
// the background consumer that turns them into outgoing email.
package queue

// Queue names. Routing uses the default exchange so the routing key is
// the queue name.
const (
	QueueAppointmentBooked   = "appointment.booked"
	QueueAppointmentCanceled = "appointment.canceled"
)

// AppointmentBookedEvent is published when a booking transaction
// commits. It carries enough detail for the mail consumer to compose
// both the student confirmation and the admin notification without
// touching the database.
type AppointmentBookedEvent struct {
	AppointmentID uint64 `json:"appointment_id"`
	UserID        uint64 `json:"user_id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Type          string `json:"type"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	BookedAt      string `json:"booked_at"`
}

// AppointmentCanceledEvent is published when a cancellation commits.
type AppointmentCanceledEvent struct {
	AppointmentID uint64 `json:"appointment_id"`
	UserID        uint64 `json:"user_id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	StartsAt      string `json:"starts_at"`
	CanceledAt    string `json:"canceled_at"`
	ByAdmin       bool   `json:"by_admin"`
}
