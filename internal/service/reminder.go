package service

import (
	"context"
	"log"
	"time"

	"github.com/odialabs/coaching-api/internal/mail"
	"github.com/odialabs/coaching-api/internal/repository"
)

// Reminder windows.
const (
	Window24h = 24 * time.Hour
	Window2h  = 2 * time.Hour
)

// Reminders sends scheduled email nudges: upcoming-appointment
// reminders at 24h and 2h, and a daily reminder to students who left
// coach messages unread for more than two days.
type Reminders struct {
	Appointments *repository.AppointmentRepo
	Messages     *repository.MessageRepo
	Mailer       *mail.Client
}

func NewReminders(appointments *repository.AppointmentRepo, messages *repository.MessageRepo, mailer *mail.Client) *Reminders {
	return &Reminders{Appointments: appointments, Messages: messages, Mailer: mailer}
}

// SendAppointmentReminders emails everyone whose scheduled appointment
// starts within the window and has not been reminded for that window
// yet. Each appointment is marked reminded only after its mail goes
// out, so a failed send retries on the next run.
func (r *Reminders) SendAppointmentReminders(ctx context.Context, window time.Duration) (int, error) {
	column := "reminded_24h"
	label := "dans moins de 24 heures"
	if window == Window2h {
		column = "reminded_2h"
		label = "dans moins de 2 heures"
	}

	due, err := r.Appointments.DueForReminder(ctx, column, window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		subject, body := mail.AppointmentReminder(d.FirstName, d.StartAt, label)
		if err := r.Mailer.Send(d.Email, subject, body); err != nil {
			log.Printf("[reminders] appointment %d: send to %s failed: %v", d.ID, d.Email, err)
			continue
		}
		if err := r.Appointments.MarkReminded(ctx, d.ID, column); err != nil {
			log.Printf("[reminders] appointment %d: mark failed: %v", d.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// SendUnreadMessageReminders emails students holding admin messages
// unread for more than 48 hours.
func (r *Reminders) SendUnreadMessageReminders(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-48 * time.Hour)
	pending, err := r.Messages.UnreadAdminMessagesOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range pending {
		subject, body := mail.UnreadMessages(p.FirstName, p.Count)
		if err := r.Mailer.Send(p.Email, subject, body); err != nil {
			log.Printf("[reminders] unread mail to %s failed: %v", p.Email, err)
			continue
		}
		sent++
	}
	return sent, nil
}
