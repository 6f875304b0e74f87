package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/odialabs/coaching-api/internal/mail"
)

const eventTimeLayout = time.RFC3339

// StartAppointmentConsumer consumes appointment events and sends the
// matching emails. It runs a reconnect loop with exponential backoff
// and never returns under normal operation; failed messages are
// rejected without requeue so a poison message cannot wedge the queue.
func StartAppointmentConsumer(url, adminEmail string, mailer *mail.Client) {
	if url == "" {
		log.Println("appointment-consumer: no broker configured, consumer disabled")
		return
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("appointment-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, adminEmail, mailer); err != nil {
			log.Printf("appointment-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, adminEmail string, mailer *mail.Client) error {
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("appointment-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{QueueAppointmentBooked, QueueAppointmentCanceled} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	booked, err := ch.Consume(QueueAppointmentBooked, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueAppointmentBooked, err)
	}
	canceled, err := ch.Consume(QueueAppointmentCanceled, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueAppointmentCanceled, err)
	}

	for {
		select {
		case d, ok := <-booked:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			ackOrNack(d, handleBooked(d.Body, adminEmail, mailer))
		case d, ok := <-canceled:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			ackOrNack(d, handleCanceled(d.Body, mailer))
		}
	}
}

func ackOrNack(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("appointment-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func handleBooked(body []byte, adminEmail string, mailer *mail.Client) error {
	var ev AppointmentBookedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	startAt, err := time.Parse(eventTimeLayout, ev.StartsAt)
	if err != nil {
		return fmt.Errorf("parse starts_at: %w", err)
	}

	subject, msg := mail.AppointmentBooked(ev.FirstName, startAt, ev.Type)
	if err := mailer.Send(ev.Email, subject, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	if adminEmail != "" {
		subject, msg = mail.AppointmentBookedAdmin(ev.FirstName, ev.LastName, ev.Email, startAt, ev.Type)
		if err := mailer.Send(adminEmail, subject, msg); err != nil {
			return fmt.Errorf("send admin notification: %w", err)
		}
	}
	return nil
}

func handleCanceled(body []byte, mailer *mail.Client) error {
	var ev AppointmentCanceledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	startAt, err := time.Parse(eventTimeLayout, ev.StartsAt)
	if err != nil {
		return fmt.Errorf("parse starts_at: %w", err)
	}
	subject, msg := mail.AppointmentCanceled(ev.FirstName, startAt)
	if err := mailer.Send(ev.Email, subject, msg); err != nil {
		return fmt.Errorf("send cancellation: %w", err)
	}
	return nil
}
