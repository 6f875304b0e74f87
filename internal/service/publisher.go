package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/odialabs/coaching-api/internal/queue"
)

// Publisher sends appointment events to RabbitMQ. Publishing is
// best-effort: failures are logged and returned, but booking and
// cancellation flows ignore them because the database transaction has
// already committed.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher. An empty URL disables publishing.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// PublishAppointmentBooked emits an AppointmentBookedEvent.
func (p *Publisher) PublishAppointmentBooked(ctx context.Context, ev q.AppointmentBookedEvent) error {
	return p.publish(ctx, q.QueueAppointmentBooked, ev)
}

// PublishAppointmentCanceled emits an AppointmentCanceledEvent.
func (p *Publisher) PublishAppointmentCanceled(ctx context.Context, ev q.AppointmentCanceledEvent) error {
	return p.publish(ctx, q.QueueAppointmentCanceled, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, event interface{}) error {
	if p.url == "" {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
