package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tikprofil/checkout-service-go/internal/checkout"
)

type SequenceSource interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// RabbitPublisher announces confirmed orders on the events exchange. Admin
// dashboards subscribe to this feed instead of polling the order store.
type RabbitPublisher struct {
	ch        *amqp.Channel
	sequences SequenceSource
}

func NewRabbitPublisher(conn *amqp.Connection, sequences SequenceSource) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return &RabbitPublisher{ch: ch, sequences: sequences}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishOrderSubmitted(ctx context.Context, req checkout.Request, res checkout.Result) error {
	seq, err := p.sequences.NextSequence(ctx, req.BusinessSlug)
	if err != nil {
		return fmt.Errorf("order submitted sequence: %w", err)
	}

	env := newOrderSubmittedEvent(req, res, seq, time.Now().UTC())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderSubmitted: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		OrderSubmittedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
