package realtime

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"listing-chat-service/internal/observability"
)

// Publisher fans events out to realtime channels. Publishing is best-effort:
// implementations log failures and callers never treat them as fatal.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
	Close() error
}

// NewPublisher builds an AMQP publisher or a noop publisher when the
// transport is disabled or unreachable. Events go to a topic exchange with
// the channel name as routing key; the realtime gateway consumes from there.
func NewPublisher(amqpURL, exchange string, publishTimeout time.Duration, log zerolog.Logger) Publisher {
	log = log.With().Str("component", "realtime").Logger()

	if amqpURL == "" {
		log.Info().Msg("realtime publishing disabled, using noop: empty amqp url")
		return noopPublisher{log: log}
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Warn().Err(err).Msg("realtime publishing disabled, using noop")
		return noopPublisher{log: log}
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("realtime publishing disabled, using noop")
		_ = conn.Close()
		return noopPublisher{log: log}
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		log.Warn().Err(err).Msg("realtime publishing disabled, using noop")
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{log: log}
	}

	log.Info().Str("exchange", exchange).Msg("realtime publisher connected")
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange, timeout: publishTimeout, log: log}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
	log      zerolog.Logger
}

func (p *amqpPublisher) Publish(ctx context.Context, channel string, event Event) error {
	ctx, span := startPublishSpan(ctx, channel, event.Event)
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		observability.IncRealtimePublishError()
		p.log.Warn().Err(err).Str("channel", channel).Str("event", event.Event).Msg("realtime publish failed")
		return err
	}

	observability.IncRealtimeEvent(event.Event)
	return nil
}

func startPublishSpan(ctx context.Context, channel, event string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("listing-chat-service/realtime").Start(ctx, "realtime.publish")
	span.SetAttributes(
		attribute.String("realtime.channel", channel),
		attribute.String("realtime.event", event),
	)
	return ctx, span
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	log zerolog.Logger
}

func (p noopPublisher) Publish(ctx context.Context, channel string, event Event) error {
	p.log.Debug().Str("channel", channel).Str("event", event.Event).Msg("realtime noop publish")
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode reports the publisher mode for startup logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}
