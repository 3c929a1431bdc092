package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type RabbitMQPublisher interface {
	Publish(ctx context.Context, exchange, routingKey, msgType string, body []byte) error
	PublishWithDelay(ctx context.Context, exchange, routingKey, msgType string, body []byte, attempt int, delay time.Duration) error
	Close() error
}

type rabbitMQPublisher struct {
	channel *amqp.Channel
	logger  zerolog.Logger
}

func NewRabbitMQPublisher(channel *amqp.Channel, logger zerolog.Logger) RabbitMQPublisher {
	return &rabbitMQPublisher{
		channel: channel,
		logger:  logger,
	}
}

func (p *rabbitMQPublisher) Publish(ctx context.Context, exchange, routingKey, msgType string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		publishCtx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         msgType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishWithDelay republishes a retried message. The delay rides on the
// x-delay header (delayed message exchange plugin), the attempt counter on
// x-attempt so the consumer can enforce the retry budget.
func (p *rabbitMQPublisher) PublishWithDelay(ctx context.Context, exchange, routingKey, msgType string, body []byte, attempt int, delay time.Duration) error {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	headers := amqp.Table{
		"x-attempt": int32(attempt),
	}
	if delay > 0 {
		headers["x-delay"] = int32(delay.Milliseconds())
	}

	return p.channel.PublishWithContext(
		publishCtx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         msgType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      headers,
		},
	)
}

func (p *rabbitMQPublisher) Close() error {
	// Канал закрывается владельцем соединения
	p.logger.Info().Msg("RabbitMQ publisher closed")
	return nil
}
