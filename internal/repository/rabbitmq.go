package repository

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
)

// QueueForEngine maps an engine name (or "comprehensive") to its queue name.
// Routing keys match queue names one to one on a direct exchange.
func QueueForEngine(engine string) string {
	return "analysis." + engine
}

// QueueComprehensive carries both comprehensive and bulk jobs.
const QueueComprehensive = "comprehensive"

func AllQueues() []string {
	return []string{
		QueueForEngine(models.EngineTags),
		QueueForEngine(models.EngineSimilarity),
		QueueForEngine(models.EngineQuality),
		QueueForEngine(models.EngineQuiz),
		QueueForEngine(models.EnginePlagiarism),
		QueueForEngine(QueueComprehensive),
	}
}

type RabbitMQRepository interface {
	Channel() *amqp.Channel
	SetupTopology(exchange string) error
	Close() error
}

type rabbitMQRepository struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger
}

func NewRabbitMQRepository(url string, logger zerolog.Logger) (RabbitMQRepository, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info().Msg("Connected to RabbitMQ")

	return &rabbitMQRepository{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

func (r *rabbitMQRepository) Channel() *amqp.Channel {
	return r.channel
}

// Retries ride an x-delay header, which RabbitMQ only honors on a
// delayed-message exchange (plugin). The plugin wraps an inner exchange
// whose type comes from the x-delayed-type argument.
const exchangeKind = "x-delayed-message"

func delayedExchangeArgs() amqp.Table {
	return amqp.Table{"x-delayed-type": "direct"}
}

// SetupTopology declares the delayed-message exchange and one durable queue
// per engine plus the comprehensive/bulk queue.
func (r *rabbitMQRepository) SetupTopology(exchange string) error {
	err := r.channel.ExchangeDeclare(
		exchange,              // name
		exchangeKind,          // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		delayedExchangeArgs(), // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	for _, queue := range AllQueues() {
		q, err := r.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}

		err = r.channel.QueueBind(
			q.Name,   // queue name
			queue,    // routing key
			exchange, // exchange
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", queue, err)
		}

		r.logger.Info().
			Str("exchange", exchange).
			Str("queue", q.Name).
			Msg("RabbitMQ queue setup complete")
	}

	return nil
}

func (r *rabbitMQRepository) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}
