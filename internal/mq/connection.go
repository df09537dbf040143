package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ReportExchangeKind is the exchange type report events are published to
const ReportExchangeKind = "topic"

// Connection is the broker connection used for report events
type Connection struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

// NewConnection dials the broker. Closing is tied to the fx lifecycle.
func NewConnection(lc fx.Lifecycle, logger *zap.Logger, url string) (*Connection, error) {
	logger.Info("attempting to connect to RabbitMQ...")

	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Error("rabbitmq connection failed", zap.Error(err))
		return nil, fmt.Errorf("[RABBITMQ CONNECTION FAILED] cannot connect to RabbitMQ. Please check RABBITMQ_URL or unset it to disable report events. Error: %w", err)
	}

	go logClosures(logger, conn.NotifyClose(make(chan *amqp.Error, 1)))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("rabbitmq connection established successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := conn.Close(); err != nil {
				logger.Error("failed to close rabbitmq connection", zap.Error(err))
				return err
			}
			logger.Info("rabbitmq connection closed")
			return nil
		},
	})

	return &Connection{conn: conn, logger: logger}, nil
}

// ReportChannel opens a channel with the report exchange declared on it
func (c *Connection) ReportChannel(exchange string) (*amqp.Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := declareReportExchange(ch, exchange); err != nil {
		return nil, err
	}
	c.logger.Info("report exchange declared", zap.String("exchange", exchange))
	return ch, nil
}

type exchangeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

// declareReportExchange declares a durable topic exchange, closing ch when
// the declaration is refused.
func declareReportExchange(ch exchangeChannel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange,
		ReportExchangeKind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

// logClosures reports broker-initiated closes. A graceful close ends the
// channel without a value.
func logClosures(logger *zap.Logger, closed <-chan *amqp.Error) {
	for amqpErr := range closed {
		logger.Error("rabbitmq connection closed by broker, report events disabled",
			zap.Int("code", amqpErr.Code),
			zap.String("reason", amqpErr.Reason),
		)
	}
}
