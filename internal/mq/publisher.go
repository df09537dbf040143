package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/octobot/internal/domain"
	"go.uber.org/zap"
)

// Channel is the part of an AMQP channel the publisher uses
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher emits an event for every generated status report
type Publisher struct {
	channel    Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// NewPublisher opens a channel on conn with the report exchange declared
func NewPublisher(conn *Connection, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.ReportChannel(exchange)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithChannel(ch, exchange, routingKey, logger), nil
}

// NewPublisherWithChannel creates a publisher over an already prepared channel
func NewPublisherWithChannel(ch Channel, exchange, routingKey string, logger *zap.Logger) *Publisher {
	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// ReportEvent is the event published after a report is built
type ReportEvent struct {
	GeneratedAt       string `json:"generated_at"`
	LiveWatts         int64  `json:"live_watts"`
	YesterdayUsageKWh string `json:"yesterday_usage_kwh"`
	YesterdayCost     string `json:"yesterday_cost"`
	MonthUsageKWh     string `json:"month_usage_kwh"`
	MonthCost         string `json:"month_cost"`
	TariffName        string `json:"tariff_name"`
	UnitRate          string `json:"unit_rate"`
	StandingCharge    string `json:"standing_charge"`
}

// NewReportEvent flattens a report into its event form. Amounts keep their
// display precision.
func NewReportEvent(r domain.StatusReport) ReportEvent {
	return ReportEvent{
		GeneratedAt:       r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		LiveWatts:         r.LiveWatts,
		YesterdayUsageKWh: r.Yesterday.Usage.StringFixed(2),
		YesterdayCost:     r.Yesterday.Cost.StringFixed(2),
		MonthUsageKWh:     r.LastMonth.Usage.StringFixed(2),
		MonthCost:         r.LastMonth.Cost.StringFixed(2),
		TariffName:        r.Tariff.Name,
		UnitRate:          r.Tariff.UnitRate.StringFixed(4),
		StandingCharge:    r.Tariff.StandingCharge.StringFixed(4),
	}
}

// Record publishes report as a ReportEvent
func (p *Publisher) Record(ctx context.Context, report domain.StatusReport) error {
	event := NewReportEvent(report)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published report event",
		zap.String("routing_key", p.routingKey),
		zap.String("generated_at", event.GeneratedAt),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
