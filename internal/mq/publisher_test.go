package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/septivank/octobot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRecordPublishesReportEvent(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch, "octobot.reports.exchange", "report.generated", zap.NewNop())

	report := domain.StatusReport{
		LiveWatts: 350,
		Yesterday: domain.ConsumptionWindow{Usage: decimal.RequireFromString("8.2"), Cost: decimal.RequireFromString("2.22")},
		LastMonth: domain.ConsumptionWindow{Usage: decimal.RequireFromString("210.5"), Cost: decimal.RequireFromString("57.09")},
		Tariff: domain.TariffRate{
			Name:           "Flexible Octopus",
			UnitRate:       decimal.RequireFromString("0.2712"),
			StandingCharge: decimal.RequireFromString("0.4865"),
		},
		GeneratedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Record(context.Background(), report))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, "octobot.reports.exchange", got.exchange)
	assert.Equal(t, "report.generated", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var event ReportEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &event))
	assert.Equal(t, ReportEvent{
		GeneratedAt:       "2026-10-16T12:00:00Z",
		LiveWatts:         350,
		YesterdayUsageKWh: "8.20",
		YesterdayCost:     "2.22",
		MonthUsageKWh:     "210.50",
		MonthCost:         "57.09",
		TariffName:        "Flexible Octopus",
		UnitRate:          "0.2712",
		StandingCharge:    "0.4865",
	}, event)
}

func TestRecordWrapsPublishError(t *testing.T) {
	t.Parallel()

	cause := errors.New("channel closed")
	p := NewPublisherWithChannel(&fakeChannel{err: cause}, "x", "k", zap.NewNop())

	err := p.Record(context.Background(), domain.StatusReport{})
	assert.ErrorIs(t, err, cause)
}

func TestClose(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	require.NoError(t, NewPublisherWithChannel(ch, "x", "k", zap.NewNop()).Close())
	assert.True(t, ch.closed)
}
