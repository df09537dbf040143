package mq

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type declaredExchange struct {
	name, kind                            string
	durable, autoDelete, internal, noWait bool
}

type fakeExchangeChannel struct {
	declared []declaredExchange
	err      error
	closed   bool
}

func (c *fakeExchangeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, _ amqp.Table) error {
	c.declared = append(c.declared, declaredExchange{name, kind, durable, autoDelete, internal, noWait})
	return c.err
}

func (c *fakeExchangeChannel) Close() error {
	c.closed = true
	return nil
}

func TestDeclareReportExchange(t *testing.T) {
	t.Parallel()

	ch := &fakeExchangeChannel{}
	require.NoError(t, declareReportExchange(ch, "octobot.reports.exchange"))

	assert.Equal(t, []declaredExchange{{
		name:    "octobot.reports.exchange",
		kind:    "topic",
		durable: true,
	}}, ch.declared)
	assert.False(t, ch.closed)
}

func TestDeclareReportExchangeClosesOnRefusal(t *testing.T) {
	t.Parallel()

	cause := errors.New("PRECONDITION_FAILED - inequivalent arg 'type'")
	ch := &fakeExchangeChannel{err: cause}

	err := declareReportExchange(ch, "octobot.reports.exchange")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, ch.closed)
}

func TestNewConnectionRejectsBadURL(t *testing.T) {
	t.Parallel()

	lc := fxtest.NewLifecycle(t)
	_, err := NewConnection(lc, zap.NewNop(), "http://localhost:5672/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RABBITMQ_URL")
}

func TestLogClosures(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	closed := make(chan *amqp.Error, 1)
	closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker shutdown"}
	close(closed)

	logClosures(zap.New(core), closed)

	entries := logs.FilterMessage("rabbitmq connection closed by broker, report events disabled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broker shutdown", entries[0].ContextMap()["reason"])
}
