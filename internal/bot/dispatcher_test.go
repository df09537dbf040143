package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMessenger struct {
	mu      sync.Mutex
	calls   []string
	sendErr error
	editErr error
}

func (m *fakeMessenger) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *fakeMessenger) SendReport(chatID int64, text string) error {
	m.record(fmt.Sprintf("send %d %s", chatID, text))
	return m.sendErr
}

func (m *fakeMessenger) EditReport(chatID int64, messageID int, text string) error {
	m.record(fmt.Sprintf("edit %d/%d %s", chatID, messageID, text))
	return m.editErr
}

func (m *fakeMessenger) AnswerCallback(callbackID string) error {
	m.record("answer " + callbackID)
	return nil
}

func (m *fakeMessenger) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type fakeReporter struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (r *fakeReporter) BuildStatusReport(context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.text
}

func (r *fakeReporter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestHandleStartSendsReport(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	reporter := &fakeReporter{text: "report"}
	d := NewDispatcher(reporter, messenger, nil, zap.NewNop())

	d.HandleStart(context.Background(), 42)

	assert.Equal(t, []string{"send 42 report"}, messenger.Calls())
	assert.Equal(t, 1, reporter.Calls())
}

func TestHandleStartLogsSendFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	messenger := &fakeMessenger{sendErr: errors.New("chat not found")}
	d := NewDispatcher(&fakeReporter{text: "report"}, messenger, nil, zap.New(core))

	d.HandleStart(context.Background(), 42)

	entries := logs.FilterMessage("failed to send report").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].ContextMap()["chat_id"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestHandleCallbackRefreshEditsThenAnswers(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	d := NewDispatcher(&fakeReporter{text: "fresh"}, messenger, nil, zap.NewNop())

	d.HandleCallback(context.Background(), Callback{ID: "cb-1", ChatID: 42, MessageID: 7, Data: RefreshData})

	assert.Equal(t, []string{"edit 42/7 fresh", "answer cb-1"}, messenger.Calls())
}

func TestHandleCallbackAnswersEvenWhenEditFails(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	messenger := &fakeMessenger{editErr: errors.New("message is not modified")}
	d := NewDispatcher(&fakeReporter{text: "fresh"}, messenger, nil, zap.New(core))

	d.HandleCallback(context.Background(), Callback{ID: "cb-1", ChatID: 42, MessageID: 7, Data: RefreshData})

	assert.Equal(t, []string{"edit 42/7 fresh", "answer cb-1"}, messenger.Calls())
	assert.Equal(t, 1, logs.FilterMessage("failed to edit report").Len())
}

func TestHandleCallbackUnknownData(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	reporter := &fakeReporter{text: "fresh"}
	d := NewDispatcher(reporter, messenger, nil, zap.NewNop())

	d.HandleCallback(context.Background(), Callback{ID: "cb-2", ChatID: 42, MessageID: 7, Data: "settings"})

	assert.Equal(t, []string{"answer cb-2"}, messenger.Calls())
	assert.Zero(t, reporter.Calls())
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	reporter := &fakeReporter{text: "report"}
	d := NewDispatcher(reporter, messenger, []int64{42, 43}, zap.NewNop())

	assert.True(t, d.Allowed(42))
	assert.False(t, d.Allowed(99))

	d.HandleStart(context.Background(), 99)
	d.HandleCallback(context.Background(), Callback{ID: "cb-3", ChatID: 99, MessageID: 1, Data: RefreshData})
	d.HandleStart(context.Background(), 43)

	assert.Equal(t, []string{"answer cb-3", "send 43 report"}, messenger.Calls())
	assert.Equal(t, 1, reporter.Calls())
}

func TestEmptyAllowlistAdmitsEveryone(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&fakeReporter{}, &fakeMessenger{}, []int64{}, zap.NewNop())
	assert.True(t, d.Allowed(-100123))
}
