package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type capturingHandler struct {
	notices []*Notice
	err     error
}

func (h *capturingHandler) HandleNotice(ctx context.Context, notice *Notice) error {
	h.notices = append(h.notices, notice)
	return h.err
}

func TestNewNotice(t *testing.T) {
	n, err := NewNotice(NoticeProgressUpdate, 42, ProgressPayload{Done: 1, Total: 2})
	require.NoError(t, err)

	assert.Equal(t, NoticeProgressUpdate, n.Type)
	assert.Equal(t, int64(42), n.ChatID)
	assert.NotZero(t, n.ID)

	var p ProgressPayload
	require.NoError(t, n.UnmarshalPayload(&p))
	assert.Equal(t, 1, p.Done)
	assert.Equal(t, 2, p.Total)
}

func TestNewNoticeWithoutPayload(t *testing.T) {
	n, err := NewNotice(NoticeTaskAccepted, 42, nil)
	require.NoError(t, err)
	assert.Empty(t, n.Payload)
}

func TestEmitNoticeDispatchesToAllHandlers(t *testing.T) {
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), 0)

	h1 := &capturingHandler{}
	h2 := &capturingHandler{}
	emitter.RegisterHandler(h1)
	emitter.RegisterHandler(h2)

	n, err := NewNotice(NoticeExportReady, 7, ExportReadyPayload{FileName: "quiz.csv", RecordCount: 3})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitNotice(context.Background(), n))
	assert.Len(t, h1.notices, 1)
	assert.Len(t, h2.notices, 1)
}

func TestEmitNoticeContinuesPastFailingHandler(t *testing.T) {
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), 0)

	failing := &capturingHandler{err: errors.New("transport down")}
	ok := &capturingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(ok)

	n, err := NewNotice(NoticeError, 7, RejectionPayload{Reason: "queue full"})
	require.NoError(t, err)

	err = emitter.EmitNotice(context.Background(), n)
	assert.EqualError(t, err, "transport down")
	assert.Len(t, ok.notices, 1, "later handlers still receive the notice")
}

func TestEmitNoticeWithoutHandlers(t *testing.T) {
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), 0)

	n, err := NewNotice(NoticeTaskAccepted, 7, nil)
	require.NoError(t, err)
	assert.NoError(t, emitter.EmitNotice(context.Background(), n))
}

func TestEmitNoticePacesSameChat(t *testing.T) {
	const delay = 15 * time.Millisecond
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), delay)
	h := &capturingHandler{}
	emitter.RegisterHandler(h)

	start := time.Now()
	for i := 0; i < 3; i++ {
		n, err := NewNotice(NoticeProgressUpdate, 7, ProgressPayload{Done: i, Total: 3})
		require.NoError(t, err)
		require.NoError(t, emitter.EmitNotice(context.Background(), n))
	}

	assert.GreaterOrEqual(t, time.Since(start), 2*delay,
		"three deliveries to one chat span two delay intervals")
	assert.Len(t, h.notices, 3)
}

func TestEmitNoticeFirstDeliveryPerChatIsImmediate(t *testing.T) {
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), time.Minute)
	h := &capturingHandler{}
	emitter.RegisterHandler(h)

	start := time.Now()
	for _, chatID := range []int64{1, 2, 3} {
		n, err := NewNotice(NoticeTaskAccepted, chatID, nil)
		require.NoError(t, err)
		require.NoError(t, emitter.EmitNotice(context.Background(), n))
	}

	assert.Less(t, time.Since(start), time.Minute,
		"pacing is per chat, not global")
	assert.Len(t, h.notices, 3)
}

func TestEmitNoticePacingHonorsContext(t *testing.T) {
	emitter := NewInMemoryNoticeEmitter(setupTestLogger(), time.Minute)
	h := &capturingHandler{}
	emitter.RegisterHandler(h)

	n, err := NewNotice(NoticeTaskAccepted, 7, nil)
	require.NoError(t, err)
	require.NoError(t, emitter.EmitNotice(context.Background(), n))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err = NewNotice(NoticeProgressUpdate, 7, nil)
	require.NoError(t, err)
	err = emitter.EmitNotice(ctx, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, h.notices, 1, "the paced notice is not delivered")
}
