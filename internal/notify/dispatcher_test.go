package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
	err     error
}

func (f *fakeSink) record(kind string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	return f.err
}

func (f *fakeSink) SendConfirmation(ctx context.Context, n AppointmentNotice) error {
	return f.record("confirmation:" + n.AppointmentID)
}

func (f *fakeSink) SendCancellation(ctx context.Context, n AppointmentNotice) error {
	return f.record("cancellation:" + n.AppointmentID)
}

func (f *fakeSink) SendVerificationCode(ctx context.Context, phone, code string) error {
	return f.record("code:" + code)
}

func (f *fakeSink) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, DispatcherOptions{Workers: 2, QueueSize: 10}, zerolog.Nop())
	d.Start()

	require.NoError(t, d.SendConfirmation(context.Background(), AppointmentNotice{AppointmentID: "1"}))
	require.NoError(t, d.SendCancellation(context.Background(), AppointmentNotice{AppointmentID: "1"}))
	require.NoError(t, d.SendVerificationCode(context.Background(), "+201001234567", "123456"))

	require.NoError(t, d.Close(context.Background()))
	assert.ElementsMatch(t, []string{"confirmation:1", "cancellation:1", "code:123456"}, sink.Calls())
}

func TestDispatcherDoesNotBlockWhenFull(t *testing.T) {
	sink := &fakeSink{release: make(chan struct{})}
	d := NewDispatcher(sink, DispatcherOptions{Workers: 1, QueueSize: 1}, zerolog.Nop())
	d.Start()

	// first job is picked up by the worker and blocks; second fills the queue
	require.NoError(t, d.SendVerificationCode(context.Background(), "p", "1"))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.SendVerificationCode(context.Background(), "p", "2"))

	err := d.SendVerificationCode(context.Background(), "p", "3")
	assert.ErrorIs(t, err, ErrQueueFull)

	close(sink.release)
	require.NoError(t, d.Close(context.Background()))
	assert.ElementsMatch(t, []string{"code:1", "code:2"}, sink.Calls())
}

func TestDispatcherSurvivesSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("provider down")}
	d := NewDispatcher(sink, DispatcherOptions{}, zerolog.Nop())
	d.Start()

	require.NoError(t, d.SendConfirmation(context.Background(), AppointmentNotice{AppointmentID: "1"}))
	require.NoError(t, d.SendConfirmation(context.Background(), AppointmentNotice{AppointmentID: "2"}))
	require.NoError(t, d.Close(context.Background()))

	assert.Len(t, sink.Calls(), 2)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(&fakeSink{}, DispatcherOptions{}, zerolog.Nop())
	d.Start()
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	err := d.SendConfirmation(context.Background(), AppointmentNotice{})
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestDispatcherOutlivesRequestContext(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, DispatcherOptions{Workers: 1}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.SendConfirmation(ctx, AppointmentNotice{AppointmentID: "late"}))
	cancel()

	d.Start()
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, []string{"confirmation:late"}, sink.Calls())
}
