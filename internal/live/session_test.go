package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvoice/internal/ai"
)

type toolResponse struct {
	CallID string
	Name   string
	Output string
}

type fakeStream struct {
	inbound   chan ai.LiveEvent
	responses chan toolResponse

	mu        sync.Mutex
	sentAudio [][]byte
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		inbound:   make(chan ai.LiveEvent, 16),
		responses: make(chan toolResponse, 16),
	}
}

func (f *fakeStream) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentAudio = append(f.sentAudio, pcm)
	return nil
}

func (f *fakeStream) SendToolResponse(callID, name, output string) error {
	f.responses <- toolResponse{CallID: callID, Name: name, Output: output}
	return nil
}

func (f *fakeStream) Recv() (ai.LiveEvent, error) {
	ev, ok := <-f.inbound
	if !ok {
		return nil, errors.New("stream torn down")
	}
	return ev, nil
}

func (f *fakeStream) Close() error {
	f.closeOnce.Do(func() { close(f.inbound) })
	return nil
}

type fakeDialer struct {
	stream  *fakeStream
	err     error
	gotOpts ai.LiveOptions
}

func (d *fakeDialer) DialLive(_ context.Context, opts ai.LiveOptions) (ai.LiveStream, error) {
	d.gotOpts = opts
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return nil
	}
}

func noSearch(context.Context, string) (string, error) {
	return "", errors.New("unexpected search")
}

func TestOpenDeclaresTool(t *testing.T) {
	dialer := &fakeDialer{stream: newFakeStream()}
	sess := NewSession(dialer, noSearch, Config{System: "always search first", Voice: "Kore"})

	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()

	assert.Equal(t, StateOpen, sess.State())
	assert.Equal(t, ToolName, dialer.gotOpts.Tool.Name)
	assert.Equal(t, "query", dialer.gotOpts.Tool.QueryParam)
	assert.Equal(t, "always search first", dialer.gotOpts.System)
	assert.Equal(t, "Kore", dialer.gotOpts.Voice)
	assert.Equal(t, 16000, dialer.gotOpts.InputSampleRate, "default capture rate declared to the provider")
}

func TestOpenDeclaresConfiguredInputRate(t *testing.T) {
	dialer := &fakeDialer{stream: newFakeStream()}
	sess := NewSession(dialer, noSearch, Config{InputSampleRate: 8000})

	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()

	assert.Equal(t, 8000, dialer.gotOpts.InputSampleRate)
}

func TestAudioFramesScheduledInArrivalOrder(t *testing.T) {
	stream := newFakeStream()
	sess := NewSession(&fakeDialer{stream: stream}, noSearch, Config{OutputSampleRate: 24000})
	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()

	frame := make([]byte, 2400*2) // 100 ms at 24 kHz
	stream.inbound <- ai.AudioFrameEvent{PCM: frame}
	stream.inbound <- ai.AudioFrameEvent{PCM: frame}

	first, ok := waitEvent(t, sess.Events()).(AudioOut)
	require.True(t, ok)
	second, ok := waitEvent(t, sess.Events()).(AudioOut)
	require.True(t, ok)

	assert.Equal(t, 100*time.Millisecond, first.Duration)
	assert.False(t, second.StartAt.Before(first.StartAt.Add(first.Duration)),
		"second frame must not start before the first ends")
}

func TestToolCallCorrelatedByID(t *testing.T) {
	stream := newFakeStream()
	search := func(_ context.Context, query string) (string, error) {
		if query != "moon sighting" {
			return "", fmt.Errorf("unexpected query %q", query)
		}
		return "The month begins with the moon sighting.", nil
	}
	sess := NewSession(&fakeDialer{stream: stream}, search, Config{})
	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()

	stream.inbound <- ai.ToolCallEvent{
		ID:   "call-42",
		Name: ToolName,
		Args: map[string]any{"query": "moon sighting"},
	}

	select {
	case resp := <-stream.responses:
		assert.Equal(t, "call-42", resp.CallID)
		assert.Equal(t, ToolName, resp.Name)
		assert.Contains(t, resp.Output, "moon sighting")
	case <-time.After(2 * time.Second):
		t.Fatal("no tool response sent")
	}
}

func TestToolCallDoesNotBlockAudio(t *testing.T) {
	stream := newFakeStream()
	gate := make(chan struct{})
	search := func(ctx context.Context, _ string) (string, error) {
		select {
		case <-gate:
		case <-ctx.Done():
		}
		return "late result", nil
	}
	sess := NewSession(&fakeDialer{stream: stream}, search, Config{OutputSampleRate: 24000})
	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()
	defer close(gate)

	stream.inbound <- ai.ToolCallEvent{ID: "c1", Name: ToolName, Args: map[string]any{"query": "q"}}
	stream.inbound <- ai.AudioFrameEvent{PCM: make([]byte, 480)}

	// audio flows while the tool call is still held at the gate
	_, ok := waitEvent(t, sess.Events()).(AudioOut)
	assert.True(t, ok)
}

func TestConcurrentToolCallsAnswerIndependently(t *testing.T) {
	stream := newFakeStream()
	search := func(_ context.Context, query string) (string, error) {
		return "result for " + query, nil
	}
	sess := NewSession(&fakeDialer{stream: stream}, search, Config{})
	require.NoError(t, sess.Open(context.Background()))
	defer sess.Close()

	stream.inbound <- ai.ToolCallEvent{ID: "a", Name: ToolName, Args: map[string]any{"query": "one"}}
	stream.inbound <- ai.ToolCallEvent{ID: "b", Name: ToolName, Args: map[string]any{"query": "two"}}

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		select {
		case resp := <-stream.responses:
			got[resp.CallID] = resp.Output
		case <-time.After(2 * time.Second):
			t.Fatal("missing tool response")
		}
	}
	assert.Equal(t, "result for one", got["a"])
	assert.Equal(t, "result for two", got["b"])
}

func TestServerCloseDeliversClosedEvent(t *testing.T) {
	stream := newFakeStream()
	sess := NewSession(&fakeDialer{stream: stream}, noSearch, Config{})
	require.NoError(t, sess.Open(context.Background()))

	stream.inbound <- ai.ClosedEvent{Reason: "turn done"}

	closed, ok := waitEvent(t, sess.Events()).(Closed)
	require.True(t, ok)
	assert.Equal(t, "turn done", closed.Reason)
	assert.NoError(t, closed.Err)

	_, open := <-sess.Events()
	assert.False(t, open, "event channel must close after Closed")
	assert.Equal(t, StateClosed, sess.State())
}

func TestServerErrorRoutesToClose(t *testing.T) {
	stream := newFakeStream()
	sess := NewSession(&fakeDialer{stream: stream}, noSearch, Config{})
	require.NoError(t, sess.Open(context.Background()))

	stream.inbound <- ai.ErrorEvent{Err: errors.New("stream reset")}

	closed, ok := waitEvent(t, sess.Events()).(Closed)
	require.True(t, ok)
	require.Error(t, closed.Err)
	assert.Equal(t, StateClosed, sess.State())

	assert.ErrorIs(t, sess.SendAudio([]byte{0, 0}), ErrNotOpen)
}

func TestCloseIdempotentAndSafeBeforeOpen(t *testing.T) {
	sess := NewSession(&fakeDialer{stream: newFakeStream()}, noSearch, Config{})

	sess.Close()
	sess.Close()

	closed, ok := waitEvent(t, sess.Events()).(Closed)
	require.True(t, ok)
	assert.Equal(t, "closed by client", closed.Reason)
	assert.Equal(t, StateClosed, sess.State())

	// a torn-down session cannot be opened
	assert.ErrorIs(t, sess.Open(context.Background()), ErrNotOpen)
}

func TestDialFailure(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("no network")}
	sess := NewSession(dialer, noSearch, Config{})

	err := sess.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateClosed, sess.State())

	closed, ok := waitEvent(t, sess.Events()).(Closed)
	require.True(t, ok)
	require.Error(t, closed.Err)
}

func TestSendAudioBeforeOpen(t *testing.T) {
	sess := NewSession(&fakeDialer{stream: newFakeStream()}, noSearch, Config{})
	assert.ErrorIs(t, sess.SendAudio([]byte{1, 2}), ErrNotOpen)
}
