package live

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"docvoice/internal/ai"
)

const (
	// ToolName is the single tool declared to the model.
	ToolName        = "search_knowledge_base"
	toolDescription = "Search the uploaded document knowledge base for passages relevant to a query. Call this before answering questions about the documents."
	toolQueryParam  = "query"

	toolCallTimeout = 20 * time.Second
	eventBuffer     = 64
)

var ErrNotOpen = errors.New("live session is not open")

// State is the session lifecycle: Closed -> Connecting -> Open -> Closed.
// There is no reconnect; a failed or finished session stays Closed and the
// caller opens a new one.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// SearchFunc runs the retrieval pipeline for a tool call.
type SearchFunc func(ctx context.Context, query string) (string, error)

// Config for one session.
type Config struct {
	System           string
	Voice            string
	InputSampleRate  int
	OutputSampleRate int
}

// Event is an outbound session event for the connected client.
type Event interface {
	sessionEvent()
}

// AudioOut is one playable frame with its scheduled start time.
type AudioOut struct {
	PCM      []byte
	StartAt  time.Time
	Duration time.Duration
}

// Closed reports orderly or error-driven teardown; both routes end here.
type Closed struct {
	Reason string
	Err    error
}

func (AudioOut) sessionEvent() {}
func (Closed) sessionEvent()   {}

// Session manages one duplex voice conversation. Outbound audio, inbound
// audio, and tool calls all proceed concurrently; a slow tool call never
// stalls either audio direction.
type Session struct {
	dialer ai.LiveDialer
	search SearchFunc
	cfg    Config

	state  atomic.Int32
	events chan Event
	sched  *PlaybackScheduler

	mu     sync.Mutex
	stream ai.LiveStream
	cancel context.CancelFunc

	wg        sync.WaitGroup
	used      atomic.Bool
	closeOnce sync.Once
}

func NewSession(dialer ai.LiveDialer, search SearchFunc, cfg Config) *Session {
	if cfg.InputSampleRate <= 0 {
		cfg.InputSampleRate = 16000
	}
	if cfg.OutputSampleRate <= 0 {
		cfg.OutputSampleRate = 24000
	}
	return &Session{
		dialer: dialer,
		search: search,
		cfg:    cfg,
		events: make(chan Event, eventBuffer),
		sched:  NewPlaybackScheduler(),
	}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Events delivers audio frames and the terminal Closed event. The channel
// closes after Closed is delivered.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Open dials the provider and starts the receive pump. Only valid from
// Closed, and only once per Session.
func (s *Session) Open(ctx context.Context) error {
	if s.used.Swap(true) {
		return ErrNotOpen
	}
	s.state.Store(int32(StateConnecting))

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := s.dialer.DialLive(ctx, ai.LiveOptions{
		System: s.cfg.System,
		Voice:  s.cfg.Voice,
		Tool: ai.LiveToolDecl{
			Name:        ToolName,
			Description: toolDescription,
			QueryParam:  toolQueryParam,
		},
		InputSampleRate: s.cfg.InputSampleRate,
	})
	if err != nil {
		cancel()
		s.state.Store(int32(StateClosed))
		s.teardown("connect failed", err)
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.cancel = cancel
	s.mu.Unlock()
	s.state.Store(int32(StateOpen))

	s.wg.Add(1)
	go s.recvLoop(sessionCtx, stream)
	return nil
}

// SendAudio pushes one outbound PCM16 frame at the configured input rate.
// Frames are sent in call order; callers send as capture produces.
func (s *Session) SendAudio(pcm []byte) error {
	if s.State() != StateOpen {
		return ErrNotOpen
	}
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return ErrNotOpen
	}
	if err := stream.SendAudio(pcm); err != nil {
		s.teardown("audio send failed", err)
		return err
	}
	return nil
}

// Close is idempotent and safe before Open.
func (s *Session) Close() {
	s.teardown("closed by client", nil)
}

func (s *Session) recvLoop(ctx context.Context, stream ai.LiveStream) {
	defer s.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		ev, err := stream.Recv()
		if err != nil {
			s.teardown("receive failed", err)
			return
		}

		switch e := ev.(type) {
		case ai.AudioFrameEvent:
			dur := FrameDuration(e.PCM, s.cfg.OutputSampleRate)
			out := AudioOut{PCM: e.PCM, StartAt: s.sched.Schedule(dur), Duration: dur}
			select {
			case s.events <- out:
			case <-ctx.Done():
				return
			}
		case ai.ToolCallEvent:
			s.wg.Add(1)
			go s.handleToolCall(ctx, stream, e)
		case ai.ClosedEvent:
			s.teardown(e.Reason, nil)
			return
		case ai.ErrorEvent:
			s.teardown("server error", e.Err)
			return
		}
	}
}

// handleToolCall runs retrieval off the receive pump and answers into the
// open stream, correlated by the call's ID. On failure no response is sent;
// the provider times the call out on its side.
func (s *Session) handleToolCall(ctx context.Context, stream ai.LiveStream, call ai.ToolCallEvent) {
	defer s.wg.Done()
	if call.Name != ToolName {
		log.Printf("live session: ignoring unknown tool %q", call.Name)
		return
	}
	query, _ := call.Args[toolQueryParam].(string)
	if query == "" {
		log.Printf("live session: tool call %s without query", call.ID)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
	defer cancel()
	result, err := s.search(callCtx, query)
	if err != nil {
		log.Printf("live session: tool call %s failed: %v", call.ID, err)
		return
	}
	if err := stream.SendToolResponse(call.ID, call.Name, result); err != nil {
		log.Printf("live session: tool response %s failed: %v", call.ID, err)
	}
}

func (s *Session) teardown(reason string, err error) {
	s.closeOnce.Do(func() {
		// A torn-down session can never be reopened.
		s.used.Store(true)
		s.state.Store(int32(StateClosed))

		s.mu.Lock()
		stream := s.stream
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if stream != nil {
			_ = stream.Close()
		}
		s.sched.Reset()

		// Drain pump and tool goroutines before the channel closes.
		go func() {
			s.wg.Wait()
			s.events <- Closed{Reason: reason, Err: err}
			close(s.events)
		}()
	})
}
