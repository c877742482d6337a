package ai

// Inbound live-session events are explicit tagged variants; consumers switch
// on the concrete type instead of probing loosely shaped payloads.

type LiveEvent interface {
	liveEventType() string
}

// AudioFrameEvent carries one inbound 24 kHz PCM16 audio frame.
type AudioFrameEvent struct {
	PCM []byte
}

func (AudioFrameEvent) liveEventType() string { return "audio_frame" }

// ToolCallEvent reports a model-issued tool invocation, correlated by ID.
type ToolCallEvent struct {
	ID   string
	Name string
	Args map[string]any
}

func (ToolCallEvent) liveEventType() string { return "tool_call" }

// ClosedEvent reports an orderly session end.
type ClosedEvent struct {
	Reason string
}

func (ClosedEvent) liveEventType() string { return "closed" }

// ErrorEvent reports a server-side session failure.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) liveEventType() string { return "error" }
