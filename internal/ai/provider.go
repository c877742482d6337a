package ai

import "context"

// The generative provider is treated as a black-box RPC service. Everything
// above this package depends on these interfaces; the Gemini implementation
// lives in gemini.go / gemini_live.go.

// ChatPart is one role-tagged element of the prompt sent to the model.
type ChatPart struct {
	Role string
	Text string
}

// Citation is an externally sourced reference the model attached to an
// answer via its search grounding metadata.
type Citation struct {
	Title string
	URI   string
}

// GenerateRequest carries one generation call.
type GenerateRequest struct {
	Parts        []ChatPart
	System       string
	EnableSearch bool
}

// GenerateResult is the provider's answer. Language is the BCP-47 tag the
// model reported for its reply, empty when it did not report one.
// SearchCitations may be empty.
type GenerateResult struct {
	Text            string
	Language        string
	SearchCitations []Citation
}

// Embedder converts one text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a grounded answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// Transcriber converts audio into verbatim text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64, mimeType string) (string, error)
}

// Synthesizer converts text into base64-encoded PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// LiveToolDecl declares the single callback tool exposed to a live session.
type LiveToolDecl struct {
	Name        string
	Description string
	QueryParam  string
}

// LiveOptions configures one duplex voice session. InputSampleRate is the
// rate of the PCM16 frames the caller will send.
type LiveOptions struct {
	System          string
	Voice           string
	Tool            LiveToolDecl
	InputSampleRate int
}

// LiveStream is one open duplex session. SendAudio takes raw PCM16 frames at
// the declared input rate; Recv blocks until the next inbound event or a
// terminal error.
type LiveStream interface {
	SendAudio(pcm []byte) error
	SendToolResponse(callID, name, output string) error
	Recv() (LiveEvent, error)
	Close() error
}

// LiveDialer opens live sessions.
type LiveDialer interface {
	DialLive(ctx context.Context, opts LiveOptions) (LiveStream, error)
}
