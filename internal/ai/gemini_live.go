package ai

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/genai"
)

const defaultLiveInputRate = 16000

func liveInputMIME(sampleRate int) string {
	if sampleRate <= 0 {
		sampleRate = defaultLiveInputRate
	}
	return fmt.Sprintf("audio/pcm;rate=%d", sampleRate)
}

// DialLive opens a duplex voice session with the declared knowledge-base
// tool and audio response modality.
func (g *GeminiClient) DialLive(ctx context.Context, opts LiveOptions) (LiveStream, error) {
	cfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if opts.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.System}}}
	}
	if opts.Tool.Name != "" {
		cfg.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        opts.Tool.Name,
				Description: opts.Tool.Description,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						opts.Tool.QueryParam: {
							Type:        genai.TypeString,
							Description: "The search query.",
						},
					},
					Required: []string{opts.Tool.QueryParam},
				},
			}},
		}}
	}
	if opts.Voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: opts.Voice},
			},
		}
	}

	session, err := g.client.Live.Connect(ctx, g.cfg.LiveModel, cfg)
	if err != nil {
		return nil, fmt.Errorf("live connect failed: %w", err)
	}
	return &geminiLiveStream{session: session, inputMIME: liveInputMIME(opts.InputSampleRate)}, nil
}

// geminiLiveStream adapts a genai live session to the LiveStream interface,
// translating provider messages into tagged events. A single server message
// can carry several audio parts or function calls, so surplus events are
// buffered and drained by subsequent Recv calls.
type geminiLiveStream struct {
	session   *genai.Session
	inputMIME string

	sendMu  sync.Mutex
	pending []LiveEvent
}

func (s *geminiLiveStream) SendAudio(pcm []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{MIMEType: s.inputMIME, Data: pcm},
	})
}

func (s *geminiLiveStream) SendToolResponse(callID, name, output string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       callID,
			Name:     name,
			Response: map[string]any{"result": output},
		}},
	})
}

func (s *geminiLiveStream) Recv() (LiveEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		msg, err := s.session.Receive()
		if err == io.EOF {
			return ClosedEvent{Reason: "server closed stream"}, nil
		}
		if err != nil {
			return ErrorEvent{Err: err}, nil
		}

		if msg.ToolCall != nil {
			for _, fc := range msg.ToolCall.FunctionCalls {
				if fc == nil {
					continue
				}
				s.pending = append(s.pending, ToolCallEvent{
					ID:   fc.ID,
					Name: fc.Name,
					Args: fc.Args,
				})
			}
		}
		if msg.ServerContent != nil && msg.ServerContent.ModelTurn != nil {
			for _, part := range msg.ServerContent.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					s.pending = append(s.pending, AudioFrameEvent{PCM: part.InlineData.Data})
				}
			}
		}
		// Messages with neither audio nor tool calls (setup ack, turn
		// completion) produce no event; loop for the next one.
	}
}

func (s *geminiLiveStream) Close() error {
	return s.session.Close()
}
