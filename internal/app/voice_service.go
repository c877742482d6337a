package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"docvoice/internal/ai"
)

var ErrEmptyAudio = errors.New("audio payload is empty")

// VoiceService covers the request/response half of the voice surface:
// one-shot transcription and speech synthesis. The duplex live channel is a
// separate component.
type VoiceService struct {
	transcriber ai.Transcriber
	synthesizer ai.Synthesizer
}

func NewVoiceService(transcriber ai.Transcriber, synthesizer ai.Synthesizer) *VoiceService {
	return &VoiceService{transcriber: transcriber, synthesizer: synthesizer}
}

func (s *VoiceService) Transcribe(ctx context.Context, audioBase64, mimeType string) (string, error) {
	if strings.TrimSpace(audioBase64) == "" {
		return "", ErrEmptyAudio
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return s.transcriber.Transcribe(ctx, audioBase64, mimeType)
}

// Synthesize returns base64 PCM audio, or empty audio when the provider
// fails. The caller still gets a normal response.
func (s *VoiceService) Synthesize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Printf("speech synthesis failed: %v", err)
		return ""
	}
	return audio
}
