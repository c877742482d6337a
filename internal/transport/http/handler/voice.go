package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvoice/internal/app"
	"docvoice/internal/transport/http/response"
)

type VoiceHandler struct {
	voiceService *app.VoiceService
}

func NewVoiceHandler(voiceService *app.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

type TranscribeRequest struct {
	Audio    string `json:"audio" binding:"required"`
	MimeType string `json:"mime_type" binding:"max=64"`
}

func (h *VoiceHandler) Transcribe(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	text, err := h.voiceService.Transcribe(c.Request.Context(), req.Audio, req.MimeType)
	if err != nil {
		if errors.Is(err, app.ErrEmptyAudio) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "transcription failed")
		return
	}
	response.OK(c, gin.H{"text": text})
}

type SpeakRequest struct {
	Text string `json:"text" binding:"required,max=8000"`
}

// Speak returns base64 PCM; a provider failure yields empty audio, not an
// error, so the client can fall back to text display.
func (h *VoiceHandler) Speak(c *gin.Context) {
	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	audio := h.voiceService.Synthesize(c.Request.Context(), req.Text)
	response.OK(c, gin.H{"audio": audio})
}
