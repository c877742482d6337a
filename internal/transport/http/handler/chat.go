package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docvoice/internal/app"
	"docvoice/internal/model"
	"docvoice/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
	Content   string `json:"content" binding:"required"`
	FromVoice bool   `json:"from_voice"`
}

type ReportRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// CreateSession hands out a fresh anonymous conversation identifier.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	response.OK(c, gin.H{"session_id": uuid.NewString()})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.chatService.Turn(c.Request.Context(), req.SessionID, req.Content, req.FromVoice)
	if err != nil {
		if errors.Is(err, app.ErrEmptyMessage) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "message failed")
		return
	}

	response.OK(c, messageView(reply))
}

// RequestReport flips the session into contact collection; the next message
// is treated as the phone number.
func (h *ChatHandler) RequestReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	prompt, err := h.chatService.RequestReport(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, app.ErrReportUnavailable) {
			response.Error(c, http.StatusBadRequest, response.CodeReportUnavailable, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "report request failed")
		return
	}

	response.OK(c, messageView(prompt))
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Query("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session_id")
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load history failed")
		return
	}

	views := make([]gin.H, 0, len(messages))
	for i := range messages {
		views = append(views, messageView(&messages[i]))
	}
	response.OK(c, gin.H{"messages": views})
}

func messageView(m *model.Message) gin.H {
	view := gin.H{
		"session_id": m.SessionID,
		"role":       m.Role,
		"content":    m.Content,
		"created_at": m.CreatedAt,
	}
	if m.Language != "" {
		view["language"] = m.Language
	}
	if labels := m.CitationList(); len(labels) > 0 {
		view["citations"] = labels
	}
	if m.ShareText != "" {
		view["share_text"] = m.ShareText
	}
	if m.FromVoice {
		view["from_voice"] = true
	}
	return view
}
