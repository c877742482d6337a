package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docvoice/internal/app"
	"docvoice/internal/transport/http/response"
)

type SettingsHandler struct {
	settingsService *app.SettingsService
}

func NewSettingsHandler(settingsService *app.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load settings failed")
		return
	}
	response.OK(c, settings)
}

type SaveSettingsRequest struct {
	AssistantName string `json:"assistant_name" binding:"required,max=64"`
	SystemPolicy  string `json:"system_policy" binding:"max=4000"`
	VoiceName     string `json:"voice_name" binding:"max=64"`
}

func (h *SettingsHandler) Save(c *gin.Context) {
	var req SaveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	settings, err := h.settingsService.Save(c.Request.Context(), app.SettingsInput{
		AssistantName: req.AssistantName,
		SystemPolicy:  req.SystemPolicy,
		VoiceName:     req.VoiceName,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save settings failed")
		return
	}
	response.OK(c, settings)
}

// Changed is the cheap poll target for UI surfaces: compare the caller's
// version against the published one without a database read.
func (h *SettingsHandler) Changed(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid since version")
		return
	}

	changed, version, err := h.settingsService.Changed(c.Request.Context(), since)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "settings check failed")
		return
	}
	response.OK(c, gin.H{"changed": changed, "version": version})
}
