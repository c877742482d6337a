package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docvoice/internal/app"
	"docvoice/internal/transport/http/response"
)

type LeadHandler struct {
	leadService *app.LeadService
}

func NewLeadHandler(leadService *app.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.leadService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list leads failed")
		return
	}
	response.OK(c, gin.H{"leads": leads})
}
