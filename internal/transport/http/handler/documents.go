package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docvoice/internal/app"
	"docvoice/internal/pkg/pdfextract"
	"docvoice/internal/transport/http/response"
)

const maxUploadBytes = 20 << 20

type DocumentHandler struct {
	ingestService *app.IngestService
}

func NewDocumentHandler(ingestService *app.IngestService) *DocumentHandler {
	return &DocumentHandler{ingestService: ingestService}
}

// Upload accepts a PDF (multipart field "file") or raw text (fields "title"
// and "content") and starts ingestion. Embedding runs in the background; the
// returned document is not processed yet.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err == nil {
		if fileHeader.Size > maxUploadBytes {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large")
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
			return
		}
		defer file.Close()

		text, err := pdfextract.ExtractText(file)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "pdf text extraction failed")
			return
		}
		title := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
		h.ingest(c, title, text, fileHeader.Size)
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,max=256"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.ingest(c, req.Title, req.Content, int64(len(req.Content)))
}

func (h *DocumentHandler) ingest(c *gin.Context, title, content string, size int64) {
	doc, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		Title:   title,
		Content: content,
		Size:    size,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "document has no extractable text")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.ingestService.ListDocuments()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := h.ingestService.GetDocument(id)
	if err != nil {
		documentError(c, err)
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ingestService.DeleteDocument(id); err != nil {
		documentError(c, err)
		return
	}
	response.OK(c, nil)
}

type UpdateTagsRequest struct {
	Trusted  bool   `json:"trusted"`
	Category string `json:"category" binding:"max=64"`
}

func (h *DocumentHandler) UpdateTags(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if err := h.ingestService.UpdateDocumentTags(id, req.Trusted, req.Category); err != nil {
		documentError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *DocumentHandler) ListChunks(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	chunks, err := h.ingestService.ListChunks(id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list chunks failed")
		return
	}
	response.OK(c, gin.H{"chunks": chunks})
}

type UpdateChunkRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateChunk applies a text correction. The chunk leaves the ranking pool
// until its embedding is refreshed.
func (h *DocumentHandler) UpdateChunk(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if err := h.ingestService.UpdateChunkText(c.Request.Context(), id, req.Content); err != nil {
		documentError(c, err)
		return
	}
	response.OK(c, nil)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func documentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "operation failed")
	}
}
