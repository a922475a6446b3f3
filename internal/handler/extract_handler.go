package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dmeflow/internal/domain"
	"dmeflow/internal/extraction"
)

// ExtractHandler exposes synchronous extraction for interactive use. The
// result is returned directly and never persisted.
type ExtractHandler struct {
	orchestrator *extraction.Orchestrator
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(orchestrator *extraction.Orchestrator) *ExtractHandler {
	return &ExtractHandler{orchestrator: orchestrator}
}

type extractRequest struct {
	NoteText string `json:"note_text" binding:"required"`
	Validate bool   `json:"validate"`
}

// Extract handles POST /api/v1/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if strings.TrimSpace(req.NoteText) == "" {
		HandleError(c, domain.ErrEmptyNote)
		return
	}

	result, err := h.orchestrator.Extract(c.Request.Context(), req.NoteText, domain.ExtractionContext{
		SourceID:          "interactive",
		DocumentType:      "physician_note",
		RequireValidation: req.Validate,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"order":      result.Order,
		"method":     result.Method,
		"confidence": result.Confidence,
		"validation": result.Validation,
		"steps":      result.Steps,
	})
}
