package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dmeflow/internal/domain"
	"dmeflow/internal/service"
)

// NoteHandler handles note ingestion and lifecycle endpoints.
type NoteHandler struct {
	noteService  service.NoteService
	orderService service.OrderService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteService service.NoteService, orderService service.OrderService) *NoteHandler {
	return &NoteHandler{noteService: noteService, orderService: orderService}
}

// Ingest handles POST /api/v1/notes. The request body is the raw note
// payload; Content-Type selects the format.
func (h *NoteHandler) Ingest(c *gin.Context) {
	userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	content, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "reading request body failed")
		return
	}

	note, err := h.noteService.Ingest(c.Request.Context(), &service.IngestNoteInput{
		Source:      c.DefaultQuery("source", "api"),
		ContentType: c.ContentType(),
		Content:     content,
		CreatedBy:   userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, note)
}

// Get handles GET /api/v1/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	note, err := h.noteService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, note)
}

// List handles GET /api/v1/notes?status=&offset=&limit=
func (h *NoteHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	status := domain.ExtractionStatus(c.Query("status"))

	notes, total, err := h.noteService.List(c.Request.Context(), status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, notes, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Content handles GET /api/v1/notes/:id/content
func (h *NoteHandler) Content(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	content, err := h.noteService.GetContent(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}

// ContentURL handles GET /api/v1/notes/:id/content-url
func (h *NoteHandler) ContentURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	url, err := h.noteService.ContentURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url, "expires_in": 300})
}

// Requeue handles POST /api/v1/notes/:id/requeue
func (h *NoteHandler) Requeue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	note, err := h.noteService.Requeue(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, note)
}

// Order handles GET /api/v1/notes/:id/order
func (h *NoteHandler) Order(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid note id")
		return
	}

	order, err := h.orderService.GetByNoteID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, order)
}

// pagination reads offset/limit query parameters with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
