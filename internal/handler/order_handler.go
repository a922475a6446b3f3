package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dmeflow/internal/domain"
	"dmeflow/internal/export"
	"dmeflow/internal/service"
)

// OrderHandler handles extracted order endpoints.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, order)
}

// List handles GET /api/v1/orders?offset=&limit=
func (h *OrderHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	orders, total, err := h.orderService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, orders, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ReviewQueue handles GET /api/v1/orders/review-queue
func (h *OrderHandler) ReviewQueue(c *gin.Context) {
	offset, limit := pagination(c)

	orders, total, err := h.orderService.ListReviewQueue(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, orders, PagMeta{Total: total, Offset: offset, Limit: limit})
}

type reviewRequest struct {
	Status domain.ReviewStatus `json:"status" binding:"required"`
	Notes  string              `json:"notes"`
	Edits  *domain.DeviceOrder `json:"edits"`
}

// Review handles POST /api/v1/orders/:id/review
func (h *OrderHandler) Review(c *gin.Context) {
	userID, role, ok := extractAuthContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orderService.Review(c.Request.Context(), &service.ReviewOrderInput{
		OrderID:    id,
		ReviewerID: userID,
		Role:       role,
		Status:     req.Status,
		Notes:      req.Notes,
		Edits:      req.Edits,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, order)
}

// Submit handles POST /api/v1/orders/:id/submit
func (h *OrderHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}

	order, err := h.orderService.Submit(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, order)
}

// Export handles GET /api/v1/orders/export?format=csv|xlsx&from=&to=
func (h *OrderHandler) Export(c *gin.Context) {
	from, to, err := exportRange(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		filename := export.BuildFilename("orders", "csv")
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		if err := h.orderService.ExportCSV(c.Request.Context(), c.Writer, from, to); err != nil {
			HandleError(c, err)
		}
	case "xlsx":
		filename := export.BuildFilename("orders", "xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		if err := h.orderService.ExportXLSX(c.Request.Context(), c.Writer, from, to); err != nil {
			HandleError(c, err)
		}
	default:
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "format must be csv or xlsx")
	}
}

// exportRange parses from/to query dates, defaulting to the last 30 days.
func exportRange(c *gin.Context) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("from must be YYYY-MM-DD")
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("to must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1) // inclusive end date
	}
	return from, to, nil
}
