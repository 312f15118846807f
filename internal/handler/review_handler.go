package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openvalley/strmatch-backend-go/internal/middleware"
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/service"
	"github.com/openvalley/strmatch-backend-go/pkg/response"
)

// ReviewHandler handles HTTP requests for the curation workflow
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// GetQueue handles GET /api/v1/str-review/queue
func (h *ReviewHandler) GetQueue(c *gin.Context) {
	var filter models.QueueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	resp, err := h.service.GetQueue(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get review queue", err)
		return
	}

	response.Success(c, resp)
}

// GetDetail handles GET /api/v1/str-review/:id
func (h *ReviewHandler) GetDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid listing ID", err)
		return
	}

	detail, err := h.service.GetDetail(id)
	if err != nil {
		writeServiceError(c, "Failed to get listing", err)
		return
	}

	response.Success(c, detail)
}

// Decide handles PUT /api/v1/str-review/:id/decision
func (h *ReviewHandler) Decide(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid listing ID", err)
		return
	}

	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid decision body", err)
		return
	}

	item, err := h.service.Decide(id, &req, middleware.Reviewer(c))
	if err != nil {
		writeServiceError(c, "Failed to apply decision", err)
		return
	}

	response.Success(c, item)
}

// writeServiceError maps review error taxonomy onto HTTP statuses: missing
// entities are 404, decision validation failures are 422, version conflicts
// are 409, malformed actions are 400.
func writeServiceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound), errors.Is(err, service.ErrDwellingNotFound):
		response.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrInvalidCandidate),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrUnresolvedParcel):
		response.Error(c, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, service.ErrInvalidAction):
		response.Error(c, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrConcurrentModification):
		response.Error(c, http.StatusConflict, message, err)
	default:
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}
