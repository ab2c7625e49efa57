package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	engines  Engines
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, engines Engines, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		engines:  engines,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ListQuery represents query parameters for list endpoints
type ListQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// TransitionRequest is the body of a status change
type TransitionRequest struct {
	To    string `json:"to" binding:"required"`
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// Version is reported by the health endpoint
var Version = "dev"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	var te *service.TransitionError
	switch {
	case errors.As(err, &te),
		errors.Is(err, service.ErrLotClosed),
		errors.Is(err, service.ErrSourceNotApproved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, workflow.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStatusConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged and hidden.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
		fail(c, status, op+" failed")
		return
	}
	fail(c, status, err.Error())
}

// pathID parses the :id path parameter, writing a 400 when it is malformed
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, writing a 400 when it is malformed
func (h *Handlers) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// listFilter reads ?status=&limit=&offset=, clamping limit to 1..100 (default 20)
func (h *Handlers) listFilter(c *gin.Context) (entity.LotFilter, bool) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid query parameters")
		return entity.LotFilter{}, false
	}

	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	return entity.LotFilter{Status: q.Status, Limit: q.Limit, Offset: q.Offset}, true
}

// actorOf prefers the body actor, falling back to the X-Actor header
func actorOf(c *gin.Context, actor string) string {
	if actor != "" {
		return actor
	}
	return c.GetHeader("X-Actor")
}
