package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

// CreateRequest handles POST /api/v1/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var in service.CreateRequestInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.RequestedBy = actorOf(c, in.RequestedBy)

	req, err := h.services.Requests.CreateRequest(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "create request", err)
		return
	}
	created(c, req)
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	filter, valid := h.listFilter(c)
	if !valid {
		return
	}

	reqs, err := h.services.Requests.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list requests", err)
		return
	}
	if reqs == nil {
		reqs = []*entity.Request{}
	}
	ok(c, reqs)
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	req, err := h.services.Requests.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get request", err)
		return
	}
	ok(c, req)
}

// RequestTransitions handles GET /api/v1/requests/:id/transitions
func (h *Handlers) RequestTransitions(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	options, err := h.services.Requests.RequestTransitions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list transitions", err)
		return
	}
	ok(c, options)
}

// TransitionRequest handles POST /api/v1/requests/:id/transitions
func (h *Handlers) TransitionRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body TransitionRequest
	if !h.bindJSON(c, &body) {
		return
	}

	record, err := h.services.Requests.TransitionRequest(c.Request.Context(), id, body.To, actorOf(c, body.Actor), body.Note)
	if err != nil {
		h.respondError(c, "transition request", err)
		return
	}
	ok(c, record)
}

// RequestHistory handles GET /api/v1/requests/:id/history
func (h *Handlers) RequestHistory(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	records, err := h.services.Requests.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get history", err)
		return
	}
	if records == nil {
		records = []*entity.StatusHistory{}
	}
	ok(c, records)
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	filter, valid := h.listFilter(c)
	if !valid {
		return
	}

	var (
		items []*entity.Notification
		err   error
	)
	if unread, _ := strconv.ParseBool(c.Query("unread")); unread {
		items, err = h.services.Notifications.ListUnread(c.Request.Context(), filter.Limit)
	} else {
		items, err = h.services.Notifications.List(c.Request.Context(), filter.Limit, filter.Offset)
	}
	if err != nil {
		h.respondError(c, "list notifications", err)
		return
	}
	if items == nil {
		items = []*entity.Notification{}
	}
	ok(c, items)
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	if err := h.services.Notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.respondError(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}
