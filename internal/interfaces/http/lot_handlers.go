package http

import (
	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/application/service"
	"github.com/garyjia/lotflow/internal/domain/entity"
)

// CreateCMLot handles POST /api/v1/cm-lots
func (h *Handlers) CreateCMLot(c *gin.Context) {
	var in service.CreateCMLotInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.CreatedBy = actorOf(c, in.CreatedBy)

	lot, err := h.services.Lots.CreateCMLot(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "create cm lot", err)
		return
	}
	created(c, lot)
}

// ListCMLots handles GET /api/v1/cm-lots
func (h *Handlers) ListCMLots(c *gin.Context) {
	filter, valid := h.listFilter(c)
	if !valid {
		return
	}

	lots, err := h.services.Lots.ListCMLots(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list cm lots", err)
		return
	}
	if lots == nil {
		lots = []*entity.CMLot{}
	}
	ok(c, lots)
}

// GetCMLot handles GET /api/v1/cm-lots/:id
func (h *Handlers) GetCMLot(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	lot, err := h.services.Lots.GetCMLot(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get cm lot", err)
		return
	}
	ok(c, lot)
}

// CMLotTransitions handles GET /api/v1/cm-lots/:id/transitions
func (h *Handlers) CMLotTransitions(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	options, err := h.services.Lots.CMLotTransitions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list transitions", err)
		return
	}
	ok(c, options)
}

// TransitionCMLot handles POST /api/v1/cm-lots/:id/transitions
func (h *Handlers) TransitionCMLot(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var req TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.services.Lots.TransitionCMLot(c.Request.Context(), id, req.To, actorOf(c, req.Actor), req.Note)
	if err != nil {
		h.respondError(c, "transition cm lot", err)
		return
	}
	ok(c, record)
}

// CMLotHistory handles GET /api/v1/cm-lots/:id/history
func (h *Handlers) CMLotHistory(c *gin.Context) {
	h.lotHistory(c, entity.EntityCMLot)
}

// CreatePackLot handles POST /api/v1/pack-lots
func (h *Handlers) CreatePackLot(c *gin.Context) {
	var in service.CreatePackLotInput
	if !h.bindJSON(c, &in) {
		return
	}
	in.CreatedBy = actorOf(c, in.CreatedBy)

	lot, err := h.services.Lots.CreatePackLot(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "create pack lot", err)
		return
	}
	created(c, lot)
}

// ListPackLots handles GET /api/v1/pack-lots
func (h *Handlers) ListPackLots(c *gin.Context) {
	filter, valid := h.listFilter(c)
	if !valid {
		return
	}

	lots, err := h.services.Lots.ListPackLots(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list pack lots", err)
		return
	}
	if lots == nil {
		lots = []*entity.PackLot{}
	}
	ok(c, lots)
}

// GetPackLot handles GET /api/v1/pack-lots/:id
func (h *Handlers) GetPackLot(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	lot, err := h.services.Lots.GetPackLot(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get pack lot", err)
		return
	}
	ok(c, lot)
}

// PackLotTransitions handles GET /api/v1/pack-lots/:id/transitions
func (h *Handlers) PackLotTransitions(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	options, err := h.services.Lots.PackLotTransitions(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "list transitions", err)
		return
	}
	ok(c, options)
}

// TransitionPackLot handles POST /api/v1/pack-lots/:id/transitions
func (h *Handlers) TransitionPackLot(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var req TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.services.Lots.TransitionPackLot(c.Request.Context(), id, req.To, actorOf(c, req.Actor), req.Note)
	if err != nil {
		h.respondError(c, "transition pack lot", err)
		return
	}
	ok(c, record)
}

// PackLotHistory handles GET /api/v1/pack-lots/:id/history
func (h *Handlers) PackLotHistory(c *gin.Context) {
	h.lotHistory(c, entity.EntityPackLot)
}

func (h *Handlers) lotHistory(c *gin.Context, entityType string) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	records, err := h.services.Lots.History(c.Request.Context(), entityType, id)
	if err != nil {
		h.respondError(c, "get history", err)
		return
	}
	if records == nil {
		records = []*entity.StatusHistory{}
	}
	ok(c, records)
}
