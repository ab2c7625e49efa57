package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/domain/entity"
)

// EvidenceSummary handles GET /api/v1/cm-lots/:id/evidence
func (h *Handlers) EvidenceSummary(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}

	summary, err := h.services.Evidence.Summary(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get evidence", err)
		return
	}
	ok(c, summary)
}

// RecordCollection handles POST /api/v1/cm-lots/:id/collections
func (h *Handlers) RecordCollection(c *gin.Context) {
	var rec entity.CollectionEvent
	recordEvidence(h, c, "record collection", &rec, func(ctx context.Context, id int64) error {
		rec.CMLotID = id
		rec.RecordedBy = actorOf(c, rec.RecordedBy)
		return h.services.Evidence.RecordCollection(ctx, &rec)
	})
}

// RecordProcessingStep handles POST /api/v1/cm-lots/:id/processing-steps
func (h *Handlers) RecordProcessingStep(c *gin.Context) {
	var rec entity.ProcessingStep
	recordEvidence(h, c, "record processing step", &rec, func(ctx context.Context, id int64) error {
		rec.CMLotID = id
		rec.RecordedBy = actorOf(c, rec.RecordedBy)
		return h.services.Evidence.RecordProcessingStep(ctx, &rec)
	})
}

// RequireQCTest handles POST /api/v1/cm-lots/:id/qc-requirements
func (h *Handlers) RequireQCTest(c *gin.Context) {
	var rec entity.QCRequirement
	recordEvidence(h, c, "require qc test", &rec, func(ctx context.Context, id int64) error {
		rec.CMLotID = id
		return h.services.Evidence.RequireQCTest(ctx, &rec)
	})
}

// RecordQCResult handles POST /api/v1/cm-lots/:id/qc-results
func (h *Handlers) RecordQCResult(c *gin.Context) {
	var rec entity.QCResult
	recordEvidence(h, c, "record qc result", &rec, func(ctx context.Context, id int64) error {
		rec.CMLotID = id
		rec.RecordedBy = actorOf(c, rec.RecordedBy)
		return h.services.Evidence.RecordQCResult(ctx, &rec)
	})
}

// RecordQADecision handles POST /api/v1/cm-lots/:id/qa-decision
func (h *Handlers) RecordQADecision(c *gin.Context) {
	var rec entity.QADecision
	recordEvidence(h, c, "record qa decision", &rec, func(ctx context.Context, id int64) error {
		rec.CMLotID = id
		rec.DecidedBy = actorOf(c, rec.DecidedBy)
		return h.services.Evidence.RecordQADecision(ctx, &rec)
	})
}

// recordEvidence binds the body into rec, runs write with the path id and answers 201 with rec
func recordEvidence(h *Handlers, c *gin.Context, op string, rec interface{}, write func(ctx context.Context, id int64) error) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if !h.bindJSON(c, rec) {
		return
	}

	if err := write(c.Request.Context(), id); err != nil {
		h.respondError(c, op, err)
		return
	}
	created(c, rec)
}
