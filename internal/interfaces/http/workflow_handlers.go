package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/lotflow/internal/domain/entity"
	"github.com/garyjia/lotflow/internal/domain/workflow"
)

// StatusView describes one status of a lifecycle
type StatusView struct {
	Status     string   `json:"status"`
	Label      string   `json:"label"`
	Color      string   `json:"color"`
	Stage      int      `json:"stage"`
	Completed  bool     `json:"completed"`
	Terminal   bool     `json:"terminal"`
	Next       string   `json:"next,omitempty"`
	Successors []string `json:"successors"`
}

// EvidencePayload is the wire form of guard evidence. Only the field the
// transition's guard reads is used; leaving it out means no evidence.
type EvidencePayload struct {
	Collections            *int     `json:"collections,omitempty"`
	ProcessingSteps        *int     `json:"processing_steps,omitempty"`
	QCRequired             []string `json:"qc_required,omitempty"`
	QCRecorded             *int     `json:"qc_recorded,omitempty"`
	QADecision             *bool    `json:"qa_decision,omitempty"`
	LyophilizationRequired *bool    `json:"lyophilization_required,omitempty"`
}

// ValidateRequest is the body of a dry-run validation
type ValidateRequest struct {
	From     string           `json:"from" binding:"required"`
	To       string           `json:"to" binding:"required"`
	Evidence *EvidencePayload `json:"evidence,omitempty"`
}

// ValidateResponse reports the engine's verdict on a proposed transition
type ValidateResponse struct {
	workflow.Result
	RequiredEvidence string `json:"required_evidence,omitempty"`
}

// ListStatuses handles GET /api/v1/workflow/:entity/statuses
func (h *Handlers) ListStatuses(c *gin.Context) {
	switch c.Param("entity") {
	case entity.EntityCMLot:
		ok(c, describe(h.engines.CMLot))
	case entity.EntityPackLot:
		ok(c, describe(h.engines.PackLot))
	case entity.EntityRequest:
		ok(c, describe(h.engines.Request))
	default:
		fail(c, http.StatusNotFound, fmt.Sprintf("unknown entity %q", c.Param("entity")))
	}
}

// ValidateTransition handles POST /api/v1/workflow/:entity/validate
func (h *Handlers) ValidateTransition(c *gin.Context) {
	var req ValidateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var (
		resp ValidateResponse
		err  error
	)
	switch c.Param("entity") {
	case entity.EntityCMLot:
		resp, err = dryRun(h.engines.CMLot, req)
	case entity.EntityPackLot:
		resp, err = dryRun(h.engines.PackLot, req)
	case entity.EntityRequest:
		resp, err = dryRun(h.engines.Request, req)
	default:
		fail(c, http.StatusNotFound, fmt.Sprintf("unknown entity %q", c.Param("entity")))
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ok(c, resp)
}

func describe[S workflow.Status](e *workflow.Engine[S]) []StatusView {
	statuses := e.Statuses()
	views := make([]StatusView, 0, len(statuses))

	for _, s := range statuses {
		info := e.StatusInfo(s)
		view := StatusView{
			Status:     string(s),
			Label:      info.Label,
			Color:      info.Color,
			Stage:      e.ProductionStage(s),
			Completed:  e.IsCompleted(s),
			Terminal:   e.IsTerminal(s),
			Successors: []string{},
		}
		if next, found := e.NextStatus(s); found {
			view.Next = string(next)
		}
		for _, succ := range e.Successors(s) {
			view.Successors = append(view.Successors, string(succ))
		}
		views = append(views, view)
	}

	return views
}

func dryRun[S workflow.Status](e *workflow.Engine[S], req ValidateRequest) (ValidateResponse, error) {
	from, to := S(req.From), S(req.To)
	if !from.Valid() {
		return ValidateResponse{}, fmt.Errorf("%w: %q", workflow.ErrInvalidStatus, req.From)
	}
	if !to.Valid() {
		return ValidateResponse{}, fmt.Errorf("%w: %q", workflow.ErrInvalidStatus, req.To)
	}

	kind := e.RequiredEvidence(from, to)
	return ValidateResponse{
		Result:           e.ValidateTransition(from, to, req.Evidence.decode(kind)),
		RequiredEvidence: kind.String(),
	}, nil
}

// decode builds the typed evidence of the given kind, or nil when the field is absent
func (p *EvidencePayload) decode(kind workflow.EvidenceKind) workflow.Evidence {
	if p == nil {
		return nil
	}

	switch kind {
	case workflow.EvidenceCollections:
		if p.Collections != nil {
			return workflow.Collections{Count: *p.Collections}
		}
	case workflow.EvidenceProcessingSteps:
		if p.ProcessingSteps != nil {
			return workflow.ProcessingSteps{Count: *p.ProcessingSteps}
		}
	case workflow.EvidenceQCResults:
		if p.QCRequired != nil || p.QCRecorded != nil {
			ev := workflow.QCResults{Required: p.QCRequired}
			if p.QCRecorded != nil {
				ev.Recorded = *p.QCRecorded
			}
			return ev
		}
	case workflow.EvidenceQADecision:
		if p.QADecision != nil {
			return workflow.QADecision{Recorded: *p.QADecision}
		}
	case workflow.EvidenceLyophilization:
		if p.LyophilizationRequired != nil {
			return workflow.Lyophilization{Required: *p.LyophilizationRequired}
		}
	}
	return nil
}
