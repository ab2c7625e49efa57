package entity

import "time"

// CollectionEvent records one collection of starting material into a CM lot
type CollectionEvent struct {
	ID          int64     `json:"id"`
	CMLotID     int64     `json:"cm_lot_id"`
	Volume      float64   `json:"volume"`
	Unit        string    `json:"unit"`
	Notes       string    `json:"notes,omitempty"`
	RecordedBy  string    `json:"recorded_by"`
	CollectedAt time.Time `json:"collected_at"`
}

// ProcessingStep records one processing operation performed on a CM lot
type ProcessingStep struct {
	ID          int64     `json:"id"`
	CMLotID     int64     `json:"cm_lot_id"`
	StepName    string    `json:"step_name"`
	Notes       string    `json:"notes,omitempty"`
	RecordedBy  string    `json:"recorded_by"`
	PerformedAt time.Time `json:"performed_at"`
}

// QCRequirement lists a test code that must have a result before QC completes
type QCRequirement struct {
	ID       int64  `json:"id"`
	CMLotID  int64  `json:"cm_lot_id"`
	TestCode string `json:"test_code"`
}

// QCResult records the outcome of one QC test against a CM lot
type QCResult struct {
	ID         int64     `json:"id"`
	CMLotID    int64     `json:"cm_lot_id"`
	TestCode   string    `json:"test_code"`
	Passed     bool      `json:"passed"`
	Value      string    `json:"value,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// QA decision constants
const (
	QADecisionRelease = "RELEASE"
	QADecisionReject  = "REJECT"
)

// QADecision records the QA release or reject decision for a CM lot
type QADecision struct {
	ID        int64     `json:"id"`
	CMLotID   int64     `json:"cm_lot_id"`
	Decision  string    `json:"decision"`
	Rationale string    `json:"rationale,omitempty"`
	DecidedBy string    `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
}

// CMLotEvidence aggregates the guard counters of a CM lot
type CMLotEvidence struct {
	CollectionsCount     int      `json:"collections_count"`
	ProcessingStepsCount int      `json:"processing_steps_count"`
	QCTestsRequired      []string `json:"qc_tests_required"`
	QCResultsCount       int      `json:"qc_results_count"`
	HasQADecision        bool     `json:"has_qa_decision"`
	QAReleased           bool     `json:"qa_released"`
}
