package workflow

import "sync"

// CMLotStatus is the lifecycle status of a raw-material CM lot
type CMLotStatus string

const (
	CMLotOpen            CMLotStatus = "Open"
	CMLotClosedCollected CMLotStatus = "Closed_Collected"
	CMLotInProcessing    CMLotStatus = "In_Processing"
	CMLotQCPending       CMLotStatus = "QC_Pending"
	CMLotQCCompleted     CMLotStatus = "QC_Completed"
	CMLotApproved        CMLotStatus = "Approved"
	CMLotRejected        CMLotStatus = "Rejected"
	CMLotOnHold          CMLotStatus = "OnHold"
	CMLotConsumed        CMLotStatus = "Consumed"
)

// Guard messages for CM lot transitions
const (
	MsgCollectionsRequired     = "cannot close collection without collection events"
	MsgProcessingStepsRequired = "cannot start processing without processing steps"
	MsgProcessingNotRecorded   = "cannot submit to QC before processing is recorded"
	MsgQCResultsIncomplete     = "cannot complete QC before all required test results are recorded"
	MsgQADecisionRequired      = "QA decision required"
)

var cmLotStatuses = []CMLotStatus{
	CMLotOpen,
	CMLotClosedCollected,
	CMLotInProcessing,
	CMLotQCPending,
	CMLotQCCompleted,
	CMLotApproved,
	CMLotRejected,
	CMLotOnHold,
	CMLotConsumed,
}

// CMLotStatuses returns the full CM lot enumeration
func CMLotStatuses() []CMLotStatus {
	out := make([]CMLotStatus, len(cmLotStatuses))
	copy(out, cmLotStatuses)
	return out
}

// Valid returns true if the status is part of the CM lot enumeration
func (s CMLotStatus) Valid() bool {
	for _, known := range cmLotStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the status
func (s CMLotStatus) String() string {
	return string(s)
}

var (
	collectionsGuard = Guard{
		Evidence: EvidenceCollections,
		Message:  MsgCollectionsRequired,
		Check: func(ev Evidence) bool {
			c, ok := ev.(Collections)
			return ok && c.Count > 0
		},
	}

	startProcessingGuard = Guard{
		Evidence: EvidenceProcessingSteps,
		Message:  MsgProcessingStepsRequired,
		Check: func(ev Evidence) bool {
			p, ok := ev.(ProcessingSteps)
			return ok && p.Count > 0
		},
	}

	// An absent processing record passes; only an explicit zero count is refused.
	submitQCGuard = Guard{
		Evidence: EvidenceProcessingSteps,
		Message:  MsgProcessingNotRecorded,
		Check: func(ev Evidence) bool {
			p, ok := ev.(ProcessingSteps)
			return !ok || p.Count != 0
		},
	}

	completeQCGuard = Guard{
		Evidence: EvidenceQCResults,
		Message:  MsgQCResultsIncomplete,
		Check: func(ev Evidence) bool {
			q, ok := ev.(QCResults)
			if !ok || len(q.Required) == 0 {
				return true
			}
			return q.Recorded >= len(q.Required)
		},
	}

	qaDecisionGuard = Guard{
		Evidence: EvidenceQADecision,
		Message:  MsgQADecisionRequired,
		Check: func(ev Evidence) bool {
			d, ok := ev.(QADecision)
			return ok && d.Recorded
		},
	}
)

func buildCMLotTable() *Table[CMLotStatus] {
	b := NewTableBuilder[CMLotStatus]()

	b.Configure(CMLotOpen).
		PermitIf(CMLotClosedCollected, collectionsGuard)

	b.Configure(CMLotClosedCollected).
		PermitIf(CMLotInProcessing, startProcessingGuard)

	b.Configure(CMLotInProcessing).
		PermitIf(CMLotQCPending, submitQCGuard)

	b.Configure(CMLotQCPending).
		PermitIf(CMLotQCCompleted, completeQCGuard)

	b.Configure(CMLotQCCompleted).
		PermitIf(CMLotApproved, qaDecisionGuard).
		Permit(CMLotRejected).
		Permit(CMLotOnHold)

	b.Configure(CMLotOnHold).
		Permit(CMLotApproved).
		Permit(CMLotRejected)

	b.Configure(CMLotApproved).
		Permit(CMLotConsumed)

	// Terminal
	b.Configure(CMLotRejected)
	b.Configure(CMLotConsumed)

	return b.Build()
}

var cmLotTable = sync.OnceValue(buildCMLotTable)

// CMLotTable returns the process-wide default CM lot transition table
func CMLotTable() *Table[CMLotStatus] {
	return cmLotTable()
}

var cmLotInfo = map[CMLotStatus]StatusInfo{
	CMLotOpen:            {Label: "Open", Color: "blue"},
	CMLotClosedCollected: {Label: "Collection Closed", Color: "indigo"},
	CMLotInProcessing:    {Label: "In Processing", Color: "amber"},
	CMLotQCPending:       {Label: "QC Pending", Color: "yellow"},
	CMLotQCCompleted:     {Label: "QC Completed", Color: "cyan"},
	CMLotApproved:        {Label: "Approved", Color: "green"},
	CMLotRejected:        {Label: "Rejected", Color: "red"},
	CMLotOnHold:          {Label: "On Hold", Color: "orange"},
	CMLotConsumed:        {Label: "Consumed", Color: "gray"},
}

// DefaultCMLotConfig returns the engine configuration for CM lots
func DefaultCMLotConfig() EngineConfig[CMLotStatus] {
	return EngineConfig[CMLotStatus]{
		Table: CMLotTable(),
		Info:  cmLotInfo,
		Stages: []CMLotStatus{
			CMLotOpen,
			CMLotClosedCollected,
			CMLotInProcessing,
			CMLotQCPending,
			CMLotQCCompleted,
			CMLotApproved,
		},
		Completed: []CMLotStatus{CMLotApproved, CMLotRejected, CMLotConsumed},
	}
}

// NewCMLotEngine creates an engine over the default CM lot configuration
func NewCMLotEngine() *Engine[CMLotStatus] {
	return mustEngine(DefaultCMLotConfig())
}
