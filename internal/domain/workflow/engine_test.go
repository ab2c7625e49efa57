package workflow

import (
	"errors"
	"testing"
	"testing/quick"
)

func TestCMLotEngine_ValidateTransition(t *testing.T) {
	engine := NewCMLotEngine()

	tests := []struct {
		name    string
		from    CMLotStatus
		to      CMLotStatus
		ev      Evidence
		want    bool
		wantErr string
	}{
		{"close without collections", CMLotOpen, CMLotClosedCollected, Collections{Count: 0}, false, MsgCollectionsRequired},
		{"close with collections", CMLotOpen, CMLotClosedCollected, Collections{Count: 3}, true, ""},
		{"close with no evidence", CMLotOpen, CMLotClosedCollected, nil, false, MsgCollectionsRequired},
		{"close with wrong evidence", CMLotOpen, CMLotClosedCollected, QADecision{Recorded: true}, false, MsgCollectionsRequired},
		{"start processing without steps", CMLotClosedCollected, CMLotInProcessing, ProcessingSteps{Count: 0}, false, MsgProcessingStepsRequired},
		{"start processing with steps", CMLotClosedCollected, CMLotInProcessing, ProcessingSteps{Count: 1}, true, ""},
		{"start processing with no evidence", CMLotClosedCollected, CMLotInProcessing, nil, false, MsgProcessingStepsRequired},
		{"submit QC with zero steps", CMLotInProcessing, CMLotQCPending, ProcessingSteps{Count: 0}, false, MsgProcessingNotRecorded},
		{"submit QC with steps", CMLotInProcessing, CMLotQCPending, ProcessingSteps{Count: 2}, true, ""},
		{"submit QC with no evidence", CMLotInProcessing, CMLotQCPending, nil, true, ""},
		{"complete QC missing results", CMLotQCPending, CMLotQCCompleted, QCResults{Required: []string{"CoA", "Endotoxin"}, Recorded: 1}, false, MsgQCResultsIncomplete},
		{"complete QC all results", CMLotQCPending, CMLotQCCompleted, QCResults{Required: []string{"CoA", "Endotoxin"}, Recorded: 2}, true, ""},
		{"complete QC nothing required", CMLotQCPending, CMLotQCCompleted, QCResults{}, true, ""},
		{"complete QC no evidence", CMLotQCPending, CMLotQCCompleted, nil, true, ""},
		{"approve without QA", CMLotQCCompleted, CMLotApproved, QADecision{Recorded: false}, false, MsgQADecisionRequired},
		{"approve with QA", CMLotQCCompleted, CMLotApproved, QADecision{Recorded: true}, true, ""},
		{"approve with no evidence", CMLotQCCompleted, CMLotApproved, nil, false, MsgQADecisionRequired},
		{"reject is unguarded", CMLotQCCompleted, CMLotRejected, nil, true, ""},
		{"hold is unguarded", CMLotQCCompleted, CMLotOnHold, nil, true, ""},
		{"release from hold is unguarded", CMLotOnHold, CMLotApproved, nil, true, ""},
		{"consume is unguarded", CMLotApproved, CMLotConsumed, nil, true, ""},
		{"skip ahead", CMLotOpen, CMLotApproved, nil, false, "invalid status transition"},
		{"terminal", CMLotRejected, CMLotApproved, QADecision{Recorded: true}, false, "invalid status transition"},
		{"unknown current", CMLotStatus("Lost"), CMLotOpen, nil, false, "invalid status transition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ValidateTransition(tt.from, tt.to, tt.ev)
			if got.Valid != tt.want {
				t.Errorf("ValidateTransition().Valid = %v, want %v", got.Valid, tt.want)
			}
			if got.Error != tt.wantErr {
				t.Errorf("ValidateTransition().Error = %q, want %q", got.Error, tt.wantErr)
			}
		})
	}
}

func TestPackLotEngine_ValidateTransition(t *testing.T) {
	engine := NewPackLotEngine()

	tests := []struct {
		name    string
		from    PackLotStatus
		to      PackLotStatus
		ev      Evidence
		want    bool
		wantErr string
	}{
		{"pack directly when lyophilization required", PackLotFilled, PackLotPacked, Lyophilization{Required: true}, false, MsgLyophilizationRequired},
		{"pack directly when not required", PackLotFilled, PackLotPacked, Lyophilization{Required: false}, true, ""},
		{"pack directly with no evidence", PackLotFilled, PackLotPacked, nil, true, ""},
		{"route through lyophilization", PackLotFilled, PackLotLyophilizing, nil, true, ""},
		{"pack after lyophilization", PackLotLyophilizing, PackLotPacked, Lyophilization{Required: true}, true, ""},
		{"release", PackLotQAPending, PackLotReleased, nil, true, ""},
		{"ship", PackLotReleased, PackLotShipped, nil, true, ""},
		{"skip QA", PackLotQCCompleted, PackLotReleased, nil, false, "invalid status transition"},
		{"shipped is terminal", PackLotShipped, PackLotReleased, nil, false, "invalid status transition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.ValidateTransition(tt.from, tt.to, tt.ev)
			if got.Valid != tt.want || got.Error != tt.wantErr {
				t.Errorf("ValidateTransition() = %+v, want valid=%v error=%q", got, tt.want, tt.wantErr)
			}
		})
	}
}

func TestResult_Err(t *testing.T) {
	engine := NewCMLotEngine()

	if err := engine.ValidateTransition(CMLotOpen, CMLotClosedCollected, Collections{Count: 1}).Err(); err != nil {
		t.Errorf("Err() on valid result = %v, want nil", err)
	}

	structural := engine.ValidateTransition(CMLotOpen, CMLotConsumed, nil)
	if structural.Rejection != RejectionStructural {
		t.Errorf("Rejection = %v, want %v", structural.Rejection, RejectionStructural)
	}
	if !errors.Is(structural.Err(), ErrInvalidTransition) {
		t.Errorf("Err() = %v, want %v", structural.Err(), ErrInvalidTransition)
	}

	guarded := engine.ValidateTransition(CMLotQCCompleted, CMLotApproved, QADecision{})
	if guarded.Rejection != RejectionGuard {
		t.Errorf("Rejection = %v, want %v", guarded.Rejection, RejectionGuard)
	}
	err := guarded.Err()
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Err() = %v, want wrapping %v", err, ErrGuardFailed)
	}
	var guardErr *GuardError
	if !errors.As(err, &guardErr) || *guardErr != (GuardError{Message: MsgQADecisionRequired}) {
		t.Errorf("Err() = %v, want GuardError with %q", err, MsgQADecisionRequired)
	}
	if err.Error() != guarded.Error {
		t.Errorf("Error() = %q, want %q", err.Error(), guarded.Error)
	}
}

func TestEngine_RequiredEvidence(t *testing.T) {
	cm := NewCMLotEngine()
	pack := NewPackLotEngine()

	tests := []struct {
		name string
		got  EvidenceKind
		want EvidenceKind
	}{
		{"collect", cm.RequiredEvidence(CMLotOpen, CMLotClosedCollected), EvidenceCollections},
		{"process", cm.RequiredEvidence(CMLotClosedCollected, CMLotInProcessing), EvidenceProcessingSteps},
		{"submit QC", cm.RequiredEvidence(CMLotInProcessing, CMLotQCPending), EvidenceProcessingSteps},
		{"complete QC", cm.RequiredEvidence(CMLotQCPending, CMLotQCCompleted), EvidenceQCResults},
		{"approve", cm.RequiredEvidence(CMLotQCCompleted, CMLotApproved), EvidenceQADecision},
		{"reject", cm.RequiredEvidence(CMLotQCCompleted, CMLotRejected), EvidenceNone},
		{"unlisted", cm.RequiredEvidence(CMLotOpen, CMLotApproved), EvidenceNone},
		{"pack", pack.RequiredEvidence(PackLotFilled, PackLotPacked), EvidenceLyophilization},
		{"fill", pack.RequiredEvidence(PackLotPlanned, PackLotFilling), EvidenceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("RequiredEvidence() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCMLotEngine_ProductionStage(t *testing.T) {
	engine := NewCMLotEngine()

	tests := []struct {
		status CMLotStatus
		want   int
	}{
		{CMLotOpen, 0},
		{CMLotClosedCollected, 1},
		{CMLotInProcessing, 2},
		{CMLotQCPending, 3},
		{CMLotQCCompleted, 4},
		{CMLotApproved, 5},
		{CMLotRejected, -1},
		{CMLotOnHold, -1},
		{CMLotConsumed, -1},
		{CMLotStatus("Unknown"), -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := engine.ProductionStage(tt.status); got != tt.want {
				t.Errorf("ProductionStage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCMLotEngine_CompletedAndTerminal(t *testing.T) {
	engine := NewCMLotEngine()

	tests := []struct {
		status        CMLotStatus
		wantCompleted bool
		wantTerminal  bool
	}{
		{CMLotOpen, false, false},
		{CMLotClosedCollected, false, false},
		{CMLotInProcessing, false, false},
		{CMLotQCPending, false, false},
		{CMLotQCCompleted, false, false},
		{CMLotOnHold, false, false},
		{CMLotApproved, true, false},
		{CMLotRejected, true, true},
		{CMLotConsumed, true, true},
		{CMLotStatus("Unknown"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := engine.IsCompleted(tt.status); got != tt.wantCompleted {
				t.Errorf("IsCompleted() = %v, want %v", got, tt.wantCompleted)
			}
			if got := engine.IsTerminal(tt.status); got != tt.wantTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.wantTerminal)
			}
		})
	}
}

func TestEngine_TerminalStatusesHaveNoTransitions(t *testing.T) {
	engine := NewCMLotEngine()

	for _, s := range CMLotStatuses() {
		if !engine.IsTerminal(s) {
			continue
		}
		for _, next := range CMLotStatuses() {
			if engine.CanTransition(s, next) {
				t.Errorf("terminal %s can transition to %s", s, next)
			}
		}
	}

	if !engine.IsTerminal(CMLotRejected) || engine.CanTransition(CMLotRejected, CMLotApproved) {
		t.Error("Rejected must be terminal with no path to Approved")
	}
}

func TestEngine_StatusInfo(t *testing.T) {
	cm := NewCMLotEngine()

	if got := cm.StatusInfo(CMLotInProcessing); got.Label != "In Processing" || got.Color != "amber" {
		t.Errorf("StatusInfo(In_Processing) = %+v", got)
	}
	if got := cm.StatusInfo(CMLotStatus("Mystery")); got.Label != "Mystery" || got.Color != "gray" {
		t.Errorf("StatusInfo(unknown) = %+v, want label echo and gray", got)
	}

	for _, s := range CMLotStatuses() {
		if _, ok := cmLotInfo[s]; !ok {
			t.Errorf("CM lot %s has no display info", s)
		}
	}
	for _, s := range PackLotStatuses() {
		if _, ok := packLotInfo[s]; !ok {
			t.Errorf("pack lot %s has no display info", s)
		}
	}
	for _, s := range RequestStatuses() {
		if _, ok := requestInfo[s]; !ok {
			t.Errorf("request %s has no display info", s)
		}
	}
}

func TestNewEngine_Errors(t *testing.T) {
	if _, err := NewEngine(EngineConfig[CMLotStatus]{}); err == nil {
		t.Error("NewEngine() without table should fail")
	}

	_, err := NewEngine(EngineConfig[CMLotStatus]{
		Table:  CMLotTable(),
		Stages: []CMLotStatus{CMLotOpen, CMLotOpen},
	})
	if err == nil {
		t.Error("NewEngine() with duplicate stages should fail")
	}
}

func TestNewEngine_AlternateTable(t *testing.T) {
	builder := NewTableBuilder[CMLotStatus]()
	builder.Configure(CMLotOpen).Permit(CMLotRejected)
	builder.Configure(CMLotRejected)

	engine, err := NewEngine(EngineConfig[CMLotStatus]{Table: builder.Build()})
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	if !engine.ValidateTransition(CMLotOpen, CMLotRejected, nil).Valid {
		t.Error("alternate table should allow Open -> Rejected")
	}
	if engine.ValidateTransition(CMLotOpen, CMLotClosedCollected, Collections{Count: 5}).Valid {
		t.Error("alternate table should not list Open -> Closed_Collected")
	}
	if engine.ProductionStage(CMLotOpen) != -1 {
		t.Error("engine without stages should report -1")
	}
}

func TestEngine_LookupsArePure(t *testing.T) {
	t.Run("cm lot", func(t *testing.T) { checkLookupsArePure(t, NewCMLotEngine()) })
	t.Run("pack lot", func(t *testing.T) { checkLookupsArePure(t, NewPackLotEngine()) })
	t.Run("request", func(t *testing.T) { checkLookupsArePure(t, NewRequestEngine()) })
}

// checkLookupsArePure asserts every lookup returns the same answer twice for random inputs
func checkLookupsArePure[S Status](t *testing.T, engine *Engine[S]) {
	t.Helper()
	statuses := engine.Statuses()
	if len(statuses) == 0 {
		t.Fatal("engine has no statuses")
	}
	pick := func(i uint8) S { return statuses[int(i)%len(statuses)] }
	codes := []string{"CoA", "Endotoxin", "Sterility"}

	property := func(a, b uint8, count int8, required uint8, flag bool) bool {
		from, to := pick(a), pick(b)
		evs := []Evidence{
			nil,
			Collections{Count: int(count)},
			ProcessingSteps{Count: int(count)},
			QCResults{Required: codes[:int(required)%(len(codes)+1)], Recorded: int(count)},
			QADecision{Recorded: flag},
			Lyophilization{Required: flag},
		}

		for _, ev := range evs {
			if engine.ValidateTransition(from, to, ev) != engine.ValidateTransition(from, to, ev) {
				return false
			}
			if engine.RequiredEvidence(from, to) != engine.RequiredEvidence(from, to) {
				return false
			}
		}
		n1, ok1 := engine.NextStatus(from)
		n2, ok2 := engine.NextStatus(from)

		return engine.CanTransition(from, to) == engine.CanTransition(from, to) &&
			n1 == n2 && ok1 == ok2 &&
			engine.StatusInfo(from) == engine.StatusInfo(from) &&
			engine.ProductionStage(from) == engine.ProductionStage(from) &&
			engine.IsCompleted(from) == engine.IsCompleted(from) &&
			engine.IsTerminal(from) == engine.IsTerminal(from)
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}
