package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"lot created", TypeLotCreated, "lot.created"},
		{"lot status changed", TypeLotStatusChanged, "lot.status_changed"},
		{"request created", TypeRequestCreated, "request.created"},
		{"request status changed", TypeRequestStatusChanged, "request.status_changed"},
		{"evidence recorded", TypeEvidenceRecorded, "lot.evidence_recorded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"valid - lot created", TypeLotCreated, true},
		{"valid - lot status changed", TypeLotStatusChanged, true},
		{"valid - request status changed", TypeRequestStatusChanged, true},
		{"invalid - unknown type", Type("unknown.type"), false},
		{"invalid - empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		KeyPreviousStatus: "Open",
		KeyNewStatus:      "Closed_Collected",
	}

	event := NewEvent(TypeLotStatusChanged, "cm_lot", 123, payload)

	if event == nil {
		t.Fatal("NewEvent() returned nil")
	}

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}

	if event.Type != TypeLotStatusChanged {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeLotStatusChanged)
	}

	if event.EntityType != "cm_lot" || event.EntityID != 123 {
		t.Errorf("Event entity = %v/%v, want cm_lot/123", event.EntityType, event.EntityID)
	}

	if event.GetPayloadString(KeyNewStatus) != "Closed_Collected" {
		t.Errorf("Event Payload[new_status] = %v", event.Payload[KeyNewStatus])
	}

	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Error("Event CorrelationID should be set independently of ID")
	}

	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewEvent(TypeLotCreated, "cm_lot", int64(i), nil).ID
		if seen[id] {
			t.Fatalf("duplicate event ID %s", id)
		}
		seen[id] = true
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	correlationID := "test-correlation-123"

	event := NewEventWithCorrelation(TypeRequestStatusChanged, "request", 789, nil, correlationID)

	if event.CorrelationID != correlationID {
		t.Errorf("Event CorrelationID = %v, want %v", event.CorrelationID, correlationID)
	}

	if event.EntityID != 789 {
		t.Errorf("Event EntityID = %v, want %v", event.EntityID, 789)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeLotCreated, "pack_lot", 1, map[string]interface{}{
		"key1": "value1",
	})

	modified := original.WithPayload("key2", "value2")

	if _, exists := original.Payload["key2"]; exists {
		t.Error("Original event should not be modified")
	}

	if modified.Payload["key1"] != "value1" || modified.Payload["key2"] != "value2" {
		t.Errorf("Modified payload = %v", modified.Payload)
	}

	if modified.ID != original.ID || modified.EntityID != original.EntityID || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep identity fields")
	}
}

func TestEvent_PayloadGetters(t *testing.T) {
	event := NewEvent(TypeLotCreated, "cm_lot", 1, map[string]interface{}{
		"status":  "Open",
		"int64":   int64(100),
		"int":     50,
		"float64": 75.5,
		"flag":    true,
	})

	if got := event.GetPayloadString("status"); got != "Open" {
		t.Errorf("GetPayloadString(status) = %v", got)
	}
	if got := event.GetPayloadString("int"); got != "" {
		t.Errorf("GetPayloadString(int) = %v, want empty", got)
	}
	if got := event.GetPayloadInt("int64"); got != 100 {
		t.Errorf("GetPayloadInt(int64) = %v", got)
	}
	if got := event.GetPayloadInt("int"); got != 50 {
		t.Errorf("GetPayloadInt(int) = %v", got)
	}
	if got := event.GetPayloadInt("float64"); got != 75 {
		t.Errorf("GetPayloadInt(float64) = %v", got)
	}
	if got := event.GetPayloadInt("missing"); got != 0 {
		t.Errorf("GetPayloadInt(missing) = %v", got)
	}
	if !event.GetPayloadBool("flag") || event.GetPayloadBool("status") {
		t.Error("GetPayloadBool() mismatch")
	}
}
