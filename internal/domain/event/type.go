package event

// Type identifies the type of domain event
type Type string

const (
	TypeLotCreated           Type = "lot.created"
	TypeLotStatusChanged     Type = "lot.status_changed"
	TypeRequestCreated       Type = "request.created"
	TypeRequestStatusChanged Type = "request.status_changed"
	TypeEvidenceRecorded     Type = "lot.evidence_recorded"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeLotCreated,
		TypeLotStatusChanged,
		TypeRequestCreated,
		TypeRequestStatusChanged,
		TypeEvidenceRecorded:
		return true
	default:
		return false
	}
}
