package workflow

import "sync"

// RequestStatus is the lifecycle status of a material request
type RequestStatus string

const (
	RequestDraft      RequestStatus = "Draft"
	RequestInProgress RequestStatus = "InProgress"
	RequestCompleted  RequestStatus = "Completed"
	RequestCancelled  RequestStatus = "Cancelled"
)

var requestStatuses = []RequestStatus{
	RequestDraft,
	RequestInProgress,
	RequestCompleted,
	RequestCancelled,
}

// RequestStatuses returns the full request enumeration
func RequestStatuses() []RequestStatus {
	out := make([]RequestStatus, len(requestStatuses))
	copy(out, requestStatuses)
	return out
}

// Valid returns true if the status is part of the request enumeration
func (s RequestStatus) Valid() bool {
	for _, known := range requestStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the status
func (s RequestStatus) String() string {
	return string(s)
}

// Requests carry no business guards. Cancelled is reachable from every
// non-terminal status and listed last so it is never the default next status.
func buildRequestTable() *Table[RequestStatus] {
	b := NewTableBuilder[RequestStatus]()

	b.Configure(RequestDraft).
		Permit(RequestInProgress).
		Permit(RequestCancelled)

	b.Configure(RequestInProgress).
		Permit(RequestCompleted).
		Permit(RequestCancelled)

	// Terminal
	b.Configure(RequestCompleted)
	b.Configure(RequestCancelled)

	return b.Build()
}

var requestTable = sync.OnceValue(buildRequestTable)

// RequestTable returns the process-wide default request transition table
func RequestTable() *Table[RequestStatus] {
	return requestTable()
}

var requestInfo = map[RequestStatus]StatusInfo{
	RequestDraft:      {Label: "Draft", Color: "gray"},
	RequestInProgress: {Label: "In Progress", Color: "blue"},
	RequestCompleted:  {Label: "Completed", Color: "green"},
	RequestCancelled:  {Label: "Cancelled", Color: "red"},
}

// DefaultRequestConfig returns the engine configuration for requests
func DefaultRequestConfig() EngineConfig[RequestStatus] {
	return EngineConfig[RequestStatus]{
		Table:     RequestTable(),
		Info:      requestInfo,
		Stages:    []RequestStatus{RequestDraft, RequestInProgress, RequestCompleted},
		Completed: []RequestStatus{RequestCompleted, RequestCancelled},
	}
}

// NewRequestEngine creates an engine over the default request configuration
func NewRequestEngine() *Engine[RequestStatus] {
	return mustEngine(DefaultRequestConfig())
}
