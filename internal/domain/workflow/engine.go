package workflow

import "fmt"

// Rejection classifies why a transition was refused
type Rejection string

const (
	RejectionNone       Rejection = ""
	RejectionStructural Rejection = "structural"
	RejectionGuard      Rejection = "guard"
)

// Result is the outcome of a guarded transition check
type Result struct {
	Valid     bool      `json:"valid"`
	Error     string    `json:"error,omitempty"`
	Rejection Rejection `json:"rejection,omitempty"`
}

// Err converts a rejected result into an error wrapping ErrInvalidTransition or ErrGuardFailed
func (r Result) Err() error {
	switch {
	case r.Valid:
		return nil
	case r.Rejection == RejectionGuard:
		return &GuardError{Message: r.Error}
	default:
		return ErrInvalidTransition
	}
}

// StatusInfo is the display metadata of a status
type StatusInfo struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// unknownColor is used for statuses without display metadata
const unknownColor = "gray"

// EngineConfig is the immutable configuration an Engine is built from
type EngineConfig[S Status] struct {
	// Table holds the listed transitions and their guards
	Table *Table[S]

	// Info maps statuses to display metadata
	Info map[S]StatusInfo

	// Stages is the linear happy path used for progress rendering
	Stages []S

	// Completed lists statuses after which no production work is expected
	Completed []S
}

// Engine answers transition and display questions for one entity lifecycle.
// It performs no I/O and is safe for concurrent use.
type Engine[S Status] struct {
	table     *Table[S]
	info      map[S]StatusInfo
	stages    []S
	stageIdx  map[S]int
	completed map[S]struct{}
}

// NewEngine creates an engine from the given configuration
func NewEngine[S Status](cfg EngineConfig[S]) (*Engine[S], error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("transition table is required")
	}

	e := &Engine[S]{
		table:     cfg.Table,
		info:      make(map[S]StatusInfo, len(cfg.Info)),
		stages:    make([]S, 0, len(cfg.Stages)),
		stageIdx:  make(map[S]int, len(cfg.Stages)),
		completed: make(map[S]struct{}, len(cfg.Completed)),
	}

	for s, info := range cfg.Info {
		e.info[s] = info
	}
	for i, s := range cfg.Stages {
		if _, dup := e.stageIdx[s]; dup {
			return nil, fmt.Errorf("duplicate production stage: %s", s)
		}
		e.stages = append(e.stages, s)
		e.stageIdx[s] = i
	}
	for _, s := range cfg.Completed {
		e.completed[s] = struct{}{}
	}

	return e, nil
}

// Table returns the transition table the engine consults
func (e *Engine[S]) Table() *Table[S] {
	return e.table
}

// Statuses returns every status known to the engine's table
func (e *Engine[S]) Statuses() []S {
	return e.table.Statuses()
}

// CanTransition reports whether next is a listed successor of current
func (e *Engine[S]) CanTransition(current, next S) bool {
	return CanTransition(current, next, e.table)
}

// NextStatus returns the default forward status from current
func (e *Engine[S]) NextStatus(current S) (S, bool) {
	return NextStatus(current, e.table)
}

// Successors returns every listed successor of current
func (e *Engine[S]) Successors(current S) []S {
	return e.table.Successors(current)
}

// RequiredEvidence returns the kind of evidence the guard on current -> next reads,
// or EvidenceNone when the transition is unguarded or not listed.
func (e *Engine[S]) RequiredEvidence(current, next S) EvidenceKind {
	edge, ok := e.table.find(current, next)
	if !ok || edge.guard == nil {
		return EvidenceNone
	}
	return edge.guard.Evidence
}

// ValidateTransition checks the transition structurally and then against its guard.
// ev may be nil when the caller has nothing to supply.
func (e *Engine[S]) ValidateTransition(current, next S, ev Evidence) Result {
	edge, ok := e.table.find(current, next)
	if !ok {
		return Result{
			Valid:     false,
			Error:     ErrInvalidTransition.Error(),
			Rejection: RejectionStructural,
		}
	}

	if edge.guard != nil && !edge.guard.allows(ev) {
		return Result{
			Valid:     false,
			Error:     edge.guard.Message,
			Rejection: RejectionGuard,
		}
	}

	return Result{Valid: true}
}

// StatusInfo returns the display label and color token of a status
func (e *Engine[S]) StatusInfo(status S) StatusInfo {
	if info, ok := e.info[status]; ok {
		return info
	}
	return StatusInfo{Label: string(status), Color: unknownColor}
}

// ProductionStage returns the zero-based position of status on the happy path, or -1
func (e *Engine[S]) ProductionStage(status S) int {
	if i, ok := e.stageIdx[status]; ok {
		return i
	}
	return -1
}

// Stages returns the happy-path sequence
func (e *Engine[S]) Stages() []S {
	out := make([]S, len(e.stages))
	copy(out, e.stages)
	return out
}

// IsCompleted reports whether no further production work is expected for status
func (e *Engine[S]) IsCompleted(status S) bool {
	_, ok := e.completed[status]
	return ok
}

// IsTerminal reports whether status is a table key with no outgoing transitions
func (e *Engine[S]) IsTerminal(status S) bool {
	return e.table.Has(status) && len(e.table.edges[status]) == 0
}

// mustEngine is used by the default engine constructors whose configuration is static
func mustEngine[S Status](cfg EngineConfig[S]) *Engine[S] {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}
