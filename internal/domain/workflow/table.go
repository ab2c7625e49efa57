package workflow

import (
	"fmt"
	"slices"
)

// Status is the constraint satisfied by every status enumeration
type Status interface {
	~string
	Valid() bool
}

// edge is a single listed transition with its optional guard
type edge[S Status] struct {
	to    S
	guard *Guard
}

// Table is an immutable transition table. Successor order is significant:
// the first successor is the default next status.
type Table[S Status] struct {
	order []S
	edges map[S][]edge[S]
}

// TableBuilder collects state configurations and produces a Table
type TableBuilder[S Status] struct {
	order   []S
	configs map[S]*StateConfiguration[S]
}

// StateConfiguration configures the outgoing transitions of one status
type StateConfiguration[S Status] struct {
	from  S
	edges []edge[S]
}

// NewTableBuilder creates a new transition table builder
func NewTableBuilder[S Status]() *TableBuilder[S] {
	return &TableBuilder[S]{
		configs: make(map[S]*StateConfiguration[S]),
	}
}

// Configure returns the configuration for the given status, registering it as a key.
// A status configured without any Permit call is terminal.
func (b *TableBuilder[S]) Configure(state S) *StateConfiguration[S] {
	if !state.Valid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configs[state]
	if !exists {
		config = &StateConfiguration[S]{from: state}
		b.configs[state] = config
		b.order = append(b.order, state)
	}

	return config
}

// Build creates an immutable table from the current configuration.
// Later builder calls do not affect tables already built.
func (b *TableBuilder[S]) Build() *Table[S] {
	table := &Table[S]{
		order: slices.Clone(b.order),
		edges: make(map[S][]edge[S], len(b.configs)),
	}

	for state, config := range b.configs {
		edges := make([]edge[S], len(config.edges))
		for i, e := range config.edges {
			edges[i] = edge[S]{to: e.to}
			if e.guard != nil {
				g := *e.guard
				edges[i].guard = &g
			}
		}
		table.edges[state] = edges
	}

	return table
}

// Permit lists toState as a successor
func (c *StateConfiguration[S]) Permit(toState S) *StateConfiguration[S] {
	return c.permit(toState, nil)
}

// PermitIf lists toState as a successor guarded by a business precondition
func (c *StateConfiguration[S]) PermitIf(toState S, guard Guard) *StateConfiguration[S] {
	if guard.Check == nil {
		panic(fmt.Sprintf("guard for %s -> %s has no check", c.from, toState))
	}
	return c.permit(toState, &guard)
}

func (c *StateConfiguration[S]) permit(toState S, guard *Guard) *StateConfiguration[S] {
	if !toState.Valid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if toState == c.from {
		panic(fmt.Sprintf("self transition on %s", toState))
	}
	for _, e := range c.edges {
		if e.to == toState {
			panic(fmt.Sprintf("duplicate transition %s -> %s", c.from, toState))
		}
	}

	c.edges = append(c.edges, edge[S]{to: toState, guard: guard})
	return c
}

// Has reports whether the status is a key of the table
func (t *Table[S]) Has(state S) bool {
	if t == nil {
		return false
	}
	_, ok := t.edges[state]
	return ok
}

// Statuses returns the table keys in configuration order
func (t *Table[S]) Statuses() []S {
	if t == nil {
		return nil
	}
	return slices.Clone(t.order)
}

// Successors returns the ordered successors of a status, or nil for an unknown key
func (t *Table[S]) Successors(state S) []S {
	if t == nil {
		return nil
	}
	edges, ok := t.edges[state]
	if !ok {
		return nil
	}

	out := make([]S, len(edges))
	for i, e := range edges {
		out[i] = e.to
	}
	return out
}

// Missing returns the statuses of all that are not keys of the table
func (t *Table[S]) Missing(all []S) []S {
	var missing []S
	for _, s := range all {
		if !t.Has(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Complete reports an error naming any status of all that has no table entry
func (t *Table[S]) Complete(all []S) error {
	if missing := t.Missing(all); len(missing) > 0 {
		return fmt.Errorf("%w: transition table has no entry for %v", ErrInvalidStatus, missing)
	}
	return nil
}

// find returns the listed edge from -> to
func (t *Table[S]) find(from, to S) (edge[S], bool) {
	if t == nil {
		return edge[S]{}, false
	}
	for _, e := range t.edges[from] {
		if e.to == to {
			return e, true
		}
	}
	return edge[S]{}, false
}

// CanTransition reports whether next is a listed successor of current.
// An unrecognized current status yields false.
func CanTransition[S Status](current, next S, table *Table[S]) bool {
	_, ok := table.find(current, next)
	return ok
}

// NextStatus returns the default (first) successor of current.
// The boolean is false when current is unknown or terminal.
func NextStatus[S Status](current S, table *Table[S]) (S, bool) {
	var zero S
	if table == nil {
		return zero, false
	}
	edges := table.edges[current]
	if len(edges) == 0 {
		return zero, false
	}
	return edges[0].to, true
}
