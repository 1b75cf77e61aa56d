// Package roster holds the session's authoritative list of students.
//
// State changes go through Reduce, a pure function over State and Action.
// Store serialises dispatches so there is exactly one writer per session.
package roster

import (
	"sync"

	"github.com/noah-isme/library-console/internal/models"
)

// ActionKind enumerates roster transitions.
type ActionKind int

const (
	// ActionLoaded replaces the whole roster with a fresh listing.
	ActionLoaded ActionKind = iota
	// ActionUpserted replaces the entry with the same ID, appending if absent.
	ActionUpserted
	// ActionAppended adds a newly created student.
	ActionAppended
	// ActionSelected marks a student as the one being viewed.
	ActionSelected
	// ActionDeselected clears the viewed student.
	ActionDeselected
)

// Action is one transition request. Ticket orders mutations on the same record.
type Action struct {
	Kind     ActionKind
	Students []models.Student
	Student  models.Student
	Ticket   uint64
}

// Loaded builds a full-roster replacement action.
func Loaded(students []models.Student) Action {
	return Action{Kind: ActionLoaded, Students: students}
}

// Upserted builds an identifier-keyed replacement action.
func Upserted(student models.Student, ticket uint64) Action {
	return Action{Kind: ActionUpserted, Student: student, Ticket: ticket}
}

// Appended builds an append action for a server-created student.
func Appended(student models.Student) Action {
	return Action{Kind: ActionAppended, Student: student}
}

// Selected builds a selection action.
func Selected(student models.Student) Action {
	return Action{Kind: ActionSelected, Student: student}
}

// Deselected builds a selection-clearing action.
func Deselected() Action {
	return Action{Kind: ActionDeselected}
}

// State is an immutable roster snapshot.
type State struct {
	Students []models.Student
	Selected *models.Student
	Loaded   bool
	Version  uint64

	// applied holds the newest ticket reconciled per student ID.
	applied map[string]uint64
}

// Find returns the student with the given ID.
func (s State) Find(id string) (models.Student, bool) {
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return models.Student{}, false
}

// Reduce applies action to state and returns the next state along with
// whether anything changed. The input state is never modified.
func Reduce(state State, action Action) (State, bool) {
	switch action.Kind {
	case ActionLoaded:
		next := State{
			Students: append([]models.Student(nil), action.Students...),
			Loaded:   true,
			Version:  state.Version + 1,
			applied:  state.applied,
		}
		if state.Selected != nil {
			if st, ok := next.Find(state.Selected.ID); ok {
				next.Selected = &st
			}
		}
		return next, true
	case ActionUpserted:
		id := action.Student.ID
		if action.Ticket != 0 && action.Ticket < state.applied[id] {
			return state, false
		}
		next := state
		next.Students = make([]models.Student, 0, len(state.Students)+1)
		replaced := false
		for _, st := range state.Students {
			if st.ID == id {
				next.Students = append(next.Students, action.Student)
				replaced = true
				continue
			}
			next.Students = append(next.Students, st)
		}
		if !replaced {
			next.Students = append(next.Students, action.Student)
		}
		if state.Selected != nil && state.Selected.ID == id {
			st := action.Student
			next.Selected = &st
		}
		next.applied = copyTickets(state.applied)
		if action.Ticket > next.applied[id] {
			next.applied[id] = action.Ticket
		}
		next.Version++
		return next, true
	case ActionAppended:
		next := state
		next.Students = append(append(make([]models.Student, 0, len(state.Students)+1), state.Students...), action.Student)
		next.Version++
		return next, true
	case ActionSelected:
		next := state
		st := action.Student
		next.Selected = &st
		next.Version++
		return next, true
	case ActionDeselected:
		if state.Selected == nil {
			return state, false
		}
		next := state
		next.Selected = nil
		next.Version++
		return next, true
	default:
		return state, false
	}
}

func copyTickets(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Store owns one roster State and serialises its transitions.
type Store struct {
	mu     sync.RWMutex
	state  State
	ticket uint64
}

// NewStore returns an empty, unloaded store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current state. Callers must treat it as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Students returns a copy of the current roster.
func (s *Store) Students() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Student(nil), s.state.Students...)
}

// Issue hands out a ticket for a mutation about to be sent. Later tickets win
// reconciliation over earlier ones for the same record.
func (s *Store) Issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket++
	return s.ticket
}

// Dispatch applies action and reports whether the state changed.
func (s *Store) Dispatch(action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := Reduce(s.state, action)
	s.state = next
	return changed
}
