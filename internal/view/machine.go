// Package view models the dashboard as an explicit finite state machine.
// Rendering is left to callers; the machine only tracks the current view,
// runs entry actions, and holds the single current error and busy flag.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// State is one dashboard view.
type State string

// View states.
const (
	Total       State = "total"
	AllListings State = "all"
	Candidates  State = "candidates"
	Queue       State = "queue"
	History     State = "history"
)

// Event requests a view change.
type Event string

// View events.
const (
	ShowAll        Event = "show_all"
	ShowCandidates Event = "show_candidates"
	ShowQueue      Event = "show_queue"
	ShowHistory    Event = "show_history"
	Back           Event = "back"
	Refresh        Event = "refresh"
)

var (
	// ErrInvalidTransition is returned when an event is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid view transition")
	// ErrBusy is returned when an event fires while an entry action runs.
	ErrBusy = errors.New("view is busy")
)

// transitions is the complete transition table. Refresh re-enters the
// current state and is handled separately.
var transitions = map[State]map[Event]State{
	Total: {
		ShowAll:        AllListings,
		ShowCandidates: Candidates,
		ShowQueue:      Queue,
		ShowHistory:    History,
	},
	AllListings: {
		ShowCandidates: Candidates,
		ShowQueue:      Queue,
		ShowHistory:    History,
		Back:           Total,
	},
	Candidates: {
		ShowAll:     AllListings,
		ShowQueue:   Queue,
		ShowHistory: History,
		Back:        Total,
	},
	Queue: {
		ShowAll:        AllListings,
		ShowCandidates: Candidates,
		ShowHistory:    History,
		Back:           Total,
	},
	History: {
		ShowQueue: Queue,
		Back:      Total,
	},
}

// States lists every view state.
func States() []State {
	return []State{Total, AllListings, Candidates, Queue, History}
}

// ParseState resolves a state name.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range States() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", name)
}

// EntryAction loads the data a state displays.
type EntryAction func(ctx context.Context) error

// Machine is the view state machine. It is safe for concurrent use.
type Machine struct {
	actions map[State]EntryAction
	err     error
	state   State
	busy    bool
	mu      sync.Mutex
}

// New creates a machine in the Total state.
func New() *Machine {
	return &Machine{
		state:   Total,
		actions: make(map[State]EntryAction),
	}
}

// OnEnter registers the entry action for s, replacing any previous one.
func (m *Machine) OnEnter(s State, action EntryAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[s] = action
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the current error, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ClearErr dismisses the current error.
func (m *Machine) ClearErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
}

// Busy reports whether an entry action is running.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Allowed returns the events accepted in the current state.
func (m *Machine) Allowed() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := []Event{Refresh}
	for _, e := range []Event{ShowAll, ShowCandidates, ShowQueue, ShowHistory, Back} {
		if _, ok := transitions[m.state][e]; ok {
			events = append(events, e)
		}
	}
	return events
}

// Fire applies e. The machine moves to the target state and runs its entry
// action. A failing action leaves the machine in the target state with the
// failure as the current error; a successful one clears the error.
func (m *Machine) Fire(ctx context.Context, e Event) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}

	next, err := m.next(e)
	if err != nil {
		m.err = err
		m.mu.Unlock()
		return err
	}

	m.state = next
	m.busy = true
	action := m.actions[next]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
	}()

	var actionErr error
	if action != nil {
		actionErr = action(ctx)
	}

	m.mu.Lock()
	m.err = actionErr
	m.mu.Unlock()

	return actionErr
}

// Navigate moves to target from the current state, passing through Total
// when there is no direct transition.
func (m *Machine) Navigate(ctx context.Context, target State) error {
	if m.State() == target {
		return m.Fire(ctx, Refresh)
	}
	if e, ok := eventFor(m.State(), target); ok {
		return m.Fire(ctx, e)
	}
	if err := m.Fire(ctx, Back); err != nil {
		return err
	}
	if target == Total {
		return nil
	}
	e, _ := eventFor(Total, target)
	return m.Fire(ctx, e)
}

func (m *Machine) next(e Event) (State, error) {
	if e == Refresh {
		return m.state, nil
	}
	next, ok := transitions[m.state][e]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, e, m.state)
	}
	return next, nil
}

func eventFor(from, to State) (Event, bool) {
	for e, s := range transitions[from] {
		if s == to {
			return e, true
		}
	}
	return "", false
}
