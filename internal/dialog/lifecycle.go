// Package dialog implements the console's modal workflows (ban, notify,
// edit/create, filter) as small explicit state machines.
//
// Every dialog moves Closed → Open → Submitting → Closed on success, or back
// to Error (still open, showing the failure) when the submit fails. Closing
// bumps the dialog's generation, so a submit that completes after the dialog
// was closed or reopened no longer touches it.
package dialog

import (
	"fmt"

	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// State is the lifecycle position of a dialog.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closed":
		*s = StateClosed
	case "open":
		*s = StateOpen
	case "submitting":
		*s = StateSubmitting
	case "error":
		*s = StateError
	default:
		return fmt.Errorf("unknown dialog state %q", text)
	}
	return nil
}

// Collecting reports whether the dialog accepts input.
func (s State) Collecting() bool {
	switch s {
	case StateOpen, StateError:
		return true
	case StateClosed, StateSubmitting:
		return false
	default:
		return false
	}
}

// lifecycle is embedded by every dialog and guarded by the dialog's mutex.
type lifecycle struct {
	state      State
	err        *appErrors.Error
	generation uint64
}

func (l *lifecycle) open() {
	l.generation++
	l.state = StateOpen
	l.err = nil
}

func (l *lifecycle) close() {
	l.generation++
	l.state = StateClosed
	l.err = nil
}

// beginSubmit moves to Submitting and returns the generation the result must
// match to take effect.
func (l *lifecycle) beginSubmit() (uint64, error) {
	if !l.state.Collecting() {
		return 0, appErrors.Clone(appErrors.ErrDialogState, "dialog is "+l.state.String())
	}
	l.state = StateSubmitting
	l.err = nil
	return l.generation, nil
}

// finish applies a submit outcome if gen is still current and reports whether it did.
func (l *lifecycle) finish(gen uint64, err error) bool {
	if gen != l.generation || l.state != StateSubmitting {
		return false
	}
	if err != nil {
		l.state = StateError
		l.err = appErrors.FromError(err)
		return true
	}
	l.close()
	return true
}

// fail records a local validation error without a submit round trip.
func (l *lifecycle) fail(err error) {
	l.state = StateError
	l.err = appErrors.FromError(err)
}

func (l *lifecycle) requireCollecting() error {
	if !l.state.Collecting() {
		return appErrors.Clone(appErrors.ErrDialogState, "dialog is "+l.state.String())
	}
	return nil
}
