// Package dialog tracks which service is selected and which dialog is open.
//
// The dialog slot holds exactly one State at a time. Opening a dialog
// replaces whatever was open before, so an edit form and a detail view can
// never be open for different records at once. Drafts live only here and
// are never written to the cache; the cache changes only after the
// coordinator's refresh.
package dialog

import (
	"errors"
	"fmt"

	"github.com/smileynet/zoodesk/internal/zoo"
)

var (
	// ErrNoDraft is returned when a draft operation runs with no form open.
	ErrNoDraft = errors.New("dialog: no edit in progress")
	// ErrUnknownField is returned for draft keys other than name and description.
	ErrUnknownField = errors.New("dialog: unknown field")
	// ErrSaving is returned when a form is confirmed while its save is in flight.
	ErrSaving = errors.New("dialog: save already in progress")
)

// State is one of Closed, Editing, Creating or Viewing.
type State interface {
	isState()
}

// Closed means no dialog is open.
type Closed struct{}

// Editing is the edit form for an existing record.
type Editing struct {
	ID     string
	Draft  zoo.Fields
	Saving bool  // An update request is in flight.
	Err    error // Outcome of the last failed save.
}

// Creating is the form for a new record.
type Creating struct {
	Draft  zoo.Fields
	Saving bool
	Err    error
}

// Viewing is the read-only detail view of a record.
type Viewing struct {
	ID string
}

func (Closed) isState()   {}
func (Editing) isState()  {}
func (Creating) isState() {}
func (Viewing) isState()  {}

// Resolver looks up the current version of a record.
type Resolver interface {
	Get(id string) (zoo.Service, bool)
}

// Machine is the selection and dialog state machine. It is not safe for
// concurrent use; confine it to the UI update loop or guard it externally.
type Machine struct {
	state    State
	resolver Resolver
}

// New returns a Machine in the Closed state. resolver is consulted by
// Viewed so the detail view follows cache refreshes.
func New(resolver Resolver) *Machine {
	return &Machine{state: Closed{}, resolver: resolver}
}

// State returns the current dialog state.
func (m *Machine) State() State {
	return m.state
}

// BeginEdit selects rec and opens the edit form seeded with a copy of it.
func (m *Machine) BeginEdit(rec zoo.Service) {
	m.state = Editing{ID: rec.ID, Draft: rec.Fields()}
}

// BeginCreate opens an empty form for a new record.
func (m *Machine) BeginCreate() {
	m.state = Creating{}
}

// Draft returns the open draft, if any.
func (m *Machine) Draft() (zoo.Fields, bool) {
	switch s := m.state.(type) {
	case Editing:
		return s.Draft, true
	case Creating:
		return s.Draft, true
	}
	return zoo.Fields{}, false
}

// EditDraftField sets one draft field. Only the draft changes.
func (m *Machine) EditDraftField(key, value string) error {
	switch s := m.state.(type) {
	case Editing:
		if !s.Draft.Set(key, value) {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		m.state = s
	case Creating:
		if !s.Draft.Set(key, value) {
			return fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		m.state = s
	default:
		return ErrNoDraft
	}
	return nil
}

// ConfirmEdit marks the edit form as saving and returns the update to send.
// Report the outcome with SettleEdit.
func (m *Machine) ConfirmEdit() (string, zoo.Fields, error) {
	s, ok := m.state.(Editing)
	if !ok {
		return "", zoo.Fields{}, ErrNoDraft
	}
	if s.Saving {
		return "", zoo.Fields{}, ErrSaving
	}
	s.Saving = true
	s.Err = nil
	m.state = s
	return s.ID, s.Draft, nil
}

// SettleEdit applies the outcome of an update for id. Success closes the
// form; failure keeps it open with the draft intact. Outcomes for a form
// that is no longer open are ignored.
func (m *Machine) SettleEdit(id string, err error) {
	s, ok := m.state.(Editing)
	if !ok || s.ID != id || !s.Saving {
		return
	}
	if err == nil {
		m.state = Closed{}
		return
	}
	s.Saving = false
	s.Err = err
	m.state = s
}

// ConfirmCreate marks the create form as saving and returns the fields to send.
// Report the outcome with SettleCreate.
func (m *Machine) ConfirmCreate() (zoo.Fields, error) {
	s, ok := m.state.(Creating)
	if !ok {
		return zoo.Fields{}, ErrNoDraft
	}
	if s.Saving {
		return zoo.Fields{}, ErrSaving
	}
	s.Saving = true
	s.Err = nil
	m.state = s
	return s.Draft, nil
}

// SettleCreate applies the outcome of a create, like SettleEdit.
func (m *Machine) SettleCreate(err error) {
	s, ok := m.state.(Creating)
	if !ok || !s.Saving {
		return
	}
	if err == nil {
		m.state = Closed{}
		return
	}
	s.Saving = false
	s.Err = err
	m.state = s
}

// CancelEdit discards any open draft and closes the form.
func (m *Machine) CancelEdit() {
	switch m.state.(type) {
	case Editing, Creating:
		m.state = Closed{}
	}
}

// BeginView selects rec and opens its detail view.
func (m *Machine) BeginView(rec zoo.Service) {
	m.state = Viewing{ID: rec.ID}
}

// EndView closes the detail view.
func (m *Machine) EndView() {
	if _, ok := m.state.(Viewing); ok {
		m.state = Closed{}
	}
}

// Viewed re-resolves the record shown in the detail view. It reports false
// when no detail view is open or the record is no longer known.
func (m *Machine) Viewed() (zoo.Service, bool) {
	s, ok := m.state.(Viewing)
	if !ok || m.resolver == nil {
		return zoo.Service{}, false
	}
	return m.resolver.Get(s.ID)
}

// SelectedID returns the record the open dialog refers to, or "".
func (m *Machine) SelectedID() string {
	switch s := m.state.(type) {
	case Editing:
		return s.ID
	case Viewing:
		return s.ID
	}
	return ""
}
