// Package dashboard implements the two-pane TUI for browsing and editing
// zoo services. The left pane lists services; the right pane shows the
// detail view, the edit or create form, or the delete confirmation.
package dashboard

import (
	"github.com/smileynet/zoodesk/internal/resource"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// Mode represents the current dashboard view mode.
type Mode int

const (
	ModeList    Mode = iota // Browsing the service list.
	ModeDetail              // Detail view of one service.
	ModeForm                // Edit or create form.
	ModeConfirm             // Delete confirmation.
)

// --- tea.Msg types ---

// LoadedMsg carries the outcome of a cache fetch. The data itself is read
// from the cache, which may already hold a newer response.
type LoadedMsg struct {
	Err error
}

// MutationDoneMsg carries the outcome of a create, update or delete.
type MutationDoneMsg struct {
	Op      resource.Op
	ID      string
	Service zoo.Service
	Err     error
}

// RefreshMsg signals that the service list should be reloaded.
// listState emits this on 'r'; Model.Update intercepts it and calls load.
type RefreshMsg struct{}

// noticeExpiredMsg clears the notice it was scheduled for.
type noticeExpiredMsg struct {
	seq int
}
