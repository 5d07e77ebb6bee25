package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/zoodesk/internal/resource"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// CursorMarker is the prefix shown on the selected service row.
const CursorMarker = "▸ "

// listState holds the rendered copy of the cache and the cursor for the
// left pane.
type listState struct {
	services []zoo.Service
	cursor   int
	status   resource.Status
	err      error
	stale    bool
}

// newListState returns a listState in the loading state.
func newListState() listState {
	return listState{status: resource.StatusLoading}
}

// apply replaces the list with snap, keeping the cursor on the same
// service when it is still present.
func (ls listState) apply(snap resource.Snapshot) listState {
	selected := ls.SelectedID()

	ls.services = snap.Services
	ls.status = snap.Status
	ls.err = snap.Err
	ls.stale = snap.Stale

	ls.cursor = min(ls.cursor, max(len(ls.services)-1, 0))
	for i, s := range ls.services {
		if s.ID == selected {
			ls.cursor = i
			break
		}
	}
	return ls
}

// focus moves the cursor to id if it is listed.
func (ls listState) focus(id string) listState {
	for i, s := range ls.services {
		if s.ID == id {
			ls.cursor = i
			break
		}
	}
	return ls
}

// Update processes key messages for the list pane.
func (ls listState) Update(msg tea.Msg) (listState, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return ls, nil
	}

	switch km.String() {
	case "up", "k":
		if len(ls.services) > 0 {
			ls.cursor--
			if ls.cursor < 0 {
				ls.cursor = len(ls.services) - 1
			}
		}
	case "down", "j":
		if len(ls.services) > 0 {
			ls.cursor++
			if ls.cursor >= len(ls.services) {
				ls.cursor = 0
			}
		}
	case "r":
		return ls, func() tea.Msg { return RefreshMsg{} }
	}
	return ls, nil
}

// Selected returns the service at the cursor.
func (ls listState) Selected() (zoo.Service, bool) {
	if ls.cursor < 0 || ls.cursor >= len(ls.services) {
		return zoo.Service{}, false
	}
	return ls.services[ls.cursor], true
}

// SelectedID returns the service ID at the cursor, or "" if the list is empty.
func (ls listState) SelectedID() string {
	s, _ := ls.Selected()
	return s.ID
}

// View renders the list pane. spinnerView is the current spinner frame.
func (ls listState) View(width, height int, spinnerView string, canCreate bool) string {
	if ls.status == resource.StatusLoading {
		return fmt.Sprintf("%s Loading services...", spinnerView)
	}
	if ls.status == resource.StatusError && len(ls.services) == 0 {
		return fmt.Sprintf("Error: %s\n\nPress r to retry", ls.err)
	}
	if len(ls.services) == 0 {
		if canCreate {
			return "No services yet. Press n to add one"
		}
		return "No services yet"
	}

	// Keep the cursor visible when the list is taller than the pane.
	start := 0
	if height > 0 && ls.cursor >= height {
		start = ls.cursor - height + 1
	}
	end := len(ls.services)
	if height > 0 && end > start+height {
		end = start + height
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		name := truncate(ls.services[i].Name, width-len([]rune(CursorMarker)))
		if i == ls.cursor {
			b.WriteString(CursorMarker)
			b.WriteString(selectedText.Render(name))
		} else {
			b.WriteString("  ")
			b.WriteString(name)
		}
	}
	return b.String()
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// truncate shortens s to at most width runes, marking the cut with "…".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
