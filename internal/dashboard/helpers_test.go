package dashboard

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/zoodesk/internal/session"
	"github.com/smileynet/zoodesk/internal/store"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				// Skip spinner ticks to avoid recursion.
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// runCmd executes cmd and feeds every resulting message of type T back
// into the model. Other messages (blinks, notice ticks) are dropped.
func runCmd[T tea.Msg](t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range execBatch(t, cmd) {
		if _, ok := msg.(T); ok {
			m = update(t, m, msg)
		}
	}
	return m
}

// update sends msg to the model and returns the concrete result.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and returns the model and command.
func press(m Model, k string) (Model, tea.Cmd) {
	next, cmd := m.Update(keyMsg(k))
	return next.(Model), cmd
}

// keyMsg builds a tea.KeyMsg for a named key or a run of runes.
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// sampleServices is the collection most tests start from.
func sampleServices() []zoo.Service {
	return []zoo.Service{
		{ID: "1", Name: "Feeding Tour", Description: "Daily 3pm"},
		{ID: "2", Name: "Night Walk", Description: "Fridays"},
		{ID: "3", Name: "Penguin Parade"},
	}
}

// flakyRepo wraps a repository and fails selected operations on demand.
type flakyRepo struct {
	zoo.Repository
	listErr   error
	updateErr error
}

func (r *flakyRepo) List(ctx context.Context) ([]zoo.Service, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Repository.List(ctx)
}

func (r *flakyRepo) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	if r.updateErr != nil {
		return zoo.Service{}, r.updateErr
	}
	return r.Repository.Update(ctx, id, f)
}

// newLoadedModel returns a sized dashboard for role whose first fetch has
// been applied.
func newLoadedModel(t *testing.T, role zoo.Role, repo zoo.Repository) Model {
	t.Helper()
	sess := session.New(repo, session.WithRole(role))
	t.Cleanup(sess.Close)

	m := NewModel(sess)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = runCmd[LoadedMsg](t, m, m.Init())
	return m
}

func seededRepo() *flakyRepo {
	return &flakyRepo{Repository: store.NewMemory(store.WithServices(sampleServices()...))}
}
