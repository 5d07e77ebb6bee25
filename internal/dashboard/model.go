package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/zoodesk/internal/dialog"
	"github.com/smileynet/zoodesk/internal/resource"
	"github.com/smileynet/zoodesk/internal/session"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// headerHeight covers the title line and the status line.
const headerHeight = 2

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// Model is the root Bubble Tea model for the dashboard TUI.
// The dialog machine and the cache are shared pointers; everything else
// is copied on each Update.
type Model struct {
	ctx       context.Context
	role      zoo.Role
	cache     *resource.Cache
	coord     *resource.Coordinator
	machine   *dialog.Machine
	durations session.NoticeDurations
	logger    *slog.Logger

	list    listState
	form    formState
	confirm *confirmState

	notice    *session.Notice
	noticeSeq int
	fetching  int

	width   int
	height  int
	spinner spinner.Model
	help    help.Model
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context passed to fetches and mutations.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// NewModel creates a dashboard over the session's cache and coordinator.
// The dashboard drives its own dialog machine through the split
// confirm/settle API so saves never block the update loop.
func NewModel(sess *session.Session, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctx:       context.Background(),
		role:      sess.Role(),
		cache:     sess.Cache(),
		coord:     sess.Coordinator(),
		machine:   dialog.New(sess.Cache()),
		durations: sess.NoticeDurations(),
		logger:    sess.Logger(),
		list:      newListState(),
		fetching:  1, // Init's fetch.
		spinner:   s,
		help:      help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Mode reports which view is active.
func (m Model) Mode() Mode {
	if m.confirm != nil {
		return ModeConfirm
	}
	switch m.machine.State().(type) {
	case dialog.Editing, dialog.Creating:
		return ModeForm
	case dialog.Viewing:
		return ModeDetail
	}
	return ModeList
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LoadedMsg:
		if m.fetching > 0 {
			m.fetching--
		}
		m.list = m.list.apply(m.cache.Current())
		m.closeVanishedView()
		if msg.Err != nil && !errors.Is(msg.Err, resource.ErrClosed) {
			return m.setNotice(m.durations.LoadNotice(msg.Err))
		}
		return m, nil

	case RefreshMsg:
		m.fetching++
		return m, m.load()

	case MutationDoneMsg:
		return m.applyMutation(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink for the open form.
	if m.Mode() == ModeForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.Mode() {
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeForm:
		return m.handleFormKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := ListKeyMap(m.role)
	selected, ok := m.list.Selected()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.View):
		if ok {
			m.machine.BeginView(selected)
		}
		return m, nil
	case key.Matches(msg, keys.Edit):
		if ok {
			return m.beginEdit(selected)
		}
		return m, nil
	case key.Matches(msg, keys.New):
		m.machine.BeginCreate()
		m.form = newForm("New service", zoo.Fields{})
		return m, textinput.Blink
	case key.Matches(msg, keys.Delete):
		if ok {
			m.confirm = &confirmState{id: selected.ID, name: selected.Name}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := DetailKeyMap(m.role)

	switch {
	case key.Matches(msg, keys.Edit):
		if rec, ok := m.machine.Viewed(); ok {
			return m.beginEdit(rec)
		}
	case key.Matches(msg, keys.Close):
		m.machine.EndView()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := FormKeyMap()

	switch {
	case key.Matches(msg, keys.Cancel):
		m.machine.CancelEdit()
		return m, nil
	case key.Matches(msg, keys.Next):
		m.form = m.form.cycle(1)
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.form = m.form.cycle(-1)
		return m, nil
	case key.Matches(msg, keys.Save):
		return m.save()
	}

	if m.saving() {
		return m, nil
	}
	_, before := m.form.focused()
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	field, value := m.form.focused()
	if value == before {
		return m, cmd
	}
	if err := m.machine.EditDraftField(field, value); err != nil {
		m.logger.Warn("draft edit rejected", "field", field, "err", err)
	}
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := ConfirmKeyMap()

	switch {
	case key.Matches(msg, keys.Yes):
		id := m.confirm.id
		m.confirm = nil
		return m, m.remove(id)
	case key.Matches(msg, keys.No):
		m.confirm = nil
	}
	return m, nil
}

func (m Model) beginEdit(rec zoo.Service) (tea.Model, tea.Cmd) {
	m.machine.BeginEdit(rec)
	m.form = newForm("Edit service", rec.Fields())
	return m, textinput.Blink
}

// save confirms the open form and sends the mutation.
func (m Model) save() (tea.Model, tea.Cmd) {
	switch m.machine.State().(type) {
	case dialog.Editing:
		id, fields, err := m.machine.ConfirmEdit()
		if err != nil {
			return m, nil
		}
		coord, ctx := m.coord, m.ctx
		return m, func() tea.Msg {
			updated, err := coord.Update(ctx, id, fields)
			return MutationDoneMsg{Op: resource.OpUpdate, ID: id, Service: updated, Err: err}
		}
	case dialog.Creating:
		fields, err := m.machine.ConfirmCreate()
		if err != nil {
			return m, nil
		}
		coord, ctx := m.coord, m.ctx
		return m, func() tea.Msg {
			created, err := coord.Create(ctx, fields)
			return MutationDoneMsg{Op: resource.OpCreate, ID: created.ID, Service: created, Err: err}
		}
	}
	return m, nil
}

func (m Model) remove(id string) tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		return MutationDoneMsg{Op: resource.OpRemove, ID: id, Err: coord.Remove(ctx, id)}
	}
}

// applyMutation settles the form and shows the outcome notice. The cache
// was already refreshed by the coordinator before the message arrived.
func (m Model) applyMutation(msg MutationDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.Op {
	case resource.OpUpdate:
		m.machine.SettleEdit(msg.ID, msg.Err)
	case resource.OpCreate:
		m.machine.SettleCreate(msg.Err)
	}
	m.list = m.list.apply(m.cache.Current())
	m.closeVanishedView()
	if msg.Err == nil && msg.Op == resource.OpCreate {
		m.list = m.list.focus(msg.Service.ID)
	}
	if msg.Err != nil {
		m.logger.Warn("mutation failed", "op", msg.Op, "id", msg.ID, "err", msg.Err)
	}
	return m.setNotice(m.durations.MutationNotice(msg.Op, msg.Err))
}

// closeVanishedView ends the detail view once its record has left the cache.
func (m Model) closeVanishedView() {
	if _, viewing := m.machine.State().(dialog.Viewing); !viewing {
		return
	}
	if _, ok := m.machine.Viewed(); !ok {
		m.machine.EndView()
	}
}

// setNotice shows n and schedules its expiry. A newer notice replaces an
// older one; the older expiry is then ignored.
func (m Model) setNotice(n session.Notice) (tea.Model, tea.Cmd) {
	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return m, tea.Tick(n.Duration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (m Model) load() tea.Cmd {
	cache, ctx := m.cache, m.ctx
	return func() tea.Msg {
		return LoadedMsg{Err: cache.Load(ctx)}
	}
}

func (m Model) saving() bool {
	switch s := m.machine.State().(type) {
	case dialog.Editing:
		return s.Saving
	case dialog.Creating:
		return s.Saving
	}
	return false
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, header and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight - headerHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the header, the two panes and the help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()
	mode := m.Mode()

	leftStyle, rightStyle := FocusedBorder(), UnfocusedBorder()
	if mode != ModeList {
		leftStyle, rightStyle = UnfocusedBorder(), FocusedBorder()
	}
	leftStyle = leftStyle.Width(leftWidth - borderChrome).Height(contentHeight)
	rightStyle = rightStyle.Width(rightWidth - borderChrome).Height(contentHeight)

	left := m.list.View(leftWidth-borderChrome, contentHeight, m.spinner.View(), m.role.Allows(zoo.ActionCreate))
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(left),
		rightStyle.Render(m.viewRight(rightWidth-borderChrome, contentHeight)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewTitle(),
		m.viewStatus(),
		panes,
		m.help.View(HelpBindings(mode, m.role)),
	)
}

func (m Model) viewTitle() string {
	screen := "Admin"
	if m.role == zoo.RoleEmployee {
		screen = "Employee"
	}
	return titleText.Render("Zoo services") + " " + mutedText.Render(screen)
}

// viewStatus renders the notice if one is showing, else the load status.
func (m Model) viewStatus() string {
	if m.notice != nil {
		line := m.notice.Title
		if m.notice.Detail != "" {
			line += ": " + m.notice.Detail
		}
		return NoticeStyle(m.notice.Level).Render(line)
	}
	switch {
	case m.fetching > 0 && m.list.status != resource.StatusLoading:
		return m.spinner.View() + " Refreshing..."
	case m.list.stale:
		return warnText.Render("Showing last known services; refresh failed")
	case m.list.status == resource.StatusReady:
		return mutedText.Render(pluralize(len(m.list.services), "service", "services"))
	}
	return ""
}

// viewRight renders the right pane content based on mode.
func (m Model) viewRight(width, height int) string {
	switch s := m.machine.State().(type) {
	case dialog.Editing:
		return m.form.View(width, s.Saving, s.Err)
	case dialog.Creating:
		return m.form.View(width, s.Saving, s.Err)
	case dialog.Viewing:
		rec, ok := m.machine.Viewed()
		if !ok {
			return mutedText.Render("This service no longer exists")
		}
		return viewDetail(rec)
	}
	if m.confirm != nil {
		return m.confirm.View(width, height)
	}
	if rec, ok := m.list.Selected(); ok {
		return viewDetail(rec)
	}
	return mutedText.Render("Select a service")
}
