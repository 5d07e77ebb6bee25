package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/zoodesk/internal/config"
	"github.com/smileynet/zoodesk/internal/dashboard"
	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/session"
	"github.com/smileynet/zoodesk/internal/zoo"
	"github.com/smileynet/zoodesk/internal/zooapi"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Extra config file, applied after the user and project files." type:"path" short:"c"`
	APIURL string `name:"api-url" help:"Services API base URL."`
	Role   string `help:"Acting role: admin or employee."`
}

// CLI is the top-level command structure for zoodesk.
type CLI struct {
	Globals

	Version   kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard DashboardCmd     `cmd:"" help:"Open the interactive services dashboard."`
	List      ListCmd          `cmd:"" help:"List services."`
	View      ViewCmd          `cmd:"" help:"Show one service."`
	Create    CreateCmd        `cmd:"" help:"Create a service."`
	Update    UpdateCmd        `cmd:"" help:"Update a service."`
	Delete    DeleteCmd        `cmd:"" help:"Delete a service."`
	Serve     ServeCmd         `cmd:"" help:"Serve the services API."`
}

// load reads layered config, applies env and flag overrides, runs each
// extra override, then validates.
func (g *Globals) load(overrides ...func(*config.Config)) (*config.Config, error) {
	paths := config.DefaultPaths()
	if g.Config != "" {
		paths = append(paths, g.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.APIURL != "" {
		cfg.API.BaseURL = g.APIURL
	}
	if g.Role != "" {
		cfg.UI.Role = g.Role
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSession wires a session to the services API described by cfg.
func newSession(cfg *config.Config, logger *slog.Logger, opts ...session.Option) *session.Session {
	client := zooapi.New(cfg.API.BaseURL,
		zooapi.WithTimeout(cfg.API.Timeout),
		zooapi.WithToken(cfg.API.Token),
	)
	opts = append([]session.Option{
		session.WithRole(cfg.Role()),
		session.WithNoticeDurations(session.NoticeDurations{
			Success: cfg.UI.NoticeSuccess,
			Error:   cfg.UI.NoticeError,
		}),
		session.WithLogger(logger),
	}, opts...)
	return session.New(client, opts...)
}

// printNotices returns a notifier that writes success notices to w.
// Failures surface through the returned error instead.
func printNotices(w io.Writer) session.Option {
	return session.WithNotifier(func(n session.Notice) {
		if n.Level == session.LevelSuccess {
			_, _ = fmt.Fprintf(w, "%s: %s\n", n.Title, n.Detail)
		}
	})
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// --- Dashboard command ---

// DashboardCmd opens the interactive dashboard TUI.
type DashboardCmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the dashboard TUI.
func (d *DashboardCmd) Run(g *Globals) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}

	cfg, err := g.load()
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logger, f, err := logging.OpenFile(cfg.Log.File, cfg.LogOptions(nil))
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	defer f.Close()

	sess := newSession(cfg, logger)
	defer sess.Close()

	logger.Info("dashboard starting", "api", cfg.API.BaseURL, "role", cfg.Role())
	prog := tea.NewProgram(dashboard.NewModel(sess), tea.WithAltScreen())
	return d.run(true, prog)
}

// run executes the tea program, enabling testable wiring.
func (d *DashboardCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return fmt.Errorf("dashboard: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// Exit codes.
const (
	exitSuccess  = 0
	exitRejected = 1
	exitSetup    = 2
)

// exitCode maps an error to the appropriate exit code. Requests the
// service or role refused exit 1; transport and setup failures exit 2.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, zoo.ErrValidation) || errors.Is(err, zoo.ErrNotFound) || errors.Is(err, zoo.ErrForbidden) {
		return exitRejected
	}
	return exitSetup
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("zoodesk"),
		kong.Description("Manage zoo services from the terminal."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
