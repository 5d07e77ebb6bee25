package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/session"
	"github.com/smileynet/zoodesk/internal/zoo"
)

// openSession loads config and opens a session that prints success notices
// to stdout and logs to stderr.
func openSession(g *Globals) (*session.Session, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogOptions(os.Stderr))
	return newSession(cfg, logger, printNotices(os.Stdout)), nil
}

// --- List command ---

// ListCmd prints the collection.
type ListCmd struct {
	JSON bool `help:"Print JSON instead of a table."`
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	sess, err := openSession(g)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	defer sess.Close()
	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, os.Stdout, sess)
}

func (c *ListCmd) run(ctx context.Context, w io.Writer, sess *session.Session) error {
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	services := sess.Snapshot().Services
	if services == nil {
		services = []zoo.Service{}
	}

	if c.JSON {
		return writeJSON(w, services)
	}
	if len(services) == 0 {
		_, err := fmt.Fprintln(w, "No services.")
		return err
	}

	rows := make([][]string, len(services))
	for i, s := range services {
		rows[i] = []string{s.ID, s.Name, s.Description}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// --- View command ---

// ViewCmd prints one record.
type ViewCmd struct {
	ID   string `arg:"" help:"Service ID."`
	JSON bool   `help:"Print JSON."`
}

// Run executes the view command.
func (c *ViewCmd) Run(g *Globals) error {
	sess, err := openSession(g)
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}
	defer sess.Close()
	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, os.Stdout, sess)
}

func (c *ViewCmd) run(ctx context.Context, w io.Writer, sess *session.Session) error {
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	if err := sess.BeginView(c.ID); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	defer sess.EndView()

	s, ok := sess.Viewed()
	if !ok {
		return fmt.Errorf("view: service %q: %w", c.ID, zoo.ErrNotFound)
	}
	if c.JSON {
		return writeJSON(w, s)
	}
	desc := s.Description
	if desc == "" {
		desc = "-"
	}
	_, err := fmt.Fprintf(w, "ID:          %s\nName:        %s\nDescription: %s\n", s.ID, s.Name, desc)
	return err
}

// --- Create command ---

// CreateCmd adds a record. With no --name on a terminal it prompts.
type CreateCmd struct {
	Name        string `help:"Service name."`
	Description string `help:"Service description."`
}

// Run executes the create command.
func (c *CreateCmd) Run(g *Globals) error {
	sess, err := openSession(g)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer sess.Close()
	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, os.Stdout, sess, huhPrompter{}, isTerminal(os.Stdin))
}

func (c *CreateCmd) run(ctx context.Context, w io.Writer, sess *session.Session, p prompter, interactive bool) error {
	if err := sess.BeginCreate(); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer sess.CancelEdit()

	fields := zoo.Fields{Name: c.Name, Description: c.Description}
	if fields.Name == "" && interactive {
		if err := p.CreateFields(&fields); err != nil {
			return fmt.Errorf("create: %w", err)
		}
	}
	if err := editDraft(sess, fields.Name, fields.Description); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	created, err := sess.ConfirmCreate(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", created.ID, created.Name)
	return err
}

// --- Update command ---

// UpdateCmd changes fields of an existing record. Omitted flags keep
// their current value.
type UpdateCmd struct {
	ID          string  `arg:"" help:"Service ID."`
	Name        *string `help:"New name."`
	Description *string `help:"New description."`
}

// errNothingToUpdate is returned when no field flag is given.
var errNothingToUpdate = errors.New("nothing to change; pass --name or --description")

// Run executes the update command.
func (c *UpdateCmd) Run(g *Globals) error {
	sess, err := openSession(g)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	defer sess.Close()
	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, sess)
}

func (c *UpdateCmd) run(ctx context.Context, sess *session.Session) error {
	if c.Name == nil && c.Description == nil {
		return fmt.Errorf("update: %w", errNothingToUpdate)
	}
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := sess.BeginEdit(c.ID); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	defer sess.CancelEdit()

	if c.Name != nil {
		if err := sess.EditDraftField(zoo.FieldName, *c.Name); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	if c.Description != nil {
		if err := sess.EditDraftField(zoo.FieldDescription, *c.Description); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	return sess.ConfirmEdit(ctx)
}

// --- Delete command ---

// DeleteCmd removes a record after confirmation.
type DeleteCmd struct {
	ID  string `arg:"" help:"Service ID."`
	Yes bool   `help:"Skip the confirmation prompt." short:"y"`
}

// errNeedsConfirmation is returned when deletion cannot be confirmed.
var errNeedsConfirmation = errors.New("refusing to delete without confirmation; pass --yes")

// Run executes the delete command.
func (c *DeleteCmd) Run(g *Globals) error {
	sess, err := openSession(g)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer sess.Close()
	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, os.Stdout, sess, huhPrompter{}, isTerminal(os.Stdin))
}

func (c *DeleteCmd) run(ctx context.Context, w io.Writer, sess *session.Session, p prompter, interactive bool) error {
	if err := sess.Role().Check(zoo.ActionDelete); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	s, ok := sess.Cache().Get(c.ID)
	if !ok {
		return fmt.Errorf("delete: service %q: %w", c.ID, zoo.ErrNotFound)
	}

	if !c.Yes {
		if !interactive {
			return fmt.Errorf("delete: %w", errNeedsConfirmation)
		}
		confirmed, err := p.ConfirmDelete(s)
		if err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		if !confirmed {
			_, err := fmt.Fprintln(w, "Cancelled.")
			return err
		}
	}
	return sess.Remove(ctx, c.ID)
}

// editDraft writes both fields into the open draft.
func editDraft(sess *session.Session, name, description string) error {
	if err := sess.EditDraftField(zoo.FieldName, name); err != nil {
		return err
	}
	return sess.EditDraftField(zoo.FieldDescription, description)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Prompts ---

// prompter abstracts interactive prompts for testing.
type prompter interface {
	CreateFields(f *zoo.Fields) error
	ConfirmDelete(s zoo.Service) (bool, error)
}

// huhPrompter prompts on the terminal with huh forms.
type huhPrompter struct{}

func (huhPrompter) CreateFields(f *zoo.Fields) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Service name").
				Placeholder("Feeding Tour").
				Value(&f.Name).
				Validate(func(s string) error {
					return zoo.Fields{Name: s}.Validate()
				}),
			huh.NewText().
				Title("Description").
				Value(&f.Description),
		),
	)
	return form.Run()
}

func (huhPrompter) ConfirmDelete(s zoo.Service) (bool, error) {
	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", s.Name)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&confirmed),
		),
	).Run()
	return confirmed, err
}
