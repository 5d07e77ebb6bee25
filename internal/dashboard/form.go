package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// formFields lists the draft keys in tab order.
var formFields = [2]string{zoo.FieldName, zoo.FieldDescription}

var formLabels = [2]string{"Name", "Description"}

// descriptionHeight is the visible line count of the description box.
const descriptionHeight = 3

// formState holds the inputs for the edit and create forms. The dialog
// machine owns the draft; keystrokes that change an input are written back
// to it. Neither input limits length, so a seeded draft is never cut.
type formState struct {
	title string
	name  textinput.Model
	desc  textarea.Model
	focus int
}

// newForm returns a form seeded with draft, focused on the name field.
func newForm(title string, draft zoo.Fields) formState {
	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Feeding Tour"
	name.SetValue(draft.Name)
	name.Focus()

	desc := textarea.New()
	desc.Prompt = ""
	desc.Placeholder = "Optional"
	desc.ShowLineNumbers = false
	desc.CharLimit = 0
	desc.MaxHeight = 0
	desc.SetHeight(descriptionHeight)
	desc.SetValue(draft.Description)
	desc.Blur()

	return formState{title: title, name: name, desc: desc}
}

// cycle moves focus by delta fields, wrapping around.
func (fs formState) cycle(delta int) formState {
	fs.focus = (fs.focus + delta + len(formFields)) % len(formFields)
	if fs.focus == 0 {
		fs.desc.Blur()
		fs.name.Focus()
	} else {
		fs.name.Blur()
		fs.desc.Focus()
	}
	return fs
}

// Update forwards msg to the focused input.
func (fs formState) Update(msg tea.Msg) (formState, tea.Cmd) {
	var cmd tea.Cmd
	if fs.focus == 0 {
		fs.name, cmd = fs.name.Update(msg)
	} else {
		fs.desc, cmd = fs.desc.Update(msg)
	}
	return fs, cmd
}

// focused returns the draft key and value of the focused input.
func (fs formState) focused() (string, string) {
	if fs.focus == 0 {
		return formFields[0], fs.name.Value()
	}
	return formFields[1], fs.desc.Value()
}

// View renders the form. saving and err come from the dialog machine.
func (fs formState) View(width int, saving bool, err error) string {
	var b strings.Builder
	b.WriteString(titleText.Render(fs.title))
	b.WriteString("\n")

	name := fs.name
	name.Width = max(width-2, 10)
	desc := fs.desc
	desc.SetWidth(max(width-2, 10))
	for i, view := range [2]string{name.View(), desc.View()} {
		label := formLabels[i]
		if i == fs.focus {
			label = selectedText.Render(label)
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", label, view)
	}

	switch {
	case saving:
		b.WriteString("\nSaving...")
	case err != nil:
		b.WriteString("\n" + errorText.Render("Error: "+err.Error()))
	}
	return b.String()
}
