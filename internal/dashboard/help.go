package dashboard

import (
	"github.com/charmbracelet/bubbles/help"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// HelpBindings returns the help.KeyMap for the given mode and role,
// providing context-aware help bar content.
func HelpBindings(mode Mode, role zoo.Role) help.KeyMap {
	switch mode {
	case ModeDetail:
		return DetailKeyMap(role)
	case ModeForm:
		return FormKeyMap()
	case ModeConfirm:
		return ConfirmKeyMap()
	default:
		return ListKeyMap(role)
	}
}
