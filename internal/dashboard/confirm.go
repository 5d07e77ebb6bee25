package dashboard

import (
	"fmt"
	"strings"
)

// confirmState holds the service awaiting delete confirmation.
type confirmState struct {
	id   string
	name string
}

// View renders the delete confirmation.
func (cs confirmState) View(width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Delete %s?\n", titleText.Render(cs.name))
	fmt.Fprintf(&b, "\n  %s\n", mutedText.Render(cs.id))
	b.WriteString("\n  This cannot be undone.")
	b.WriteString("\n\n  [y] Delete   [n] Cancel")
	return b.String()
}
