package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// viewDetail renders one service for the right pane.
func viewDetail(s zoo.Service) string {
	var b strings.Builder
	b.WriteString(titleText.Render(s.Name))
	fmt.Fprintf(&b, "\n%s\n", mutedText.Render(s.ID))
	if s.Description == "" {
		b.WriteString("\n" + mutedText.Render("No description"))
	} else {
		b.WriteString("\n" + s.Description)
	}
	return b.String()
}
