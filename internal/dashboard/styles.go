package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/zoodesk/internal/session"
)

// MinLeftWidth is the minimum character width for the left pane.
const MinLeftWidth = 28

var (
	accent = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	red    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	green  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	yellow = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}

	titleText    = lipgloss.NewStyle().Bold(true)
	selectedText = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedText    = lipgloss.NewStyle().Foreground(dim)
	errorText    = lipgloss.NewStyle().Foreground(red)
	successText  = lipgloss.NewStyle().Foreground(green)
	warnText     = lipgloss.NewStyle().Foreground(yellow)
)

// NoticeStyle returns the style for a notice of the given level.
func NoticeStyle(level session.Level) lipgloss.Style {
	if level == session.LevelError {
		return errorText
	}
	return successText
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
}

// PaneWidths calculates the left and right pane widths from a total width.
// Left pane gets 1/3 (minimum MinLeftWidth), right pane gets the rest.
func PaneWidths(totalWidth int) (left, right int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	left = totalWidth / 3
	if left < MinLeftWidth {
		left = MinLeftWidth
	}
	right = totalWidth - left
	if right < 0 {
		right = 0
	}
	return left, right
}
