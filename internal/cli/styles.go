package cli

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	AddedColor   = lipgloss.Color("76")  // Green
	DeletedColor = lipgloss.Color("196") // Red
	HeaderColor  = lipgloss.Color("39")  // Blue
	MutedColor   = lipgloss.Color("240") // Gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(HeaderColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	addedLineStyle = lipgloss.NewStyle().
			Foreground(AddedColor)

	deletedLineStyle = lipgloss.NewStyle().
				Foreground(DeletedColor)
)

// styleDiffLine colors one unified-diff line.
func styleDiffLine(line string) string {
	switch {
	case len(line) >= 3 && (line[:3] == "---" || line[:3] == "+++"):
		return mutedStyle.Render(line)
	case len(line) >= 2 && line[:2] == "@@":
		return titleStyle.Render(line)
	case len(line) > 0 && line[0] == '+':
		return addedLineStyle.Render(line)
	case len(line) > 0 && line[0] == '-':
		return deletedLineStyle.Render(line)
	default:
		return line
	}
}
