package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the console colour scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is saffron on the default background.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#ff9933"),
	Accent:  lipgloss.Color("#138808"),
	Error:   lipgloss.Color("#e5534b"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds the styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Prompt lipgloss.Style
	Reply  lipgloss.Style
	Label  lipgloss.Style
	Error  lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles binds theme styles to w so colour is dropped when w is not a
// terminal.
func NewStyles(w io.Writer, t Theme) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Prompt: r.NewStyle().Bold(true).Foreground(t.Accent),
		Reply:  r.NewStyle().PaddingLeft(2),
		Label:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Error:  r.NewStyle().Foreground(t.Error),
		Help:   r.NewStyle().Foreground(t.Dim),
	}
}
