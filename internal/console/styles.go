package console

import "github.com/charmbracelet/lipgloss"

// Oxocarbon accents, shared with the log handler palette
var (
	colorGreen  = lipgloss.Color("#42be65")
	colorYellow = lipgloss.Color("#f1c21b")
	colorRed    = lipgloss.Color("#ff5252")
	colorBlue   = lipgloss.Color("#78a9ff")
	colorMuted  = lipgloss.Color("#767676")
	colorPurple = lipgloss.Color("#be95ff")
)

// Styles groups the styles a Printer renders with
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Exists  lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles builds the styles on renderer r so that its color profile applies
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(colorGreen).Bold(true),
		Warn:    r.NewStyle().Foreground(colorYellow).Bold(true),
		Exists:  r.NewStyle().Foreground(colorYellow),
		Error:   r.NewStyle().Foreground(colorRed).Bold(true),
		Info:    r.NewStyle().Foreground(colorBlue),
		Dim:     r.NewStyle().Foreground(colorMuted).Faint(true),
	}
}
