package views

import (
	"github.com/charmbracelet/lipgloss"

	"ploomesterm/internal/utils"
)

type styles struct {
	palette utils.Palette

	App         lipgloss.Style
	Title       lipgloss.Style
	Header      lipgloss.Style
	ColumnHead  lipgloss.Style
	Row         lipgloss.Style
	Selected    lipgloss.Style
	Input       lipgloss.Style
	FocusedBox  lipgloss.Style
	Button      lipgloss.Style
	Sidebar     lipgloss.Style
	Modal       lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Placeholder lipgloss.Style
}

func newStyles(dark bool) styles {
	p := utils.PaletteFor(dark)
	colour := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }

	return styles{
		palette: p,

		App: lipgloss.NewStyle().
			Foreground(colour(p.Text)),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colour(p.Title)),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(colour(p.Header)).
			Padding(0, 1),
		ColumnHead: lipgloss.NewStyle().
			Bold(true).
			Foreground(colour(p.Text)).
			Background(colour(p.ContactHeader)),
		Row: lipgloss.NewStyle().
			Foreground(colour(p.Text)),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(colour(p.ButtonHover)),
		Input: lipgloss.NewStyle().
			Foreground(colour(p.Text)).
			Background(colour(p.Input)).
			Border(lipgloss.NormalBorder()).
			BorderForeground(colour(p.Border)).
			Padding(0, 1),
		FocusedBox: lipgloss.NewStyle().
			Foreground(colour(p.Text)).
			Background(colour(p.Input)).
			Border(lipgloss.NormalBorder()).
			BorderForeground(colour(p.Button)).
			Padding(0, 1),
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(colour(p.Button)).
			Padding(0, 1),
		Sidebar: lipgloss.NewStyle().
			Foreground(colour(p.Text)).
			Background(colour(p.Sidebar)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colour(p.Border)).
			Padding(1, 2),
		Modal: lipgloss.NewStyle().
			Foreground(colour(p.Text)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colour(p.Error)).
			Padding(1, 2),
		Muted: lipgloss.NewStyle().
			Foreground(colour(p.Muted)),
		Error: lipgloss.NewStyle().
			Foreground(colour(p.Error)).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(colour(p.Success)),
		Placeholder: lipgloss.NewStyle().
			Foreground(colour(p.Muted)).
			Italic(true),
	}
}
