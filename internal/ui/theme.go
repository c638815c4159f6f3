package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles palette + symbols + borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done, Help, Banner, Tab, TabActive  lipgloss.Style

	Border lipgloss.Border

	BoxUnchecked, BoxChecked string
	SymBusy, SymDraft        string
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:      "classic",
		Title:     lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:  lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:      lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Help:      lipgloss.NewStyle().Faint(true),
		Banner:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1),
		Tab:       lipgloss.NewStyle().Faint(true).Padding(0, 1),
		TabActive: lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1),
		Border:    lipgloss.NormalBorder(),

		BoxUnchecked: "☐", BoxChecked: "☑",
		SymBusy: "…", SymDraft: "+",
	}
}

// SetTheme picks classic (default), neon or mono.
func SetTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
		t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		t.Border = lipgloss.RoundedBorder()
		t.BoxUnchecked, t.BoxChecked = "◻", "◼"
		current = t
	case "mono":
		lipgloss.SetColorProfile(termenv.Ascii)
		plain := lipgloss.NewStyle()
		current = Theme{
			Name:  "mono",
			Title: plain, Muted: plain, Accent: plain, Success: plain, Error: plain, Pending: plain,
			Selected: plain, Done: plain, Help: plain, Banner: plain,
			Tab: plain.Padding(0, 1), TabActive: plain.Padding(0, 1),
			Border:       lipgloss.ASCIIBorder(),
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymBusy: "~", SymDraft: "+",
		}
	default:
		current = classic()
	}
}

// SetColor forces ("always") or disables ("never") colored output; "auto"
// leaves terminal detection to lipgloss.
func SetColor(mode string) {
	switch strings.ToLower(mode) {
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Current exposes what renderers need.
func Current() Theme { return current }
