package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/skillfinite/skillfinite/internal/notify"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	// Base colors
	Background string
	Surface    string
	FocusBg    string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Notification type colors
	TypeColors map[notify.Type]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	typeColors map[notify.Type]string
	muted      string
	background string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		typeColors: t.TypeColors,
		muted:      t.Muted,
		background: t.Background,
	}
}

// TypeStyle returns a badge style for a notification type.
func (s Styles) TypeStyle(typ notify.Type) lipgloss.Style {
	color := s.typeColors[typ]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// TypeColor returns the color for a notification type, falling back to Muted.
func (t Theme) TypeColor(typ notify.Type) string {
	if c := t.TypeColors[typ]; c != "" {
		return c
	}
	return t.Muted
}

// Theme definitions

var themes = map[string]Theme{
	"Dracula":  draculaTheme(),
	"Nightfox": nightfoxTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Dracula", "Nightfox", "Slate"}

// GetTheme returns a theme by name, falling back to Dracula.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return defaultTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func defaultTheme() Theme {
	return draculaTheme()
}

func draculaTheme() Theme {
	// Dracula palette: https://draculatheme.com/contribute
	return Theme{
		Name: "Dracula",

		Background: "#21222c",
		Surface:    "#282a36", // background
		FocusBg:    "#343746",

		SelectionBg:   "#44475a", // current line
		SelectionText: "#f8f8f2", // foreground

		Border:      "#44475a",
		BorderFocus: "#bd93f9", // purple

		Text:    "#f8f8f2",
		Muted:   "#a4a8c4",
		Faint:   "#6272a4", // comment
		Accent:  "#bd93f9",
		Success: "#50fa7b", // green
		Warning: "#f1fa8c", // yellow
		Danger:  "#ff5555", // red
		Info:    "#8be9fd", // cyan

		TypeColors: map[notify.Type]string{
			notify.TypeSuccess:     "#50fa7b",
			notify.TypeError:       "#ff5555",
			notify.TypeInfo:        "#8be9fd",
			notify.TypeWarning:     "#f1fa8c",
			notify.TypeCourse:      "#bd93f9",
			notify.TypePayment:     "#ffb86c", // orange
			notify.TypeAchievement: "#ff79c6", // pink
			notify.TypeSystem:      "#6272a4",
		},
	}
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		FocusBg:    "#29394f", // bg3

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Border:      "#39506d", // bg4
		BorderFocus: "#719cd6", // blue

		Text:    "#cdcecf",
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6",
		Success: "#81b29a",
		Warning: "#dbc074",
		Danger:  "#c94f6d",
		Info:    "#63cdcf",

		TypeColors: map[notify.Type]string{
			notify.TypeSuccess:     "#81b29a",
			notify.TypeError:       "#c94f6d",
			notify.TypeInfo:        "#63cdcf",
			notify.TypeWarning:     "#dbc074",
			notify.TypeCourse:      "#719cd6",
			notify.TypePayment:     "#f4a261", // orange
			notify.TypeAchievement: "#9d79d6", // magenta
			notify.TypeSystem:      "#738091",
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		FocusBg:    "#283548",

		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50

		Border:      "#334155", // slate-700
		BorderFocus: "#38bdf8", // sky-400

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Faint:   "#64748b",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",

		TypeColors: map[notify.Type]string{
			notify.TypeSuccess:     "#16a34a",
			notify.TypeError:       "#dc2626",
			notify.TypeInfo:        "#06b6d4",
			notify.TypeWarning:     "#f59e0b",
			notify.TypeCourse:      "#0ea5e9",
			notify.TypePayment:     "#14b8a6",
			notify.TypeAchievement: "#a855f7",
			notify.TypeSystem:      "#64748b",
		},
	}
}
