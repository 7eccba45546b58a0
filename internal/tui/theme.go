package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/initializ/glewlwyd-console/bus"
)

// ThemeEnv overrides theme detection when --theme is unset or "auto".
const ThemeEnv = "GLEWLWYD_CONSOLE_THEME"

// TermTheme holds all color values for a TUI theme.
type TermTheme struct {
	Name string

	// Brand
	Accent    lipgloss.Color
	AccentDim lipgloss.Color

	// Semantic
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Text
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Dim       lipgloss.Color

	// Surfaces
	Surface      lipgloss.Color
	Border       lipgloss.Color
	ActiveBorder lipgloss.Color
	ActiveBg     lipgloss.Color
}

// DarkTheme is the default dark terminal theme.
var DarkTheme = TermTheme{
	Name:         "dark",
	Accent:       lipgloss.Color("#38bdf8"),
	AccentDim:    lipgloss.Color("#0369a1"),
	Success:      lipgloss.Color("#4ade80"),
	Warning:      lipgloss.Color("#facc15"),
	Error:        lipgloss.Color("#f87171"),
	Info:         lipgloss.Color("#7dd3fc"),
	Primary:      lipgloss.Color("#e2e8f0"),
	Secondary:    lipgloss.Color("#94a3b8"),
	Dim:          lipgloss.Color("#475569"),
	Surface:      lipgloss.Color("#0f172a"),
	Border:       lipgloss.Color("#1e293b"),
	ActiveBorder: lipgloss.Color("#38bdf8"),
	ActiveBg:     lipgloss.Color("#082f49"),
}

// LightTheme is the light terminal theme.
var LightTheme = TermTheme{
	Name:         "light",
	Accent:       lipgloss.Color("#0369a1"),
	AccentDim:    lipgloss.Color("#0c4a6e"),
	Success:      lipgloss.Color("#15803d"),
	Warning:      lipgloss.Color("#a16207"),
	Error:        lipgloss.Color("#b91c1c"),
	Info:         lipgloss.Color("#0e7490"),
	Primary:      lipgloss.Color("#0f172a"),
	Secondary:    lipgloss.Color("#334155"),
	Dim:          lipgloss.Color("#64748b"),
	Surface:      lipgloss.Color("#ffffff"),
	Border:       lipgloss.Color("#cbd5e1"),
	ActiveBorder: lipgloss.Color("#0369a1"),
	ActiveBg:     lipgloss.Color("#f0f9ff"),
}

// DetectTheme picks the theme from the flag value, then ThemeEnv, then the
// COLORFGBG variable, defaulting to dark.
func DetectTheme(flagVal string) TermTheme {
	return detectTheme(flagVal, os.Getenv)
}

func detectTheme(flagVal string, getenv func(string) string) TermTheme {
	if t, ok := namedTheme(flagVal); ok {
		return t
	}
	if t, ok := namedTheme(getenv(ThemeEnv)); ok {
		return t
	}

	// COLORFGBG is "fg;bg" or "fg;default;bg"; 7 and 15 are light backgrounds.
	if colorfgbg := getenv("COLORFGBG"); colorfgbg != "" {
		parts := strings.Split(colorfgbg, ";")
		if len(parts) >= 2 {
			bg := parts[len(parts)-1]
			if bg == "15" || bg == "7" {
				return LightTheme
			}
		}
	}
	return DarkTheme
}

func namedTheme(name string) (TermTheme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		return DarkTheme, true
	case "light":
		return LightTheme, true
	}
	return TermTheme{}, false
}

// StyleSet contains pre-computed lipgloss styles derived from a theme.
type StyleSet struct {
	Theme TermTheme

	// Text styles
	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	AccentTxt    lipgloss.Style
	DimTxt       lipgloss.Style
	SuccessTxt   lipgloss.Style
	WarningTxt   lipgloss.Style
	ErrorTxt     lipgloss.Style
	PrimaryTxt   lipgloss.Style
	SecondaryTxt lipgloss.Style

	// Border styles
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style

	// Kbd hint
	KbdKey  lipgloss.Style
	KbdDesc lipgloss.Style

	Banner lipgloss.Style

	// Summary
	SummaryKey   lipgloss.Style
	SummaryValue lipgloss.Style

	BorderedBox lipgloss.Style
	Dialog      lipgloss.Style

	// Toast badges, one per notification level
	ToastInfo    lipgloss.Style
	ToastWarning lipgloss.Style
	ToastDanger  lipgloss.Style

	StepBadgeComplete lipgloss.Style
	StepBadgeActive   lipgloss.Style
	StepBadgePending  lipgloss.Style

	VersionPill lipgloss.Style
}

// NewStyleSet creates a StyleSet from a theme.
func NewStyleSet(theme TermTheme) *StyleSet {
	badge := func(bg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 1)
	}

	return &StyleSet{
		Theme: theme,

		Title:        lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
		Subtitle:     lipgloss.NewStyle().Foreground(theme.Secondary),
		AccentTxt:    lipgloss.NewStyle().Foreground(theme.Accent),
		DimTxt:       lipgloss.NewStyle().Foreground(theme.Dim),
		SuccessTxt:   lipgloss.NewStyle().Foreground(theme.Success),
		WarningTxt:   lipgloss.NewStyle().Foreground(theme.Warning),
		ErrorTxt:     lipgloss.NewStyle().Foreground(theme.Error),
		PrimaryTxt:   lipgloss.NewStyle().Foreground(theme.Primary),
		SecondaryTxt: lipgloss.NewStyle().Foreground(theme.Secondary),

		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.ActiveBorder),
		InactiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		KbdKey: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Background(theme.Dim).
			Padding(0, 1),
		KbdDesc: lipgloss.NewStyle().
			Foreground(theme.Dim),

		Banner: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		SummaryKey: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Width(16),
		SummaryValue: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(theme.Warning).
			Padding(1, 2),

		ToastInfo:    badge(theme.Info),
		ToastWarning: badge(theme.Warning),
		ToastDanger:  badge(theme.Error),

		StepBadgeComplete: badge(theme.Success),
		StepBadgeActive:   badge(theme.Accent),
		StepBadgePending: lipgloss.NewStyle().
			Background(theme.Border).
			Foreground(theme.Secondary).
			Padding(0, 1),
		VersionPill: badge(theme.AccentDim),
	}
}

// ToastStyle returns the badge style for a notification level.
func (s *StyleSet) ToastStyle(level bus.Level) lipgloss.Style {
	switch level {
	case bus.LevelWarning:
		return s.ToastWarning
	case bus.LevelDanger:
		return s.ToastDanger
	default:
		return s.ToastInfo
	}
}
