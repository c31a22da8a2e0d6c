// Package ui provides terminal styling for gv output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovecli/grove/internal/types"
)

// Ayu theme palette, adaptive between light and dark terminals.
var (
	ColorGood = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorBad = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
	ColorGrowth = lipgloss.AdaptiveColor{
		Light: "#4cbf99", // ayu light bright cyan
		Dark:  "#95e6cb", // ayu dark bright cyan
	}
)

var (
	GoodStyle   = lipgloss.NewStyle().Foreground(ColorGood)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	BadStyle    = lipgloss.NewStyle().Foreground(ColorBad)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	GrowthStyle = lipgloss.NewStyle().Foreground(ColorGrowth)
)

// HeaderStyle for section headers.
var HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// statusStyles maps each bud status to its display style.
var statusStyles = map[types.BudStatus]lipgloss.Style{
	types.StatusSeed:    MutedStyle,
	types.StatusDormant: AccentStyle,
	types.StatusBudding: GrowthStyle,
	types.StatusBloomed: GoodStyle,
	types.StatusMulch:   MutedStyle,
}

// priorityStyles maps priorities to display styles.
var priorityStyles = map[types.Priority]lipgloss.Style{
	types.PriorityUrgent: BadStyle,
	types.PriorityHigh:   WarnStyle,
	types.PriorityMedium: AccentStyle,
	types.PriorityLow:    MutedStyle,
}

const SeparatorLight = "──────────────────────────────────────────"

// RenderStatus renders a bud status in its lifecycle color.
func RenderStatus(s types.BudStatus) string {
	if style, ok := statusStyles[s]; ok {
		return render(style, string(s))
	}
	return string(s)
}

// RenderPriority renders a priority in its urgency color.
func RenderPriority(p types.Priority) string {
	if style, ok := priorityStyles[p]; ok {
		return render(style, string(p))
	}
	return string(p)
}

// RenderGood renders text in the success color.
func RenderGood(s string) string { return render(GoodStyle, s) }

// RenderWarn renders text in the warning color.
func RenderWarn(s string) string { return render(WarnStyle, s) }

// RenderBad renders text in the failure color.
func RenderBad(s string) string { return render(BadStyle, s) }

// RenderMuted renders text dimmed.
func RenderMuted(s string) string { return render(MutedStyle, s) }

// RenderAccent renders text in the accent color.
func RenderAccent(s string) string { return render(AccentStyle, s) }

// RenderHeader renders a section header in uppercase.
func RenderHeader(s string) string { return render(HeaderStyle, strings.ToUpper(s)) }

// RenderSeparator renders the light separator line, dimmed.
func RenderSeparator() string { return render(MutedStyle, SeparatorLight) }

func render(style lipgloss.Style, s string) string {
	if !ShouldUseColor() {
		return s
	}
	return style.Render(s)
}
