// Package theme provides the Lip Gloss color palette and reusable styles for
// the warp TUI. It is a leaf package with no internal imports to avoid import
// cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorSystem  = lipgloss.Color("#b5b3b0")
	ColorAccent  = lipgloss.Color("#a855f7")
)

// userPalette is the set of colors assigned to users who did not pick one.
var userPalette = []lipgloss.Color{
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#06b6d4"),
	lipgloss.Color("#22c55e"),
	lipgloss.Color("#f59e0b"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#a855f7"),
	lipgloss.Color("#ec4899"),
	lipgloss.Color("#10b981"),
}

// UserColor deterministically picks a palette color for a username.
func UserColor(user string) lipgloss.Color {
	var h uint32
	for i := 0; i < len(user); i++ {
		h = h*31 + uint32(user[i])
	}
	return userPalette[h%uint32(len(userPalette))]
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSystem = lipgloss.NewStyle().
			Foreground(ColorSystem).
			Italic(true)

	StyleDanger = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)

	StylePill = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(ColorAccent).
			Padding(0, 1)
)
