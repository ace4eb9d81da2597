package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme holds the semantic color palette of the terminal frontend.
type Theme struct {
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

var theme = Theme{
	Border:  lipgloss.Color("#45475A"),
	Muted:   lipgloss.Color("#7F849C"),
	Text:    lipgloss.Color("#CDD6F4"),
	Primary: lipgloss.Color("#7C6CF2"),
	Accent:  lipgloss.Color("#F38BE8"),
	Success: lipgloss.Color("#5FE3A1"),
	Warning: lipgloss.Color("#F9D65C"),
	Error:   lipgloss.Color("#F2668B"),
	Info:    lipgloss.Color("#4CC9E0"),
}

var (
	sectionStyle  = lipgloss.NewStyle().Foreground(theme.Info).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(theme.Text)
	valueStyle    = lipgloss.NewStyle().Foreground(theme.Success)
	mutedStyle    = lipgloss.NewStyle().Foreground(theme.Muted)
	selectedStyle = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(theme.Warning)
	errorBanner   = lipgloss.NewStyle().
			Foreground(theme.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Error).
			Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Foreground(theme.Info)
)

// gradientText colors each line of text with a horizontal blend from one
// color to the other.
func gradientText(text string, from, to lipgloss.Color) string {
	start, err1 := colorful.Hex(string(from))
	end, err2 := colorful.Hex(string(to))
	if err1 != nil || err2 != nil {
		return text
	}

	lines := strings.Split(text, "\n")
	for li, line := range lines {
		runes := []rune(line)
		var sb strings.Builder
		for i, r := range runes {
			t := 0.0
			if len(runes) > 1 {
				t = float64(i) / float64(len(runes)-1)
			}
			color := lipgloss.Color(start.BlendRgb(end, t).Hex())
			sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(r)))
		}
		lines[li] = sb.String()
	}
	return strings.Join(lines, "\n")
}
