package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	subStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	ruleStyle    = lipgloss.NewStyle().Faint(true)
)

func header(text string) {
	fmt.Println(ruleStyle.Render("\n" + strings.Repeat("─", 60)))
	fmt.Println(headerStyle.Render("  " + text))
	fmt.Println(ruleStyle.Render(strings.Repeat("─", 60)))
}

func subheader(text string) {
	fmt.Println(subStyle.Render("\n  ◆ " + text))
}

func info(text string) {
	fmt.Println("  " + text)
}

func dim(text string) {
	fmt.Println(dimStyle.Render("  " + text))
}

func success(text string) {
	fmt.Println(successStyle.Render("  ✓ " + text))
}

func warn(text string) {
	fmt.Println(warnStyle.Render("  ⚠ " + text))
}

// actionStyle colours a consolidation action marker.
func actionStyle(action string) lipgloss.Style {
	switch action {
	case "consolidate":
		return successStyle
	case "prune":
		return dangerStyle
	default:
		return warnStyle
	}
}
