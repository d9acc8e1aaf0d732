package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/studylit/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

func statusStyle(s models.BlockStatus) lipgloss.Style {
	switch s {
	case models.StatusCompleted:
		return okStyle
	case models.StatusSkipped:
		return mutedStyle
	case models.StatusInProgress:
		return activeStyle
	default:
		return lipgloss.NewStyle()
	}
}
