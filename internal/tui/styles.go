package tui

import (
	"github.com/MKhiriev/go-habit-tracker/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	appStyle       = lipgloss.NewStyle().Padding(1, 2)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	undoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Faint(true)
	cursorStyle    = lipgloss.NewStyle().Bold(true)
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// stateBadge marks records the remote store has not confirmed yet.
func stateBadge(state models.RecordState) string {
	switch state {
	case models.StateOptimistic:
		return helpStyle.Render("~")
	case models.StateQueued:
		return undoStyle.Render("…")
	case models.StateFailed:
		return errorStyle.Render("!")
	default:
		return " "
	}
}

func notificationStyle(kind models.NotificationKind) lipgloss.Style {
	switch kind {
	case models.NotifyError:
		return errorStyle
	case models.NotifySuccess:
		return successStyle
	case models.NotifyUndo:
		return undoStyle
	default:
		return helpStyle
	}
}
