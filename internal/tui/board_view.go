package tui

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-habit-tracker/models"
)

func (m boardModel) View() string {
	if m.quitting {
		return ""
	}

	return appStyle.Render(renderPage(m.header(), m.body(), m.footer()))
}

func (m boardModel) header() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Habits"))
	b.WriteString("  ")

	for i, collection := range m.tabs {
		style := tabStyle
		if i == m.tab {
			style = activeTabStyle
		}
		b.WriteString(style.Render(string(collection)))
		b.WriteString(" ")
	}

	b.WriteString("   ")
	b.WriteString(m.connectionLine())
	return b.String()
}

func (m boardModel) connectionLine() string {
	var line string
	if m.online {
		line = onlineStyle.Render("● online")
	} else {
		line = offlineStyle.Render("○ offline")
	}

	if m.pending > 0 {
		line += fmt.Sprintf("  %d pending", m.pending)
		if m.online || m.syncing {
			line += " " + m.spinner.View()
		}
	}
	return line
}

func (m boardModel) body() string {
	if m.collection() == models.CollectionUser {
		return m.profileBody()
	}

	var b strings.Builder
	for i, record := range m.records {
		cursor := "  "
		if i == m.idx {
			cursor = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, stateBadge(record.State), m.recordMarker(record), fitText(record.String(), 48))
	}

	if m.adding {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m boardModel) recordMarker(record models.Record) string {
	switch record.Collection {
	case models.CollectionTasks:
		if done, _ := record.Fields["done"].(bool); done {
			return "[x]"
		}
		return "[ ]"
	case models.CollectionGoals:
		progress, _ := models.ToFloat(record.Fields["progress"])
		return fmt.Sprintf("(%g)", progress)
	}
	return ""
}

func (m boardModel) profileBody() string {
	record, ok := m.services.Mutations.Get(models.CollectionUser, "")
	if !ok {
		return helpStyle.Render("No profile yet. Press + to start scoring.")
	}
	return fmt.Sprintf("%s %s\n%s", stateBadge(record.State), record.String(), formatFields(record.Fields))
}

func (m boardModel) footer() string {
	var b strings.Builder
	if m.status != "" {
		b.WriteString(notificationStyle(m.statusKind).Render(m.status))
		if m.undo != nil {
			b.WriteString(undoStyle.Render(fmt.Sprintf("  (u: %s)", strings.ToLower(m.undo.Label))))
		}
		b.WriteString("\n")
	}
	b.WriteString(renderHelp(keys.boardHelp()))
	return b.String()
}
