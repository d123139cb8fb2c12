package tui

import (
	"github.com/MKhiriev/go-habit-tracker/models"
)

type recordsChangedMsg struct {
	collection models.Collection
}

type connectivityMsg struct {
	online bool
}

type notificationMsg struct {
	notification models.Notification
}

type syncDoneMsg struct {
	err error
}

type mutationDoneMsg struct {
	status string
	err    error
}

type copiedMsg struct {
	text string
	err  error
}

type clearStatusMsg struct {
	seq int
}
