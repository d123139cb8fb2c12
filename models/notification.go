package models

// NotificationKind classifies a user-visible notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyUndo    NotificationKind = "undo"
	NotifyInfo    NotificationKind = "info"
)

// NotificationAction is an optional button attached to a notification, e.g.
// "Undo" on a delete.
type NotificationAction struct {
	Label string
	Do    func() bool
}

// Notification is what the sync core reports to the UI layer. The UI decides
// how to render it.
type Notification struct {
	Kind    NotificationKind
	Message string
	// OpID is set when the notification refers to a queued operation.
	OpID   string
	Action *NotificationAction
}
