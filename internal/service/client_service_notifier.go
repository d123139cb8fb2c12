package service

import (
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/models"
)

// ChannelNotifier delivers notifications on a buffered channel. When the
// reader falls behind the oldest notification is dropped; Notify never
// blocks.
type ChannelNotifier struct {
	ch chan models.Notification
}

// NewChannelNotifier returns a ChannelNotifier holding up to size
// undelivered notifications.
func NewChannelNotifier(size int) *ChannelNotifier {
	if size < 1 {
		size = 1
	}
	return &ChannelNotifier{ch: make(chan models.Notification, size)}
}

func (n *ChannelNotifier) Notify(notification models.Notification) {
	for {
		select {
		case n.ch <- notification:
			return
		default:
		}
		select {
		case <-n.ch:
		default:
		}
	}
}

// C returns the channel notifications are delivered on.
func (n *ChannelNotifier) C() <-chan models.Notification {
	return n.ch
}

// LogNotifier writes notifications to the client log.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(notification models.Notification) {
	event := n.logger.Info()
	if notification.Kind == models.NotifyError {
		event = n.logger.Warn()
	}
	event.
		Str("kind", string(notification.Kind)).
		Str("op_id", notification.OpID).
		Bool("has_action", notification.Action != nil).
		Msg(notification.Message)
}

// MultiNotifier fans a notification out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(notification models.Notification) {
	for _, n := range m {
		n.Notify(notification)
	}
}
