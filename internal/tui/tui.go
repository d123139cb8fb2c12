package tui

import (
	"context"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/models"
	tea "github.com/charmbracelet/bubbletea"
)

const eventBuffer = 64

// TUI renders the task board of one session and forwards key presses to the
// sync core.
type TUI struct {
	services      *service.ClientServices
	notifications <-chan models.Notification
	logger        *logger.Logger
}

func New(services *service.ClientServices, notifications <-chan models.Notification, logger *logger.Logger) *TUI {
	return &TUI{services: services, notifications: notifications, logger: logger}
}

// Run shows the board until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, stop := t.bridge(ctx)
	defer stop()

	model := newBoardModel(ctx, t.services, events)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	if result, ok := finalModel.(boardModel); ok && result.quitting {
		return ErrUserQuit
	}
	return nil
}

// bridge turns sync core callbacks into program messages. Callbacks never
// block: when the program lags behind, change events are dropped since the
// next one reloads the full list anyway.
func (t *TUI) bridge(ctx context.Context) (<-chan tea.Msg, func()) {
	events := make(chan tea.Msg, eventBuffer)
	offer := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
			t.logger.Debug().Msgf("tui event dropped: %T", msg)
		}
	}

	stopChanges := t.services.Mutations.OnChange(func(collection models.Collection) {
		offer(recordsChangedMsg{collection: collection})
	})
	stopConnectivity := t.services.Connectivity.Subscribe(func(online bool) {
		offer(connectivityMsg{online: online})
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-t.notifications:
				if !ok {
					return
				}
				select {
				case events <- notificationMsg{notification: n}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, func() {
		stopChanges()
		stopConnectivity()
	}
}
