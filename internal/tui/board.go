package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/service"
	"github.com/MKhiriev/go-habit-tracker/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTTL = 4 * time.Second

// profileCounter is the profile field changed by +/- on the user tab.
const profileCounter = "score"

type boardModel struct {
	ctx      context.Context
	services *service.ClientServices
	events   <-chan tea.Msg

	tabs    []models.Collection
	tab     int
	records []models.Record
	idx     int

	online  bool
	pending int
	syncing bool
	spinner spinner.Model

	adding bool
	input  textinput.Model

	status     string
	statusKind models.NotificationKind
	statusSeq  int
	undo       *models.NotificationAction

	copyToClipboard func(string) error

	quitting bool
}

func newBoardModel(ctx context.Context, services *service.ClientServices, events <-chan tea.Msg) boardModel {
	input := textinput.New()
	input.Placeholder = "title"
	input.CharLimit = 120

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	m := boardModel{
		ctx:             ctx,
		services:        services,
		events:          events,
		tabs:            []models.Collection{models.CollectionTasks, models.CollectionGoals, models.CollectionUser},
		online:          services.Connectivity.Online(),
		spinner:         s,
		input:           input,
		copyToClipboard: clipboard.WriteAll,
	}
	m.reload()
	return m
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m boardModel) collection() models.Collection {
	return m.tabs[m.tab]
}

func (m boardModel) current() (models.Record, bool) {
	if len(m.records) == 0 || m.idx < 0 || m.idx >= len(m.records) {
		return models.Record{}, false
	}
	return m.records[m.idx], true
}

func (m *boardModel) reload() {
	m.records = m.services.Mutations.List(m.collection())
	m.pending = m.services.Queue.Len()
	if m.idx >= len(m.records) {
		m.idx = len(m.records) - 1
	}
	if m.idx < 0 {
		m.idx = 0
	}
}

func (m *boardModel) setStatus(kind models.NotificationKind, text string) tea.Cmd {
	m.status = text
	m.statusKind = kind
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsChangedMsg:
		if msg.collection == m.collection() {
			m.reload()
		} else {
			m.pending = m.services.Queue.Len()
		}
		return m, waitForEvent(m.events)
	case connectivityMsg:
		m.online = msg.online
		return m, waitForEvent(m.events)
	case notificationMsg:
		n := msg.notification
		if n.Action != nil {
			m.undo = n.Action
		}
		m.pending = m.services.Queue.Len()
		return m, tea.Batch(m.setStatus(n.Kind, n.Message), waitForEvent(m.events))
	case syncDoneMsg:
		m.syncing = false
		m.reload()
		if msg.err != nil {
			return m, m.setStatus(models.NotifyError, humanizeError(msg.err))
		}
		return m, nil
	case mutationDoneMsg:
		if msg.err != nil {
			return m, m.setStatus(models.NotifyError, humanizeError(msg.err))
		}
		if msg.status != "" {
			return m, m.setStatus(models.NotifyInfo, msg.status)
		}
		return m, nil
	case copiedMsg:
		if msg.err != nil {
			return m, m.setStatus(models.NotifyError, "Clipboard is not available: "+msg.err.Error())
		}
		return m, m.setStatus(models.NotifyInfo, fmt.Sprintf("Copied %q", msg.text))
	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			if m.statusKind == models.NotifyUndo {
				m.undo = nil
			}
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBoard(msg)
	}

	return m, nil
}

func (m boardModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.idx > 0 {
			m.idx--
		}
	case key.Matches(msg, keys.down):
		if m.idx < len(m.records)-1 {
			m.idx++
		}
	case key.Matches(msg, keys.tab):
		m.tab = (m.tab + 1) % len(m.tabs)
		m.idx = 0
		m.reload()
	case key.Matches(msg, keys.backtab):
		m.tab = (m.tab + len(m.tabs) - 1) % len(m.tabs)
		m.idx = 0
		m.reload()
	case key.Matches(msg, keys.newItem):
		if m.collection() == models.CollectionUser {
			return m, nil
		}
		m.adding = true
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, keys.toggle):
		return m, m.cmdToggle()
	case key.Matches(msg, keys.delete):
		return m, m.cmdDelete()
	case key.Matches(msg, keys.undo):
		return m.doUndo()
	case key.Matches(msg, keys.increment):
		return m, m.cmdIncrement(1)
	case key.Matches(msg, keys.decrement):
		return m, m.cmdIncrement(-1)
	case key.Matches(msg, keys.copy):
		return m, m.cmdCopy()
	case key.Matches(msg, keys.sync):
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, m.cmdSync()
	}

	return m, nil
}

func (m boardModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.adding = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.enter):
		title := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		if title == "" {
			return m, nil
		}
		return m, m.cmdCreate(title)
	case msg.String() == "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m boardModel) doUndo() (tea.Model, tea.Cmd) {
	if m.undo == nil || m.undo.Do == nil {
		return m, m.setStatus(models.NotifyInfo, "Nothing to undo")
	}

	action := m.undo
	m.undo = nil
	if !action.Do() {
		return m, m.setStatus(models.NotifyError, "Too late to undo")
	}
	m.reload()
	return m, m.setStatus(models.NotifySuccess, "Restored")
}

func (m boardModel) cmdCreate(title string) tea.Cmd {
	collection := m.collection()
	fields := map[string]any{"title": title}
	switch collection {
	case models.CollectionTasks:
		fields["done"] = false
	case models.CollectionGoals:
		fields["progress"] = 0
	}

	return func() tea.Msg {
		_, err := m.services.Mutations.Create(m.ctx, collection, fields)
		return mutationDoneMsg{err: err}
	}
}

func (m boardModel) cmdToggle() tea.Cmd {
	record, ok := m.current()
	if !ok || m.collection() != models.CollectionTasks {
		return nil
	}

	done, _ := record.Fields["done"].(bool)
	return func() tea.Msg {
		err := m.services.Mutations.Update(m.ctx, record.Collection, record.ID, models.Patch{"done": !done})
		return mutationDoneMsg{err: err}
	}
}

func (m boardModel) cmdDelete() tea.Cmd {
	record, ok := m.current()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		// the undo action arrives as a notification
		_, err := m.services.Mutations.Delete(m.ctx, record.Collection, record.ID)
		return mutationDoneMsg{err: err}
	}
}

func (m boardModel) cmdIncrement(delta float64) tea.Cmd {
	collection := m.collection()
	switch collection {
	case models.CollectionUser:
		return func() tea.Msg {
			err := m.services.Mutations.Increment(m.ctx, collection, "", profileCounter, delta)
			return mutationDoneMsg{err: err}
		}
	case models.CollectionGoals:
		record, ok := m.current()
		if !ok {
			return nil
		}
		return func() tea.Msg {
			err := m.services.Mutations.Increment(m.ctx, collection, record.ID, "progress", delta)
			return mutationDoneMsg{err: err}
		}
	}
	return nil
}

func (m boardModel) cmdCopy() tea.Cmd {
	record, ok := m.current()
	if !ok {
		return nil
	}

	text := record.String()
	return func() tea.Msg {
		return copiedMsg{text: text, err: m.copyToClipboard(text)}
	}
}

func (m boardModel) cmdSync() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.services.SyncEngine.Drain(m.ctx)}
	}
}

// waitForEvent delivers the next sync core event to the program.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}
