package service

import (
	"errors"
	"sync"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
)

type connectivityMonitor struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
	logger *logger.Logger
}

// NewConnectivityMonitor returns a [ConnectivityMonitor] starting in the
// given state.
func NewConnectivityMonitor(online bool, logger *logger.Logger) ConnectivityMonitor {
	return &connectivityMonitor{
		online: online,
		subs:   make(map[int]func(bool)),
		logger: logger,
	}
}

func (m *connectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *connectivityMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Info().Bool("online", online).Msg("connectivity changed")

	for _, fn := range subs {
		fn(online)
	}
}

func (m *connectivityMonitor) ReportFailure(err error) {
	if errors.Is(err, adapter.ErrNetwork) {
		m.SetOnline(false)
	}
}

func (m *connectivityMonitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
