package service

import (
	"sync"

	"github.com/MKhiriev/go-habit-tracker/models"
)

type hubKey struct {
	userID     int64
	collection models.Collection
}

// changeHub fans snapshots out to the subscribers of one (user, collection).
// A slow subscriber only ever sees the newest snapshot.
type changeHub struct {
	mu     sync.Mutex
	subs   map[hubKey]map[int]chan models.Snapshot
	nextID int

	// builds serializes snapshot construction per key so a stale listing is
	// never published after a newer one.
	buildsMu sync.Mutex
	builds   map[hubKey]*sync.Mutex
}

func newChangeHub() *changeHub {
	return &changeHub{
		subs:   make(map[hubKey]map[int]chan models.Snapshot),
		builds: make(map[hubKey]*sync.Mutex),
	}
}

func (h *changeHub) buildLock(userID int64, collection models.Collection) *sync.Mutex {
	key := hubKey{userID: userID, collection: collection}

	h.buildsMu.Lock()
	defer h.buildsMu.Unlock()
	mu, ok := h.builds[key]
	if !ok {
		mu = &sync.Mutex{}
		h.builds[key] = mu
	}
	return mu
}

func (h *changeHub) subscribe(userID int64, collection models.Collection) (<-chan models.Snapshot, func()) {
	key := hubKey{userID: userID, collection: collection}
	ch := make(chan models.Snapshot, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]chan models.Snapshot)
	}
	h.subs[key][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(ch)
			h.mu.Unlock()
		})
	}
}

func (h *changeHub) hasSubscribers(userID int64, collection models.Collection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[hubKey{userID: userID, collection: collection}]) > 0
}

func (h *changeHub) publish(userID int64, snapshot models.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[hubKey{userID: userID, collection: snapshot.Collection}] {
		offerLatest(ch, snapshot)
	}
}

// offerLatest must be called with the hub lock held so ch cannot be closed
// concurrently.
func offerLatest(ch chan models.Snapshot, snapshot models.Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snapshot
}
