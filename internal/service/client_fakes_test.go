package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/config"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/models"
)

const testUserID int64 = 7

const (
	testWait = 2 * time.Second
	testTick = 5 * time.Millisecond
)

// fakeRemote is an in-memory document store standing in for the server.
// Writes pop scripted failures from failures before they are applied.
type fakeRemote struct {
	mu       sync.Mutex
	docs     map[models.Collection]map[string]map[string]any
	order    map[models.Collection][]string
	failures []error
	calls    []string
	delay    time.Duration
	subs     map[models.Collection][]func(models.Snapshot)

	// publishOnWrite delivers a snapshot of the written collection before
	// the write returns, the way the server's change hub does.
	publishOnWrite bool
}

var _ adapter.DocumentAdapter = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs:  make(map[models.Collection]map[string]map[string]any),
		order: make(map[models.Collection][]string),
		subs:  make(map[models.Collection][]func(models.Snapshot)),
	}
}

func (r *fakeRemote) seed(collection models.Collection, id string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(collection, id, data)
}

func (r *fakeRemote) failNext(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, errs...)
}

func (r *fakeRemote) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func (r *fakeRemote) doc(collection models.Collection, id string) (map[string]any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.docs[collection][id]
	return models.CloneFields(data), ok
}

// emit delivers the current content of collection to its subscribers.
func (r *fakeRemote) emit(collection models.Collection) {
	r.mu.Lock()
	snapshot := r.snapshot(collection)
	subs := slices.Clone(r.subs[collection])
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (r *fakeRemote) emitSnapshot(snapshot models.Snapshot) {
	r.mu.Lock()
	subs := slices.Clone(r.subs[snapshot.Collection])
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (r *fakeRemote) SetToken(string) {}
func (r *fakeRemote) Token() string   { return "" }

func (r *fakeRemote) Get(_ context.Context, path models.DocPath) (models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.docs[path.Collection][path.DocID]
	if !ok {
		return models.Document{}, adapter.ErrNotFound
	}
	return models.Document{ID: path.DocID, Data: models.CloneFields(data)}, nil
}

func (r *fakeRemote) List(_ context.Context, path models.DocPath) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(path.Collection).Documents, nil
}

func (r *fakeRemote) Set(ctx context.Context, path models.DocPath, data map[string]any, opts models.SetOptions) error {
	return r.write(ctx, fmt.Sprintf("set %s/%s", path.Collection, path.DocID), func() error {
		if current, ok := r.docs[path.Collection][path.DocID]; ok && opts.Merge {
			r.put(path.Collection, path.DocID, models.MergeFields(current, data))
			return nil
		}
		r.put(path.Collection, path.DocID, data)
		return nil
	})
}

func (r *fakeRemote) Update(ctx context.Context, path models.DocPath, patch models.Patch) error {
	return r.write(ctx, fmt.Sprintf("update %s/%s", path.Collection, path.DocID), func() error {
		current, ok := r.docs[path.Collection][path.DocID]
		if !ok {
			return fmt.Errorf("%w: %s", adapter.ErrNotFound, path)
		}
		plain, increments := patch.Split()
		next := models.MergeFields(current, plain)
		for field, delta := range increments {
			value, _ := models.ToFloat(next[field])
			next[field] = value + delta
		}
		r.put(path.Collection, path.DocID, next)
		return nil
	})
}

func (r *fakeRemote) Delete(ctx context.Context, path models.DocPath) error {
	return r.write(ctx, fmt.Sprintf("delete %s/%s", path.Collection, path.DocID), func() error {
		delete(r.docs[path.Collection], path.DocID)
		r.order[path.Collection] = slices.DeleteFunc(r.order[path.Collection], func(id string) bool { return id == path.DocID })
		return nil
	})
}

func (r *fakeRemote) BatchWrite(context.Context, []models.BatchWrite) error {
	return adapter.ErrBadRequest
}

func (r *fakeRemote) Subscribe(_ context.Context, path models.DocPath, onSnapshot func(models.Snapshot), _ func(error)) (func(), error) {
	r.mu.Lock()
	r.subs[path.Collection] = append(r.subs[path.Collection], onSnapshot)
	idx := len(r.subs[path.Collection]) - 1
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.subs[path.Collection][idx] = func(models.Snapshot) {}
		r.mu.Unlock()
	}, nil
}

func (r *fakeRemote) write(ctx context.Context, call string, apply func() error) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	var err error
	if len(r.failures) > 0 {
		err = r.failures[0]
		r.failures = r.failures[1:]
	}
	if err == nil {
		err = apply()
	}
	publish := r.publishOnWrite && err == nil
	r.mu.Unlock()

	if publish {
		r.emit(collectionOf(call))
	}
	return err
}

// collectionOf extracts the collection of a call log entry such as
// "update user/7".
func collectionOf(call string) models.Collection {
	_, target, _ := strings.Cut(call, " ")
	collection, _, _ := strings.Cut(target, "/")
	return models.Collection(collection)
}

// put must be called with r.mu held.
func (r *fakeRemote) put(collection models.Collection, id string, data map[string]any) {
	if r.docs[collection] == nil {
		r.docs[collection] = make(map[string]map[string]any)
	}
	if _, ok := r.docs[collection][id]; !ok {
		r.order[collection] = append(r.order[collection], id)
	}
	r.docs[collection][id] = models.CloneFields(data)
}

// snapshot must be called with r.mu held.
func (r *fakeRemote) snapshot(collection models.Collection) models.Snapshot {
	docs := make([]models.Document, 0, len(r.order[collection]))
	for _, id := range r.order[collection] {
		docs = append(docs, models.Document{ID: id, Data: models.CloneFields(r.docs[collection][id])})
	}
	return models.Snapshot{Collection: collection, Documents: docs}
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []models.Notification
}

func (n *recordingNotifier) Notify(notification models.Notification) {
	n.mu.Lock()
	n.items = append(n.items, notification)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.items)
}

func (n *recordingNotifier) ofKind(kind models.NotificationKind) []models.Notification {
	var out []models.Notification
	for _, item := range n.all() {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testCore is the sync core without background drains: tests call Drain
// explicitly.
type testCore struct {
	storage   *store.MemoryStorage
	remote    *fakeRemote
	notifier  *recordingNotifier
	clock     *fakeClock
	queue     OperationQueue
	cache     CacheStore
	monitor   ConnectivityMonitor
	mutations *Mutations
	engine    SyncEngine
	listener  ListenerBridge
}

func testSyncConfig() config.ClientSync {
	return config.ClientSync{
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
		AttemptTimeout: time.Second,
		UndoWindow:     5 * time.Second,
	}
}

func newTestCore(online bool) *testCore {
	return newTestCoreWithStorage(online, store.NewMemoryStorage(), newFakeRemote())
}

func newTestCoreWithStorage(online bool, storage *store.MemoryStorage, remote *fakeRemote) *testCore {
	log := logger.Nop()
	cfg := testSyncConfig()
	clock := newFakeClock()
	notifier := &recordingNotifier{}

	queue := NewOperationQueue(testUserID, storage, log)
	queue.(*operationQueue).now = clock.Now
	cache := NewCacheStore(storage, log)
	monitor := NewConnectivityMonitor(online, log)
	mutations := NewMutations(testUserID, queue, cache, notifier, cfg.UndoWindow, log)
	mutations.now = clock.Now
	engine := NewSyncEngine(testUserID, queue, remote, monitor, mutations, notifier, cfg, log)
	engine.(*syncEngine).now = clock.Now
	listener := NewListenerBridge(testUserID, remote, monitor, mutations, log)

	return &testCore{
		storage:   storage,
		remote:    remote,
		notifier:  notifier,
		clock:     clock,
		queue:     queue,
		cache:     cache,
		monitor:   monitor,
		mutations: mutations,
		engine:    engine,
		listener:  listener,
	}
}

func titles(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.String())
	}
	slices.Sort(out)
	return out
}

func opKinds(ops []models.QueuedOperation) []models.OpKind {
	out := make([]models.OpKind, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Kind)
	}
	return out
}
