package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/internal/validators"
	"github.com/MKhiriev/go-habit-tracker/models"
)

// Mutations owns the client's in-memory state. The local view of a
// collection is its base snapshot with every pending operation replayed on
// top in queue order; only the base is written to the cache.
//
// Mutations implements both [MutationService] for feature code and
// [StateUpdater] for the sync engine and the listener bridge.
type Mutations struct {
	mu     sync.Mutex
	userID int64
	base   map[models.Collection][]models.Record
	states map[models.Collection]map[string]models.RecordState
	views  map[models.Collection][]models.Record

	// snapshots counts applied snapshots and folds counts local folds, per
	// collection. sentAt holds the snapshot count seen when an operation was
	// handed to the remote store.
	snapshots map[models.Collection]uint64
	folds     map[models.Collection]uint64
	sentAt    map[string]uint64

	queue      OperationQueue
	cache      CacheStore
	notifier   Notifier
	ids        utils.IDFunc
	undoWindow time.Duration
	now        func() time.Time
	trigger    atomic.Pointer[func()]

	listenersMu  sync.Mutex
	listeners    map[int]func(models.Collection)
	nextListener int

	logger *logger.Logger
}

// NewMutations builds the state of userID. undoWindow is how long a delete
// stays cancellable; zero disables undo.
func NewMutations(userID int64, queue OperationQueue, cache CacheStore, notifier Notifier, undoWindow time.Duration, logger *logger.Logger) *Mutations {
	return &Mutations{
		userID:     userID,
		base:       make(map[models.Collection][]models.Record),
		states:     make(map[models.Collection]map[string]models.RecordState),
		views:      make(map[models.Collection][]models.Record),
		snapshots:  make(map[models.Collection]uint64),
		folds:      make(map[models.Collection]uint64),
		sentAt:     make(map[string]uint64),
		queue:      queue,
		cache:      cache,
		notifier:   notifier,
		ids:        utils.NewTimeOrderedID,
		undoWindow: undoWindow,
		now:        time.Now,
		listeners:  make(map[int]func(models.Collection)),
		logger:     logger,
	}
}

// SetDrainTrigger installs the function called whenever new work may be
// ready for the sync engine. It must not block.
func (s *Mutations) SetDrainTrigger(fn func()) {
	s.trigger.Store(&fn)
}

func (s *Mutations) Load(ctx context.Context) error {
	if err := s.queue.Load(ctx); err != nil {
		return fmt.Errorf("error loading operation queue: %w", err)
	}

	s.mu.Lock()
	for _, collection := range models.Collections {
		s.base[collection] = s.cache.Load(ctx, s.userID, collection)
		s.rebuild(collection)
	}
	s.mu.Unlock()

	for _, collection := range models.Collections {
		s.changed(collection)
	}
	s.wake()

	return nil
}

func (s *Mutations) Create(ctx context.Context, collection models.Collection, fields map[string]any) (models.Record, error) {
	if !collection.Valid() {
		return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	id := s.ids()
	if collection == models.CollectionUser {
		id = s.profileID()
	}

	s.mu.Lock()
	_, err := s.queue.Enqueue(ctx, models.QueuedOperation{
		Kind:       models.OpCreate,
		Collection: collection,
		TargetID:   id,
		Payload:    models.Sanitize(fields),
	})
	if err != nil {
		s.mu.Unlock()
		return models.Record{}, err
	}
	s.transition(collection, id, models.EventMutated)
	s.rebuild(collection)
	record, _ := s.find(collection, id)
	s.mu.Unlock()

	s.changed(collection)
	s.wake()

	return record, nil
}

// Update queues plain fields of patch as one UPDATE and every increment in
// it as a separate INCREMENT.
func (s *Mutations) Update(ctx context.Context, collection models.Collection, id string, patch models.Patch) error {
	if !collection.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if collection == models.CollectionUser {
		id = s.profileID()
	}

	plain, increments := patch.Split()
	plain = models.Sanitize(plain)
	if len(plain) == 0 && len(increments) == 0 {
		return nil
	}

	s.mu.Lock()
	if _, ok := s.find(collection, id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, collection, id)
	}

	ops := make([]models.QueuedOperation, 0, 1+len(increments))
	if len(plain) > 0 {
		ops = append(ops, models.QueuedOperation{Kind: models.OpUpdate, Collection: collection, TargetID: id, Payload: plain})
	}
	fields := make([]string, 0, len(increments))
	for field := range increments {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		ops = append(ops, models.QueuedOperation{Kind: models.OpIncrement, Collection: collection, TargetID: id, Field: field, Delta: increments[field]})
	}

	for _, op := range ops {
		if _, err := s.queue.Enqueue(ctx, op); err != nil {
			s.rebuild(collection)
			s.mu.Unlock()
			return err
		}
	}
	s.transition(collection, id, models.EventMutated)
	s.rebuild(collection)
	s.mu.Unlock()

	s.changed(collection)
	s.wake()

	return nil
}

func (s *Mutations) Delete(ctx context.Context, collection models.Collection, id string) (*UndoHandle, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if collection == models.CollectionUser {
		id = s.profileID()
	}

	now := s.now()
	op := models.QueuedOperation{Kind: models.OpDelete, Collection: collection, TargetID: id}
	if s.undoWindow > 0 {
		hold := now.Add(s.undoWindow)
		op.HoldUntil = &hold
	}

	s.mu.Lock()
	record, ok := s.find(collection, id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, collection, id)
	}
	result, err := s.queue.Enqueue(ctx, op)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	handle := &UndoHandle{
		svc:        s,
		collection: collection,
		targetID:   id,
		opID:       result.Op.ID,
		dropped:    result.Dropped,
		prevState:  record.State,
		deadline:   now.Add(s.undoWindow),
	}
	if !result.Collapsed {
		s.transition(collection, id, models.EventMutated)
	}
	s.rebuild(collection)
	s.mu.Unlock()

	s.changed(collection)

	if s.undoWindow > 0 {
		s.notifier.Notify(models.Notification{
			Kind:    models.NotifyUndo,
			Message: fmt.Sprintf("Deleted %q", record.String()),
			OpID:    result.Op.ID,
			Action:  &models.NotificationAction{Label: "Undo", Do: handle.Undo},
		})
		if !result.Collapsed {
			// the DELETE becomes drainable once its hold expires
			time.AfterFunc(s.undoWindow, s.wake)
		}
	} else {
		s.wake()
	}

	return handle, nil
}

// Increment adds delta to a numeric field. For the profile document a
// missing record is created first with a merge so an existing remote profile
// is never overwritten.
func (s *Mutations) Increment(ctx context.Context, collection models.Collection, id, field string, delta float64) error {
	if !collection.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if err := validators.ValidateFieldName(field); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil
	}
	if collection == models.CollectionUser {
		id = s.profileID()
	}

	s.mu.Lock()
	if _, ok := s.find(collection, id); !ok {
		if collection != models.CollectionUser {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, collection, id)
		}
		if _, err := s.queue.Enqueue(ctx, models.QueuedOperation{
			Kind:       models.OpCreate,
			Collection: collection,
			TargetID:   id,
			Payload:    map[string]any{},
		}); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	_, err := s.queue.Enqueue(ctx, models.QueuedOperation{
		Kind:       models.OpIncrement,
		Collection: collection,
		TargetID:   id,
		Field:      field,
		Delta:      delta,
	})
	if err != nil {
		s.rebuild(collection)
		s.mu.Unlock()
		return err
	}
	s.transition(collection, id, models.EventMutated)
	s.rebuild(collection)
	s.mu.Unlock()

	s.changed(collection)
	s.wake()

	return nil
}

func (s *Mutations) List(collection models.Collection) []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.views[collection]
	out := make([]models.Record, len(view))
	for i, record := range view {
		out[i] = record.Clone()
	}
	return out
}

func (s *Mutations) Get(collection models.Collection, id string) (models.Record, bool) {
	if collection == models.CollectionUser {
		id = s.profileID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.find(collection, id)
	return record.Clone(), ok
}

func (s *Mutations) OnChange(fn func(collection models.Collection)) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Mutations) Sending(op models.QueuedOperation) {
	s.mu.Lock()
	s.sentAt[op.ID] = s.snapshots[op.Collection]
	s.mu.Unlock()
}

func (s *Mutations) Revision(collection models.Collection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folds[collection]
}

// Confirm folds op into the base unless a snapshot arrived while op was in
// flight. The server publishes after committing, so such a snapshot already
// holds the effect of op, and a later one will if it raced the commit.
func (s *Mutations) Confirm(ctx context.Context, op models.QueuedOperation) {
	s.mu.Lock()
	sentAt, sent := s.sentAt[op.ID]
	delete(s.sentAt, op.ID)
	if !s.queue.Dequeue(ctx, op.ID) {
		s.mu.Unlock()
		return
	}
	if !sent || s.snapshots[op.Collection] == sentAt {
		s.fold(op)
	}
	s.transition(op.Collection, op.TargetID, models.EventConfirmed)
	s.cache.Save(ctx, s.userID, op.Collection, s.base[op.Collection])
	s.rebuild(op.Collection)
	s.mu.Unlock()

	s.changed(op.Collection)
}

func (s *Mutations) Reject(ctx context.Context, op models.QueuedOperation, err error) {
	s.mu.Lock()
	delete(s.sentAt, op.ID)
	if !s.queue.Dequeue(ctx, op.ID) {
		s.mu.Unlock()
		return
	}
	s.fold(op)
	s.transition(op.Collection, op.TargetID, models.EventRejected)
	s.cache.Save(ctx, s.userID, op.Collection, s.base[op.Collection])
	s.rebuild(op.Collection)
	s.mu.Unlock()

	s.changed(op.Collection)

	s.notifier.Notify(models.Notification{
		Kind:    models.NotifyError,
		Message: fmt.Sprintf("Could not %s %s %s: %v", describeOp(op.Kind), op.Collection, op.TargetID, err),
		OpID:    op.ID,
	})
}

func (s *Mutations) RetryScheduled(op models.QueuedOperation) {
	s.mu.Lock()
	s.transition(op.Collection, op.TargetID, models.EventRetryScheduled)
	s.rebuild(op.Collection)
	s.mu.Unlock()

	s.changed(op.Collection)
}

func (s *Mutations) ApplySnapshot(ctx context.Context, collection models.Collection, records []models.Record) {
	s.mu.Lock()
	base := make([]models.Record, len(records))
	for i, record := range records {
		base[i] = record.Clone()
	}
	s.base[collection] = base
	s.snapshots[collection]++

	states := s.states[collection]
	for id, state := range states {
		pending := len(s.queue.Pending(collection, id)) > 0
		if !pending {
			delete(states, id)
			continue
		}
		states[id] = state.Next(models.EventSnapshot, true)
	}
	s.cache.Save(ctx, s.userID, collection, base)
	s.rebuild(collection)
	s.mu.Unlock()

	s.changed(collection)
}

// undo is called through [UndoHandle].
func (s *Mutations) undo(ctx context.Context, h *UndoHandle) bool {
	now := s.now()
	if !now.Before(h.deadline) {
		return false
	}

	s.mu.Lock()
	if h.opID != "" {
		if !s.queue.Cancel(ctx, h.opID, now) {
			s.mu.Unlock()
			return false
		}
	} else {
		for _, op := range h.dropped {
			op.HoldUntil = nil
			if _, err := s.queue.Enqueue(ctx, op); err != nil {
				s.logger.Err(err).Str("op_id", op.ID).Msg("error restoring operation on undo")
			}
		}
	}
	states := s.stateMap(h.collection)
	if h.prevState == "" || h.prevState == models.StateConfirmed {
		delete(states, h.targetID)
	} else {
		states[h.targetID] = h.prevState
	}
	s.rebuild(h.collection)
	s.mu.Unlock()

	s.changed(h.collection)
	if h.opID == "" {
		s.wake()
	}

	return true
}

// fold applies a finished operation to the base snapshot. Must be called
// with s.mu held.
func (s *Mutations) fold(op models.QueuedOperation) {
	base := s.base[op.Collection]
	idx := slices.IndexFunc(base, func(r models.Record) bool { return r.ID == op.TargetID })

	var fields map[string]any
	if idx >= 0 {
		fields = base[idx].Fields
	}
	next, exists := op.Apply(fields, idx >= 0)

	switch {
	case exists && idx >= 0:
		base[idx].Fields = next
		base[idx].UpdatedAt = s.now()
	case exists:
		base = append(base, models.Record{
			ID:         op.TargetID,
			Collection: op.Collection,
			Fields:     next,
			State:      models.StateConfirmed,
			UpdatedAt:  s.now(),
		})
	case idx >= 0:
		base = slices.Delete(base, idx, idx+1)
	}
	s.base[op.Collection] = base
	s.folds[op.Collection]++
}

// rebuild recomputes the local view of collection. Must be called with s.mu
// held.
func (s *Mutations) rebuild(collection models.Collection) {
	base := s.base[collection]

	order := make([]string, 0, len(base))
	fields := make(map[string]map[string]any, len(base))
	exists := make(map[string]bool, len(base))
	updatedAt := make(map[string]time.Time, len(base))
	pending := make(map[string]bool)

	for _, record := range base {
		order = append(order, record.ID)
		fields[record.ID] = record.Fields
		exists[record.ID] = true
		updatedAt[record.ID] = record.UpdatedAt
	}

	for _, op := range s.queue.PeekAll() {
		if op.Collection != collection {
			continue
		}
		if _, known := exists[op.TargetID]; !known {
			order = append(order, op.TargetID)
		}
		fields[op.TargetID], exists[op.TargetID] = op.Apply(fields[op.TargetID], exists[op.TargetID])
		updatedAt[op.TargetID] = op.CreatedAt
		pending[op.TargetID] = true
	}

	states := s.states[collection]
	view := make([]models.Record, 0, len(order))
	for _, id := range order {
		if !exists[id] {
			continue
		}
		state, ok := states[id]
		if !ok {
			state = models.StateConfirmed
			if pending[id] {
				state = models.StateOptimistic
			}
		}
		view = append(view, models.Record{
			ID:         id,
			Collection: collection,
			Fields:     fields[id],
			State:      state,
			UpdatedAt:  updatedAt[id],
		})
	}
	s.views[collection] = view
}

// transition moves the record through its state machine. Must be called
// with s.mu held.
func (s *Mutations) transition(collection models.Collection, id string, ev models.RecordEvent) {
	states := s.stateMap(collection)
	pending := len(s.queue.Pending(collection, id)) > 0

	current, ok := states[id]
	if !ok {
		current = models.StateConfirmed
	}
	next := current.Next(ev, pending)
	if next == models.StateConfirmed {
		delete(states, id)
		return
	}
	states[id] = next
}

func (s *Mutations) stateMap(collection models.Collection) map[string]models.RecordState {
	states, ok := s.states[collection]
	if !ok {
		states = make(map[string]models.RecordState)
		s.states[collection] = states
	}
	return states
}

func (s *Mutations) find(collection models.Collection, id string) (models.Record, bool) {
	for _, record := range s.views[collection] {
		if record.ID == id {
			return record, true
		}
	}
	return models.Record{}, false
}

func (s *Mutations) profileID() string {
	return strconv.FormatInt(s.userID, 10)
}

func (s *Mutations) changed(collection models.Collection) {
	s.listenersMu.Lock()
	listeners := make([]func(models.Collection), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(collection)
	}
}

func (s *Mutations) wake() {
	if fn := s.trigger.Load(); fn != nil && *fn != nil {
		(*fn)()
	}
}

func describeOp(kind models.OpKind) string {
	switch kind {
	case models.OpCreate:
		return "create"
	case models.OpUpdate:
		return "update"
	case models.OpDelete:
		return "delete"
	case models.OpIncrement:
		return "increment"
	}
	return string(kind)
}

// UndoHandle cancels a delete while its undo window is open.
type UndoHandle struct {
	svc        *Mutations
	collection models.Collection
	targetID   string
	// opID is the queued DELETE; empty when the delete collapsed a pending
	// CREATE and dropped holds what must be restored.
	opID      string
	dropped   []models.QueuedOperation
	prevState models.RecordState
	deadline  time.Time
	used      atomic.Bool
}

// Undo restores the deleted record. It reports false after the window
// elapsed, once the delete was sent, or when called a second time.
func (h *UndoHandle) Undo() bool {
	return h.UndoContext(context.Background())
}

// UndoContext is Undo with a context for the queue persistence.
func (h *UndoHandle) UndoContext(ctx context.Context) bool {
	if h == nil || !h.used.CompareAndSwap(false, true) {
		return false
	}
	if !h.svc.undo(ctx, h) {
		h.used.Store(false)
		return false
	}
	return true
}

// Deadline is the moment the undo window closes.
func (h *UndoHandle) Deadline() time.Time {
	return h.deadline
}

// Collapsed reports whether the delete removed a never-synced record without
// queuing anything.
func (h *UndoHandle) Collapsed() bool {
	return h.opID == ""
}
