package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-habit-tracker/internal/adapter"
	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/mock"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

func TestSyncEngine_OfflineDrainIsNoop(t *testing.T) {
	c := newTestCore(false)
	loadCore(t, c)
	ctx := context.Background()

	_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "x"})
	require.NoError(t, err)

	require.NoError(t, c.engine.Drain(ctx))
	assert.Empty(t, c.remote.callLog())
	assert.Equal(t, 1, c.queue.Len())
}

func TestSyncEngine_TranslatesOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockDocumentAdapter(ctrl)
	log := logger.Nop()
	ctx := context.Background()

	queue := NewOperationQueue(testUserID, store.NewMemoryStorage(), log)
	require.NoError(t, queue.Load(ctx))
	mutations := NewMutations(testUserID, queue, NewCacheStore(store.NewMemoryStorage(), log), &recordingNotifier{}, 0, log)
	engine := NewSyncEngine(testUserID, queue, remote, NewConnectivityMonitor(true, log), mutations, &recordingNotifier{}, testSyncConfig(), log)

	profile := strconv.FormatInt(testUserID, 10)
	for _, op := range []models.QueuedOperation{
		{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "t", Payload: map[string]any{"title": "T"}},
		{Kind: models.OpUpdate, Collection: models.CollectionTasks, TargetID: "t", Payload: map[string]any{"done": true}},
		{Kind: models.OpCreate, Collection: models.CollectionUser, TargetID: profile, Payload: map[string]any{}},
		{Kind: models.OpIncrement, Collection: models.CollectionUser, TargetID: profile, Field: "score", Delta: 3},
		{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "t"},
	} {
		_, err := queue.Enqueue(ctx, op)
		require.NoError(t, err)
	}

	taskPath := models.NewDocPath(testUserID, models.CollectionTasks, "t")
	profilePath := models.NewDocPath(testUserID, models.CollectionUser, "")
	gomock.InOrder(
		remote.EXPECT().Set(gomock.Any(), taskPath, map[string]any{"title": "T"}, models.SetOptions{}).Return(nil),
		remote.EXPECT().Update(gomock.Any(), taskPath, models.Patch{"done": true}).Return(nil),
		remote.EXPECT().Set(gomock.Any(), profilePath, map[string]any{}, models.SetOptions{Merge: true}).Return(nil),
		remote.EXPECT().Update(gomock.Any(), profilePath, models.IncrementPatch("score", 3)).Return(nil),
		remote.EXPECT().Delete(gomock.Any(), taskPath).Return(nil),
	)

	require.NoError(t, engine.Drain(ctx))
	assert.Equal(t, 0, queue.Len())
}

func TestSyncEngine_IncrementCarriesOperationID(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockDocumentAdapter(ctrl)
	log := logger.Nop()
	ctx := context.Background()

	queue := NewOperationQueue(testUserID, store.NewMemoryStorage(), log)
	require.NoError(t, queue.Load(ctx))
	mutations := NewMutations(testUserID, queue, NewCacheStore(store.NewMemoryStorage(), log), &recordingNotifier{}, 0, log)
	engine := NewSyncEngine(testUserID, queue, remote, NewConnectivityMonitor(true, log), mutations, &recordingNotifier{}, testSyncConfig(), log)

	res, err := queue.Enqueue(ctx, models.QueuedOperation{
		Kind: models.OpIncrement, Collection: models.CollectionUser, TargetID: strconv.FormatInt(testUserID, 10), Field: "score", Delta: 1,
	})
	require.NoError(t, err)

	// the retry after a lost response reuses the key
	var keys []string
	remote.EXPECT().Update(gomock.Any(), gomock.Any(), models.IncrementPatch("score", 1)).
		DoAndReturn(func(ctx context.Context, _ models.DocPath, _ models.Patch) error {
			opID, _ := utils.GetOperationIDFromContext(ctx)
			keys = append(keys, opID)
			if len(keys) == 1 {
				return adapter.ErrUnavailable
			}
			return nil
		}).
		Times(2)

	require.NoError(t, engine.Drain(ctx))
	assert.Equal(t, []string{res.Op.ID, res.Op.ID}, keys)
	assert.NotEmpty(t, res.Op.ID)
}

// emptyHookQueue runs onEmpty the first time the engine finds nothing to send.
type emptyHookQueue struct {
	OperationQueue
	once    sync.Once
	onEmpty func()
}

func (q *emptyHookQueue) Next(now time.Time) (models.QueuedOperation, bool) {
	op, ok := q.OperationQueue.Next(now)
	if !ok {
		q.once.Do(q.onEmpty)
	}
	return op, ok
}

func TestSyncEngine_DrainJoiningAfterEmptyQueueIsNotLost(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	_, err := c.queue.Enqueue(ctx, models.QueuedOperation{
		Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a", Payload: map[string]any{"title": "A"},
	})
	require.NoError(t, err)

	late := make(chan error, 1)
	engine := c.engine.(*syncEngine)
	engine.queue = &emptyHookQueue{
		OperationQueue: c.queue,
		onEmpty: func() {
			_, err := c.queue.Enqueue(ctx, models.QueuedOperation{
				Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "b", Payload: map[string]any{"title": "B"},
			})
			require.NoError(t, err)
			go func() { late <- c.engine.Drain(ctx) }()
			// let the second caller join the flight that is about to finish
			time.Sleep(50 * time.Millisecond)
		},
	}

	require.NoError(t, c.engine.Drain(ctx))
	select {
	case err := <-late:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second drain did not return")
	}

	assert.Equal(t, []string{"set tasks/a", "set tasks/b"}, c.remote.callLog())
	assert.Equal(t, 0, c.queue.Len())
}

func TestSyncEngine_RetriesTransientFailures(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	record, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "x"})
	require.NoError(t, err)
	c.remote.failNext(adapter.ErrUnavailable, fmt.Errorf("%w: timeout", adapter.ErrDeadlineExceeded))

	require.NoError(t, c.engine.Drain(ctx))

	assert.Len(t, c.remote.callLog(), 3)
	got, _ := c.mutations.Get(models.CollectionTasks, record.ID)
	assert.Equal(t, models.StateConfirmed, got.State)
	assert.Empty(t, c.notifier.ofKind(models.NotifyError))
}

func TestSyncEngine_RetriesExhausted(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	record, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "x"})
	require.NoError(t, err)
	_, err = c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "y"})
	require.NoError(t, err)
	c.remote.failNext(adapter.ErrUnavailable, adapter.ErrUnavailable, adapter.ErrUnavailable)

	err = c.engine.Drain(ctx)
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, adapter.ErrUnavailable)

	assert.Len(t, c.remote.callLog(), 3, "the second operation waits behind the first")
	assert.Equal(t, 2, c.queue.Len())
	head := c.queue.PeekAll()[0]
	assert.Equal(t, 3, head.AttemptCount)
	assert.NotEmpty(t, head.LastError)

	got, _ := c.mutations.Get(models.CollectionTasks, record.ID)
	assert.Equal(t, models.StateQueued, got.State)
	assert.True(t, c.monitor.Online(), "a server error is not a lost connection")
	require.Len(t, c.notifier.ofKind(models.NotifyError), 1)

	require.NoError(t, c.engine.Drain(ctx))
	assert.Equal(t, 0, c.queue.Len())
}

func TestSyncEngine_NetworkFailureGoesOffline(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "x"})
	require.NoError(t, err)
	netErr := fmt.Errorf("%w: connection refused", adapter.ErrNetwork)
	c.remote.failNext(netErr, netErr, netErr)

	require.ErrorIs(t, c.engine.Drain(ctx), ErrRetriesExhausted)
	assert.False(t, c.monitor.Online())
	assert.Equal(t, 1, c.queue.Len())
}

func TestSyncEngine_PermanentFailureDoesNotBlockQueue(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "bad"})
	require.NoError(t, err)
	good, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "good"})
	require.NoError(t, err)
	c.remote.failNext(adapter.ErrBadRequest)

	require.NoError(t, c.engine.Drain(ctx))

	assert.Len(t, c.remote.callLog(), 2)
	assert.Equal(t, 0, c.queue.Len())
	_, ok := c.remote.doc(models.CollectionTasks, good.ID)
	assert.True(t, ok)
}

func TestSyncEngine_HeldDeleteBlocksLaterOperations(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()
	c.remote.seed(models.CollectionTasks, "a", map[string]any{"title": "A"})
	c.mutations.ApplySnapshot(ctx, models.CollectionTasks, []models.Record{
		{ID: "a", Collection: models.CollectionTasks, Fields: map[string]any{"title": "A"}},
	})

	_, err := c.mutations.Delete(ctx, models.CollectionTasks, "a")
	require.NoError(t, err)
	_, err = c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "B"})
	require.NoError(t, err)

	require.NoError(t, c.engine.Drain(ctx))
	assert.Empty(t, c.remote.callLog())

	c.clock.Advance(testSyncConfig().UndoWindow)
	require.NoError(t, c.engine.Drain(ctx))

	calls := c.remote.callLog()
	require.Len(t, calls, 2)
	assert.Equal(t, "delete tasks/a", calls[0])
	assert.Contains(t, calls[1], "set tasks/")
}

func TestSyncEngine_ReportsSyncedChangesAfterReconnect(t *testing.T) {
	c := newTestCore(false)
	loadCore(t, c)
	ctx := context.Background()

	for _, title := range []string{"a", "b"} {
		_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": title})
		require.NoError(t, err)
	}

	c.monitor.SetOnline(true)
	c.engine.MarkReconnected()
	require.NoError(t, c.engine.Drain(ctx))

	success := c.notifier.ofKind(models.NotifySuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "Synced 2 change(s)", success[0].Message)

	_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "c"})
	require.NoError(t, err)
	require.NoError(t, c.engine.Drain(ctx))
	assert.Len(t, c.notifier.ofKind(models.NotifySuccess), 1, "only the first drain after a reconnect reports")
}

func TestSyncEngine_CancelledContextStopsRetrying(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)

	_, err := c.mutations.Create(context.Background(), models.CollectionTasks, map[string]any{"title": "x"})
	require.NoError(t, err)
	c.remote.failNext(adapter.ErrUnavailable, adapter.ErrUnavailable, adapter.ErrUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.engine.Drain(ctx))
	assert.Equal(t, 1, c.queue.Len())
	assert.Empty(t, c.notifier.ofKind(models.NotifyError))
}

// Every mutation is visible locally before anything reaches the network.
func TestSyncCore_Optimism(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	task, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "t", "count": 0.0})
	require.NoError(t, err)
	_, ok := c.mutations.Get(models.CollectionTasks, task.ID)
	assert.True(t, ok)

	require.NoError(t, c.mutations.Update(ctx, models.CollectionTasks, task.ID, models.Patch{"title": "t2"}))
	got, _ := c.mutations.Get(models.CollectionTasks, task.ID)
	assert.Equal(t, "t2", got.Fields["title"])

	require.NoError(t, c.mutations.Increment(ctx, models.CollectionTasks, task.ID, "count", 4))
	got, _ = c.mutations.Get(models.CollectionTasks, task.ID)
	assert.Equal(t, 4.0, got.Fields["count"])

	_, err = c.mutations.Delete(ctx, models.CollectionTasks, task.ID)
	require.NoError(t, err)
	_, ok = c.mutations.Get(models.CollectionTasks, task.ID)
	assert.False(t, ok)

	assert.Empty(t, c.remote.callLog())
}

// Operations on one target reach the remote store in enqueue order, also
// when a reconnect happens in between.
func TestSyncCore_OrderingAcrossReconnect(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()

	goal, err := c.mutations.Create(ctx, models.CollectionGoals, map[string]any{"title": "g", "steps": 0.0})
	require.NoError(t, err)
	require.NoError(t, c.mutations.Update(ctx, models.CollectionGoals, goal.ID, models.Patch{"title": "g1"}))

	netErr := fmt.Errorf("%w: reset", adapter.ErrNetwork)
	c.remote.failNext(nil, netErr, netErr, netErr)
	require.ErrorIs(t, c.engine.Drain(ctx), ErrRetriesExhausted)
	require.False(t, c.monitor.Online())

	require.NoError(t, c.mutations.Increment(ctx, models.CollectionGoals, goal.ID, "steps", 2))
	require.NoError(t, c.mutations.Update(ctx, models.CollectionGoals, goal.ID, models.Patch{"title": "g2"}))

	c.monitor.SetOnline(true)
	require.NoError(t, c.engine.Drain(ctx))

	path := "goals/" + goal.ID
	assert.Equal(t, []string{
		"set " + path,
		"update " + path, "update " + path, "update " + path,
		"update " + path,
		"update " + path,
		"update " + path,
	}, c.remote.callLog())

	doc, ok := c.remote.doc(models.CollectionGoals, goal.ID)
	require.True(t, ok)
	assert.Equal(t, "g2", doc["title"])
	assert.Equal(t, 2.0, doc["steps"])
}

// Pending operations survive a restart in the same order.
func TestSyncCore_Durability(t *testing.T) {
	ctx := context.Background()
	first := newTestCore(false)
	loadCore(t, first)

	for i := 0; i < 5; i++ {
		_, err := first.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": strconv.Itoa(i)})
		require.NoError(t, err)
	}
	before := first.queue.PeekAll()

	restarted := newTestCoreWithStorage(false, first.storage, newFakeRemote())
	loadCore(t, restarted)

	after := restarted.queue.PeekAll()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Seq, after[i].Seq)
	}
}

// Concurrent drains apply each operation exactly once.
func TestSyncCore_ConcurrentDrainsApplyOnce(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()
	c.remote.delay = 2 * time.Millisecond

	for i := 0; i < 5; i++ {
		_, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": strconv.Itoa(i)})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.engine.Drain(ctx))
		}()
	}
	wg.Wait()

	assert.Len(t, c.remote.callLog(), 5)
	assert.Equal(t, 0, c.queue.Len())
}

// Undo inside the window never sends the delete; after the window it is a
// no-op.
func TestSyncCore_Undo(t *testing.T) {
	ctx := context.Background()

	t.Run("inside the window", func(t *testing.T) {
		c := newTestCore(true)
		loadCore(t, c)
		c.remote.seed(models.CollectionTasks, "a", map[string]any{"title": "A"})
		c.mutations.ApplySnapshot(ctx, models.CollectionTasks, []models.Record{
			{ID: "a", Collection: models.CollectionTasks, Fields: map[string]any{"title": "A"}},
		})

		handle, err := c.mutations.Delete(ctx, models.CollectionTasks, "a")
		require.NoError(t, err)
		c.clock.Advance(testSyncConfig().UndoWindow / 2)
		require.True(t, handle.Undo())

		c.clock.Advance(testSyncConfig().UndoWindow)
		require.NoError(t, c.engine.Drain(ctx))

		assert.Empty(t, c.remote.callLog())
		_, ok := c.mutations.Get(models.CollectionTasks, "a")
		assert.True(t, ok)
	})

	t.Run("after the window", func(t *testing.T) {
		c := newTestCore(true)
		loadCore(t, c)
		c.remote.seed(models.CollectionTasks, "a", map[string]any{"title": "A"})
		c.mutations.ApplySnapshot(ctx, models.CollectionTasks, []models.Record{
			{ID: "a", Collection: models.CollectionTasks, Fields: map[string]any{"title": "A"}},
		})

		handle, err := c.mutations.Delete(ctx, models.CollectionTasks, "a")
		require.NoError(t, err)
		c.clock.Advance(testSyncConfig().UndoWindow)
		require.NoError(t, c.engine.Drain(ctx))

		assert.False(t, handle.Undo())
		assert.Equal(t, []string{"delete tasks/a"}, c.remote.callLog())
		_, ok := c.mutations.Get(models.CollectionTasks, "a")
		assert.False(t, ok)
	})
}

// Opposite increments applied concurrently leave the remote value unchanged.
func TestSyncCore_IncrementSafety(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()
	profile := strconv.FormatInt(testUserID, 10)
	c.remote.seed(models.CollectionUser, profile, map[string]any{"score": 50.0})
	c.mutations.ApplySnapshot(ctx, models.CollectionUser, []models.Record{
		{ID: profile, Collection: models.CollectionUser, Fields: map[string]any{"score": 50.0}},
	})

	var wg sync.WaitGroup
	for _, delta := range []float64{10, -10} {
		delta := delta
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.mutations.Increment(ctx, models.CollectionUser, "", "score", delta))
		}()
	}
	wg.Wait()

	local, _ := c.mutations.Get(models.CollectionUser, "")
	assert.Equal(t, 50.0, local.Fields["score"])

	require.NoError(t, c.engine.Drain(ctx))
	doc, ok := c.remote.doc(models.CollectionUser, profile)
	require.True(t, ok)
	assert.Equal(t, 50.0, doc["score"])
}

// The server publishes the committed document before the write returns. The
// confirmed increment must not be added on top of that snapshot again.
func TestSyncCore_IncrementConfirmedAfterItsSnapshot(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()
	profile := strconv.FormatInt(testUserID, 10)
	c.remote.seed(models.CollectionUser, profile, map[string]any{"score": 0.0})
	c.remote.publishOnWrite = true
	require.NoError(t, c.listener.Start(ctx, models.CollectionUser))
	defer c.listener.Stop()
	c.remote.emit(models.CollectionUser)

	require.NoError(t, c.mutations.Increment(ctx, models.CollectionUser, "", "score", 10))
	require.NoError(t, c.engine.Drain(ctx))

	doc, ok := c.remote.doc(models.CollectionUser, profile)
	require.True(t, ok)
	assert.Equal(t, 10.0, doc["score"])
	assert.Zero(t, c.queue.Len())

	local, ok := c.mutations.Get(models.CollectionUser, "")
	require.True(t, ok)
	assert.Equal(t, 10.0, local.Fields["score"])

	cached := c.cache.Load(ctx, testUserID, models.CollectionUser)
	require.Len(t, cached, 1)
	assert.Equal(t, 10.0, cached[0].Fields["score"])

	// a repeated identical snapshot keeps the value
	c.remote.emit(models.CollectionUser)
	local, _ = c.mutations.Get(models.CollectionUser, "")
	assert.Equal(t, 10.0, local.Fields["score"])
}

// A confirmed write whose snapshot never arrived is folded locally, and an
// identical re-sent snapshot is merged again afterwards.
func TestSyncCore_ConfirmWithoutSnapshotFolds(t *testing.T) {
	c := newTestCore(true)
	loadCore(t, c)
	ctx := context.Background()
	profile := strconv.FormatInt(testUserID, 10)
	c.remote.seed(models.CollectionUser, profile, map[string]any{"score": 0.0})
	require.NoError(t, c.listener.Start(ctx, models.CollectionUser))
	defer c.listener.Stop()
	c.remote.emit(models.CollectionUser)

	require.NoError(t, c.mutations.Increment(ctx, models.CollectionUser, "", "score", 4))
	require.NoError(t, c.engine.Drain(ctx))

	local, _ := c.mutations.Get(models.CollectionUser, "")
	assert.Equal(t, 4.0, local.Fields["score"])

	// the server is reset behind the client's back; the resent snapshot
	// matches the first one byte for byte and must still be merged
	c.remote.seed(models.CollectionUser, profile, map[string]any{"score": 0.0})
	c.remote.emit(models.CollectionUser)
	local, _ = c.mutations.Get(models.CollectionUser, "")
	assert.Equal(t, 0.0, local.Fields["score"])
}

// An empty snapshot received offline leaves the cache alone.
func TestSyncCore_CacheGuard(t *testing.T) {
	c := newTestCore(false)
	loadCore(t, c)
	ctx := context.Background()
	c.mutations.ApplySnapshot(ctx, models.CollectionTasks, []models.Record{
		{ID: "a", Collection: models.CollectionTasks, Fields: map[string]any{"title": "A"}},
	})
	require.NoError(t, c.listener.Start(ctx, models.CollectionTasks))
	defer c.listener.Stop()

	c.remote.emitSnapshot(models.Snapshot{Collection: models.CollectionTasks})

	assert.Len(t, c.cache.Load(ctx, testUserID, models.CollectionTasks), 1)
	assert.Len(t, c.mutations.List(models.CollectionTasks), 1)

	c.monitor.SetOnline(true)
	c.remote.emitSnapshot(models.Snapshot{Collection: models.CollectionTasks})
	assert.Empty(t, c.cache.Load(ctx, testUserID, models.CollectionTasks), "an empty snapshot online is real")
}

func TestSyncCore_OfflineCreateUndoThenSync(t *testing.T) {
	ctx := context.Background()
	c := newTestCore(false)
	c.cache.Save(ctx, testUserID, models.CollectionTasks, []models.Record{
		{ID: "task-a", Collection: models.CollectionTasks, Fields: map[string]any{"title": "TaskA"}},
	})
	c.remote.seed(models.CollectionTasks, "task-a", map[string]any{"title": "TaskA"})
	loadCore(t, c)
	require.NoError(t, c.listener.Start(ctx, models.CollectionTasks))
	defer c.listener.Stop()

	taskB, err := c.mutations.Create(ctx, models.CollectionTasks, map[string]any{"title": "TaskB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TaskA", "TaskB"}, titles(c.mutations.List(models.CollectionTasks)))
	assert.Equal(t, []models.OpKind{models.OpCreate}, opKinds(c.queue.PeekAll()))

	handle, err := c.mutations.Delete(ctx, models.CollectionTasks, "task-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"TaskB"}, titles(c.mutations.List(models.CollectionTasks)))
	require.True(t, handle.Undo())

	assert.Equal(t, []models.OpKind{models.OpCreate}, opKinds(c.queue.PeekAll()))
	assert.Equal(t, []string{"TaskA", "TaskB"}, titles(c.mutations.List(models.CollectionTasks)))

	c.monitor.SetOnline(true)
	require.NoError(t, c.engine.Drain(ctx))
	assert.Equal(t, []string{"set tasks/" + taskB.ID}, c.remote.callLog())
	assert.Equal(t, 0, c.queue.Len())

	c.remote.emit(models.CollectionTasks)

	list := c.mutations.List(models.CollectionTasks)
	assert.Equal(t, []string{"TaskA", "TaskB"}, titles(list))
	for _, record := range list {
		assert.Equal(t, models.StateConfirmed, record.State)
	}
}
