package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/mock"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/models"
)

func newTestQueue(t *testing.T, storage store.LocalStorage) OperationQueue {
	t.Helper()
	q := NewOperationQueue(testUserID, storage, logger.Nop())
	require.NoError(t, q.Load(context.Background()))
	return q
}

func enqueue(t *testing.T, q OperationQueue, op models.QueuedOperation) EnqueueResult {
	t.Helper()
	res, err := q.Enqueue(context.Background(), op)
	require.NoError(t, err)
	return res
}

func TestOperationQueue_EnqueueAssignsMonotonicSeq(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())

	a := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})
	b := enqueue(t, q, models.QueuedOperation{Kind: models.OpUpdate, Collection: models.CollectionTasks, TargetID: "a", Payload: map[string]any{"done": true}})
	c := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionGoals, TargetID: "g"})

	assert.NotEmpty(t, a.Op.ID)
	assert.False(t, a.Op.CreatedAt.IsZero())
	assert.Less(t, a.Op.Seq, b.Op.Seq)
	assert.Less(t, b.Op.Seq, c.Op.Seq)
	assert.Equal(t, 3, q.Len())
	assert.Len(t, q.Pending(models.CollectionTasks, "a"), 2)
}

func TestOperationQueue_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	q := newTestQueue(t, storage)

	var ids []string
	for _, target := range []string{"a", "b", "c"} {
		res := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: target, Payload: map[string]any{"title": target}})
		ids = append(ids, res.Op.ID)
	}

	reloaded := NewOperationQueue(testUserID, storage, logger.Nop())
	require.NoError(t, reloaded.Load(ctx))

	ops := reloaded.PeekAll()
	require.Len(t, ops, 3)
	for i, op := range ops {
		assert.Equal(t, ids[i], op.ID)
		assert.Equal(t, "abc"[i:i+1], op.Payload["title"])
	}

	next := enqueue(t, reloaded, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "d"})
	assert.Greater(t, next.Op.Seq, ops[2].Seq, "sequence continues after reload")
}

func TestOperationQueue_LoadSortsBySeq(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()

	raw, err := json.Marshal([]models.QueuedOperation{
		{ID: "2", Seq: 2, Kind: models.OpUpdate, Collection: models.CollectionTasks, TargetID: "a"},
		{ID: "1", Seq: 1, Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"},
	})
	require.NoError(t, err)
	require.NoError(t, storage.SetItem(ctx, queueKey(testUserID), string(raw)))

	q := newTestQueue(t, storage)
	assert.Equal(t, []models.OpKind{models.OpCreate, models.OpUpdate}, opKinds(q.PeekAll()))
}

func TestOperationQueue_CorruptQueueStartsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, queueKey(testUserID), "{not json"))

	q := newTestQueue(t, storage)
	assert.Equal(t, 0, q.Len())

	kept, ok, err := storage.GetItem(ctx, queueKey(testUserID)+":corrupt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{not json", kept)
}

func TestOperationQueue_StorageFailureKeepsQueueInMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mock.NewMockLocalStorage(ctrl)
	storage.EXPECT().GetItem(gomock.Any(), queueKey(testUserID)).Return("", false, errors.New("disk I/O error"))
	storage.EXPECT().SetItem(gomock.Any(), queueKey(testUserID), gomock.Any()).Return(errors.New("disk I/O error")).AnyTimes()

	q := newTestQueue(t, storage)
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})

	assert.Equal(t, 1, q.Len())
}

func TestOperationQueue_UpdateAfterPendingDelete(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())
	enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a"})

	tests := []struct {
		name string
		op   models.QueuedOperation
	}{
		{name: "update", op: models.QueuedOperation{Kind: models.OpUpdate, Collection: models.CollectionTasks, TargetID: "a", Payload: map[string]any{"x": 1.0}}},
		{name: "increment", op: models.QueuedOperation{Kind: models.OpIncrement, Collection: models.CollectionTasks, TargetID: "a", Field: "n", Delta: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := q.Enqueue(context.Background(), tt.op)
			assert.ErrorIs(t, err, ErrTargetDeleted)
			assert.Equal(t, 1, q.Len())
		})
	}
}

func TestOperationQueue_DeleteCollapsesPendingCreate(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())

	other := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "other"})
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})
	enqueue(t, q, models.QueuedOperation{Kind: models.OpUpdate, Collection: models.CollectionTasks, TargetID: "a", Payload: map[string]any{"done": true}})

	res := enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a"})

	assert.True(t, res.Collapsed)
	assert.Empty(t, res.Op.ID)
	assert.Equal(t, []models.OpKind{models.OpCreate, models.OpUpdate}, opKinds(res.Dropped))
	ops := q.PeekAll()
	require.Len(t, ops, 1)
	assert.Equal(t, other.Op.ID, ops[0].ID)
}

func TestOperationQueue_DeleteDoesNotCollapseInFlightCreate(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})

	_, ok := q.Next(time.Now())
	require.True(t, ok)

	res := enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a"})
	assert.False(t, res.Collapsed)
	assert.Equal(t, []models.OpKind{models.OpCreate, models.OpDelete}, opKinds(q.PeekAll()))
}

func TestOperationQueue_NextTakesOneHeadAtATime(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())
	now := time.Now()
	first := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "b"})

	op, ok := q.Next(now)
	require.True(t, ok)
	assert.Equal(t, first.Op.ID, op.ID)

	_, ok = q.Next(now)
	assert.False(t, ok, "head is in flight")

	q.Release(op.ID)
	again, ok := q.Next(now)
	require.True(t, ok)
	assert.Equal(t, first.Op.ID, again.ID)

	assert.True(t, q.Dequeue(context.Background(), op.ID))
	assert.False(t, q.Dequeue(context.Background(), op.ID))
	next, ok := q.Next(now)
	require.True(t, ok)
	assert.Equal(t, "b", next.TargetID)
}

func TestOperationQueue_HeldHeadBlocksQueue(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())
	now := time.Now()
	hold := now.Add(time.Minute)

	enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a", HoldUntil: &hold})
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "b"})

	_, ok := q.Next(now)
	assert.False(t, ok)

	op, ok := q.Next(hold)
	require.True(t, ok)
	assert.Equal(t, models.OpDelete, op.Kind)
}

func TestOperationQueue_Cancel(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	hold := now.Add(time.Minute)

	t.Run("held operation is removed", func(t *testing.T) {
		q := newTestQueue(t, store.NewMemoryStorage())
		res := enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a", HoldUntil: &hold})

		assert.True(t, q.Cancel(ctx, res.Op.ID, now))
		assert.Equal(t, 0, q.Len())
	})

	t.Run("expired hold", func(t *testing.T) {
		q := newTestQueue(t, store.NewMemoryStorage())
		res := enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a", HoldUntil: &hold})

		assert.False(t, q.Cancel(ctx, res.Op.ID, hold))
		assert.Equal(t, 1, q.Len())
	})

	t.Run("in flight", func(t *testing.T) {
		q := newTestQueue(t, store.NewMemoryStorage())
		res := enqueue(t, q, models.QueuedOperation{Kind: models.OpDelete, Collection: models.CollectionTasks, TargetID: "a", HoldUntil: &hold})
		_, ok := q.Next(hold)
		require.True(t, ok)

		assert.False(t, q.Cancel(ctx, res.Op.ID, now))
	})

	t.Run("unknown id", func(t *testing.T) {
		q := newTestQueue(t, store.NewMemoryStorage())
		assert.False(t, q.Cancel(ctx, "missing", now))
	})
}

func TestOperationQueue_MarkAttempt(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemoryStorage()
	q := newTestQueue(t, storage)
	res := enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a"})

	q.MarkAttempt(ctx, res.Op.ID, errors.New("boom"))
	q.MarkAttempt(ctx, res.Op.ID, errors.New("still boom"))

	reloaded := newTestQueue(t, storage)
	ops := reloaded.PeekAll()
	require.Len(t, ops, 1)
	assert.Equal(t, 2, ops[0].AttemptCount)
	assert.Equal(t, "still boom", ops[0].LastError)
}

func TestOperationQueue_PeekAllReturnsCopies(t *testing.T) {
	q := newTestQueue(t, store.NewMemoryStorage())
	enqueue(t, q, models.QueuedOperation{Kind: models.OpCreate, Collection: models.CollectionTasks, TargetID: "a", Payload: map[string]any{"title": "x"}})

	ops := q.PeekAll()
	ops[0].Payload["title"] = "changed"

	assert.Equal(t, "x", q.PeekAll()[0].Payload["title"])
}
