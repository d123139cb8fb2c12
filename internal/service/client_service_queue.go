// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-habit-tracker/internal/logger"
	"github.com/MKhiriev/go-habit-tracker/internal/store"
	"github.com/MKhiriev/go-habit-tracker/internal/utils"
	"github.com/MKhiriev/go-habit-tracker/models"
)

type operationQueue struct {
	mu       sync.Mutex
	userID   int64
	ops      []models.QueuedOperation
	seq      int64
	inFlight string

	storage store.LocalStorage
	ids     utils.IDFunc
	now     func() time.Time
	logger  *logger.Logger
}

// NewOperationQueue returns the [OperationQueue] of userID persisted in
// storage under "queue:{userID}". Call Load before use.
func NewOperationQueue(userID int64, storage store.LocalStorage, logger *logger.Logger) OperationQueue {
	return &operationQueue{
		userID:  userID,
		storage: storage,
		ids:     utils.NewTimeOrderedID,
		now:     time.Now,
		logger:  logger,
	}
}

func queueKey(userID int64) string {
	return fmt.Sprintf("queue:%d", userID)
}

func (q *operationQueue) Load(ctx context.Context) error {
	raw, ok, err := q.storage.GetItem(ctx, queueKey(q.userID))
	if err != nil {
		q.logger.Warn().Err(err).Int64("user_id", q.userID).Msg("error reading persisted queue, starting empty")
		return nil
	}

	var ops []models.QueuedOperation
	if ok && raw != "" {
		if err = json.Unmarshal([]byte(raw), &ops); err != nil {
			// keep the unreadable copy around for manual recovery
			q.logger.Err(err).Int64("user_id", q.userID).Msg("error decoding persisted queue, starting empty")
			if err = q.storage.SetItem(ctx, queueKey(q.userID)+":corrupt", raw); err != nil {
				return fmt.Errorf("error saving unreadable queue: %w", err)
			}
			ops = nil
		}
	}
	slices.SortStableFunc(ops, func(a, b models.QueuedOperation) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = ops
	q.inFlight = ""
	q.seq = 0
	if len(ops) > 0 {
		q.seq = ops[len(ops)-1].Seq
	}

	return nil
}

func (q *operationQueue) Enqueue(ctx context.Context, op models.QueuedOperation) (EnqueueResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pendingDelete := false
	createIdx := -1
	for i, queued := range q.ops {
		if queued.Collection != op.Collection || queued.TargetID != op.TargetID {
			continue
		}
		switch queued.Kind {
		case models.OpDelete:
			pendingDelete = true
		case models.OpCreate:
			if createIdx < 0 && queued.ID != q.inFlight {
				createIdx = i
			}
		}
	}

	switch op.Kind {
	case models.OpUpdate, models.OpIncrement:
		if pendingDelete {
			return EnqueueResult{}, ErrTargetDeleted
		}
	case models.OpDelete:
		if createIdx >= 0 {
			return q.collapse(ctx, op, createIdx), nil
		}
	}

	if op.ID == "" {
		op.ID = q.ids()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = q.now()
	}
	q.seq++
	op.Seq = q.seq
	q.ops = append(q.ops, op)
	q.persist(ctx)

	return EnqueueResult{Op: op}, nil
}

// collapse drops the pending CREATE at createIdx and every later operation of
// the same target. The DELETE itself is not queued.
func (q *operationQueue) collapse(ctx context.Context, del models.QueuedOperation, createIdx int) EnqueueResult {
	kept := make([]models.QueuedOperation, 0, len(q.ops))
	var dropped []models.QueuedOperation
	for i, queued := range q.ops {
		if i >= createIdx && queued.Collection == del.Collection && queued.TargetID == del.TargetID && queued.ID != q.inFlight {
			dropped = append(dropped, queued)
			continue
		}
		kept = append(kept, queued)
	}
	q.ops = kept
	q.persist(ctx)

	q.logger.Debug().
		Str("collection", del.Collection.String()).
		Str("target_id", del.TargetID).
		Int("dropped", len(dropped)).
		Msg("delete collapsed pending create")

	return EnqueueResult{Collapsed: true, Dropped: dropped}
}

func (q *operationQueue) Dequeue(ctx context.Context, opID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(opID)
	if idx < 0 {
		return false
	}
	q.ops = slices.Delete(q.ops, idx, idx+1)
	if q.inFlight == opID {
		q.inFlight = ""
	}
	q.persist(ctx)

	return true
}

func (q *operationQueue) PeekAll() []models.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	return cloneOps(q.ops)
}

func (q *operationQueue) Pending(collection models.Collection, targetID string) []models.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []models.QueuedOperation
	for _, op := range q.ops {
		if op.Collection == collection && op.TargetID == targetID {
			pending = append(pending, cloneOp(op))
		}
	}
	return pending
}

func (q *operationQueue) Cancel(ctx context.Context, opID string, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(opID)
	if idx < 0 || q.inFlight == opID || !q.ops[idx].Held(now) {
		return false
	}
	q.ops = slices.Delete(q.ops, idx, idx+1)
	q.persist(ctx)

	return true
}

func (q *operationQueue) Next(now time.Time) (models.QueuedOperation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight != "" || len(q.ops) == 0 || q.ops[0].Held(now) {
		return models.QueuedOperation{}, false
	}
	q.inFlight = q.ops[0].ID

	return cloneOp(q.ops[0]), true
}

func (q *operationQueue) Release(opID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight == opID {
		q.inFlight = ""
	}
}

func (q *operationQueue) MarkAttempt(ctx context.Context, opID string, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(opID)
	if idx < 0 {
		return
	}
	q.ops[idx].AttemptCount++
	if err != nil {
		q.ops[idx].LastError = err.Error()
	}
	q.persist(ctx)
}

func (q *operationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ops)
}

func (q *operationQueue) indexOf(opID string) int {
	return slices.IndexFunc(q.ops, func(op models.QueuedOperation) bool {
		return op.ID == opID
	})
}

// persist must be called with q.mu held. A storage failure leaves the queue
// in memory only.
func (q *operationQueue) persist(ctx context.Context) {
	raw, err := json.Marshal(q.ops)
	if err != nil {
		q.logger.Err(err).Int64("user_id", q.userID).Msg("error encoding queue")
		return
	}
	if err = q.storage.SetItem(ctx, queueKey(q.userID), string(raw)); err != nil {
		q.logger.Warn().Err(err).Int64("user_id", q.userID).Int("len", len(q.ops)).Msg("error persisting queue")
	}
}

func cloneOp(op models.QueuedOperation) models.QueuedOperation {
	op.Payload = models.CloneFields(op.Payload)
	if op.HoldUntil != nil {
		hold := *op.HoldUntil
		op.HoldUntil = &hold
	}
	return op
}

func cloneOps(ops []models.QueuedOperation) []models.QueuedOperation {
	out := make([]models.QueuedOperation, len(ops))
	for i, op := range ops {
		out[i] = cloneOp(op)
	}
	return out
}
