package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "reva/internal/app/outbox"
	infraoutbox "reva/internal/infra/outbox"
)

type queuedRecord struct {
	record    appoutbox.EventRecord
	attempts  int
	nextTry   time.Time
	claimed   bool
	lastError string
}

// OutboxQueue is the in-process outbox. Records enqueued inside a unit become visible
// to the relay only after the unit commits.
type OutboxQueue struct {
	mu    sync.Mutex
	items []*queuedRecord
}

func NewOutboxQueue() *OutboxQueue {
	return &OutboxQueue{}
}

func (q *OutboxQueue) Enqueue(ctx context.Context, records ...appoutbox.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	if unit, ok := activeUnit(ctx); ok {
		staged := append([]appoutbox.EventRecord(nil), records...)
		unit.OnCommit(func(context.Context) error {
			q.push(staged)
			return nil
		})
		return nil
	}
	q.push(records)
	return nil
}

func (q *OutboxQueue) push(records []appoutbox.EventRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, rec := range records {
		q.items = append(q.items, &queuedRecord{record: rec, nextTry: now})
	}
}

func (q *OutboxQueue) Claim(_ context.Context, _ string) (*infraoutbox.Pending, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, item := range q.items {
		if item.claimed || item.nextTry.After(now) {
			continue
		}
		item.claimed = true
		return &infraoutbox.Pending{Record: item.record, Attempts: item.attempts}, nil
	}
	return nil, nil
}

func (q *OutboxQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.record.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *OutboxQueue) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.record.ID == id {
			item.claimed = false
			item.attempts++
			item.nextTry = next
			item.lastError = errMsg
			return nil
		}
	}
	return nil
}

// Len reports records not yet delivered.
func (q *OutboxQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

var (
	_ appoutbox.Store    = (*OutboxQueue)(nil)
	_ infraoutbox.Source = (*OutboxQueue)(nil)
)
