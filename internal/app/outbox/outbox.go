package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"reva/internal/domain/shared/events"
)

var ErrStoreRequired = errors.New("outbox: store required")

type EventRecord struct {
	ID         string            `json:"id" bson:"_id"`
	Name       string            `json:"name" bson:"name"`
	Payload    []byte            `json:"payload" bson:"payload"`
	OccurredAt time.Time         `json:"occurred_at" bson:"occurred_at"`
	Aggregate  string            `json:"aggregate" bson:"aggregate"`
	Headers    map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
}

// Outbox stages records raised while a command runs and hands them to durable storage on Flush.
type Outbox interface {
	Begin(ctx context.Context) context.Context
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
	Discard(ctx context.Context)
}

// Store persists records for the relay worker.
type Store interface {
	Enqueue(ctx context.Context, records ...EventRecord) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{"content-type": "application/json"},
	}, nil
}

// RecordDomainEvents encodes evs and adds them to box.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

type stagedKey struct{}

type staged struct {
	mu      sync.Mutex
	records []EventRecord
}

// Buffer is the Outbox used by the command pipeline. Records added outside Begin are
// enqueued immediately.
type Buffer struct {
	Store Store
}

func NewBuffer(store Store) *Buffer {
	return &Buffer{Store: store}
}

func (b *Buffer) Begin(ctx context.Context) context.Context {
	if _, ok := ctx.Value(stagedKey{}).(*staged); ok {
		return ctx
	}
	return context.WithValue(ctx, stagedKey{}, &staged{})
}

func (b *Buffer) Add(ctx context.Context, record EventRecord) error {
	if b.Store == nil {
		return ErrStoreRequired
	}
	st, ok := ctx.Value(stagedKey{}).(*staged)
	if !ok {
		return b.Store.Enqueue(ctx, record)
	}
	st.mu.Lock()
	st.records = append(st.records, record)
	st.mu.Unlock()
	return nil
}

func (b *Buffer) Flush(ctx context.Context) error {
	if b.Store == nil {
		return ErrStoreRequired
	}
	st, ok := ctx.Value(stagedKey{}).(*staged)
	if !ok {
		return nil
	}
	st.mu.Lock()
	records := st.records
	st.records = nil
	st.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	return b.Store.Enqueue(ctx, records...)
}

func (b *Buffer) Discard(ctx context.Context) {
	if st, ok := ctx.Value(stagedKey{}).(*staged); ok {
		st.mu.Lock()
		st.records = nil
		st.mu.Unlock()
	}
}

var _ Outbox = (*Buffer)(nil)
