package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "reva/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Pending is a claimed outbox record with its delivery bookkeeping.
type Pending struct {
	Record   appoutbox.EventRecord
	Attempts int
}

// Source is the durable side of the outbox the relay drains.
type Source interface {
	Claim(ctx context.Context, workerID string) (*Pending, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// DeliveryObserver is told about every publish attempt.
type DeliveryObserver interface {
	OutboxDelivered(topic string)
	OutboxFailed(topic string)
}

// Worker relays outbox records to a Publisher as CloudEvents.
type Worker struct {
	Source      Source
	Publisher   Publisher
	Interval    time.Duration
	BatchSize   int
	TopicPrefix string
	EventSource string
	ID          string
	Backoff     []time.Duration
	Observer    DeliveryObserver
	Logger      *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Publisher == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if w.Logger != nil {
					w.Logger.Error("outbox drain failed", "error", err)
				}
			}
		}
	}
}

// Drain relays up to BatchSize records and returns how many were claimed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	if w.Source == nil || w.Publisher == nil {
		return 0, ErrWorkerNotConfigured
	}
	claimed := 0
	for claimed < w.batchSize() {
		pending, err := w.Source.Claim(ctx, w.workerID())
		if err != nil {
			return claimed, err
		}
		if pending == nil {
			return claimed, nil
		}
		claimed++
		if err := w.relay(ctx, pending); err != nil {
			return claimed, err
		}
	}
	return claimed, nil
}

func (w *Worker) relay(ctx context.Context, pending *Pending) error {
	rec := pending.Record
	topic := TopicFor(w.TopicPrefix, rec.Name)
	payload, headers, err := w.format(rec)
	if err == nil {
		err = w.Publisher.Publish(ctx, topic, rec.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Observer != nil {
			w.Observer.OutboxFailed(topic)
		}
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event_id", rec.ID, "topic", topic, "attempts", pending.Attempts+1, "error", err)
		}
		return w.Source.MarkFailed(ctx, rec.ID, w.nextRetry(pending.Attempts), err.Error())
	}
	if w.Observer != nil {
		w.Observer.OutboxDelivered(topic)
	}
	return w.Source.MarkSent(ctx, rec.ID)
}

func (w *Worker) format(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, errors.New("outbox: record payload is not valid json")
	}
	env := Envelope{
		SpecVersion:     specVersion,
		ID:              rec.ID,
		Type:            rec.Name + ".v1",
		Source:          w.eventSource(),
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt,
		DataContentType: "application/json",
		Data:            json.RawMessage(rec.Payload),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	headers["content-type"] = cloudEventsContent
	return payload, headers, nil
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-relay"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 50
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	switch {
	case attempts < len(w.Backoff):
		return time.Now().Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	default:
		return time.Now().Add(5 * time.Second)
	}
}

func (w *Worker) eventSource() string {
	if w.EventSource != "" {
		return w.EventSource
	}
	return "app://reva"
}
