package outbox

import (
	"context"
	"errors"
	"sync"
)

// EnvelopeHandler consumes relayed events.
type EnvelopeHandler interface {
	HandleEnvelope(ctx context.Context, env Envelope) error
}

// LocalPublisher delivers envelopes to in-process subscribers. It stands in for the broker
// when none is configured.
type LocalPublisher struct {
	mu       sync.RWMutex
	handlers map[string][]EnvelopeHandler
}

func NewLocalPublisher() *LocalPublisher {
	return &LocalPublisher{handlers: make(map[string][]EnvelopeHandler)}
}

func (p *LocalPublisher) Subscribe(topic string, h EnvelopeHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = append(p.handlers[topic], h)
}

func (p *LocalPublisher) Publish(ctx context.Context, topic string, _ string, payload []byte, _ map[string]string) error {
	p.mu.RLock()
	handlers := append([]EnvelopeHandler(nil), p.handlers[topic]...)
	p.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	var errs []error
	for _, h := range handlers {
		if err := h.HandleEnvelope(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type EnvelopeHandlerFunc func(ctx context.Context, env Envelope) error

func (f EnvelopeHandlerFunc) HandleEnvelope(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// Projector applies a decoded event to a read model.
type Projector interface {
	Project(ctx context.Context, eventID, name string, data []byte) error
}

// ProjectTo adapts p to an EnvelopeHandler.
func ProjectTo(p Projector) EnvelopeHandler {
	return EnvelopeHandlerFunc(func(ctx context.Context, env Envelope) error {
		return p.Project(ctx, env.ID, env.EventName(), env.Data)
	})
}
