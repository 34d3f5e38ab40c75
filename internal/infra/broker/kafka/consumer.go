package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"reva/internal/infra/outbox"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		if err := c.group.Consume(ctx, topics, consumerGroupHandler{handler: c.handler, logger: c.logger}); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handler.Handle(sess.Context(), message); err != nil {
			if h.logger != nil {
				h.logger.Warn("kafka message not handled", "topic", message.Topic, "offset", message.Offset, "error", err)
			}
			continue
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

// EnvelopeMessages decodes CloudEvents envelopes and hands them to an outbox.EnvelopeHandler.
type EnvelopeMessages struct {
	Handler outbox.EnvelopeHandler
}

func (m EnvelopeMessages) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	env, err := outbox.DecodeEnvelope(msg.Value)
	if err != nil {
		return err
	}
	return m.Handler.HandleEnvelope(ctx, env)
}
