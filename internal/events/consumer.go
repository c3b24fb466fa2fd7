// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/metrics"
)

// ChangeHandler reacts to a history change.
type ChangeHandler func(ctx context.Context, c history.Change) error

// Consumer delivers history changes to registered handlers. Every message
// is acked after its handlers run; failures are logged rather than
// redelivered because consumers only derive state that can be rebuilt.
type Consumer struct {
	bus      *Bus
	logger   zerolog.Logger
	mu       sync.RWMutex
	handlers []ChangeHandler

	ready     chan struct{}
	readyOnce sync.Once
}

// NewConsumer creates a Consumer on bus.
func NewConsumer(bus *Bus) *Consumer {
	return &Consumer{
		bus:    bus,
		logger: logging.WithComponent("events"),
		ready:  make(chan struct{}),
	}
}

// Handle registers fn. Handlers run in registration order.
func (c *Consumer) Handle(fn ChangeHandler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, fn)
	c.mu.Unlock()
}

// Ready is closed once Serve has subscribed.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// Serve consumes until ctx is canceled or the bus closes. It implements
// suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, TopicHistoryChanged)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicHistoryChanged, err)
	}
	c.readyOnce.Do(func() { close(c.ready) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	defer msg.Ack()
	metrics.EventsConsumed.Inc()

	var change history.Change
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed history change")
		return
	}

	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, change); err != nil {
			c.logger.Error().Err(err).
				Str("message_uuid", msg.UUID).
				Str("kind", change.Kind).
				Str("date", change.Date).
				Msg("history change handler failed")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string {
	return "history-change-consumer"
}
