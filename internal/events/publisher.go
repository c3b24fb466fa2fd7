// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/metrics"
)

// Publisher announces history changes on the bus. It implements
// history.Notifier.
type Publisher struct {
	bus *Bus
}

// NewPublisher creates a Publisher on bus.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{bus: bus}
}

// Notify publishes c to TopicHistoryChanged.
func (p *Publisher) Notify(ctx context.Context, c history.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("kind", c.Kind)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.SetContext(ctx)

	err = p.bus.Publish(TopicHistoryChanged, msg)
	metrics.RecordEventPublished(c.Kind, err)
	return err
}

var _ history.Notifier = (*Publisher)(nil)
