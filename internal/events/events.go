// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package events carries history change notifications between the store
// and the components that derive state from it, such as the analytics
// cache. Messages travel over an in-process Watermill Go channel pub/sub.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/ratewise/internal/logging"
)

// TopicHistoryChanged carries a history.Change for every committed write.
const TopicHistoryChanged = "history.changed"

// BusConfig tunes the in-process pub/sub.
type BusConfig struct {
	// Buffer is the per-subscriber output channel size.
	Buffer int64

	// BlockUntilAck makes Publish wait for subscribers to ack.
	BlockUntilAck bool
}

// DefaultBusConfig returns a buffered, non-blocking bus.
func DefaultBusConfig() BusConfig {
	return BusConfig{Buffer: 256}
}

// Bus is an in-process publish/subscribe channel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus creates a Bus. Messages published with no subscriber are dropped.
func NewBus(cfg BusConfig) *Bus {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            cfg.Buffer,
			BlockPublishUntilSubscriberAck: cfg.BlockUntilAck,
		}, logger),
		logger: logger,
	}
}

// Publish sends msgs to topic.
func (b *Bus) Publish(topic string, msgs ...*message.Message) error {
	if err := b.pubsub.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream for topic. The channel closes when
// ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down and closes every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
