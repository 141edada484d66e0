// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package events

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

// TopicSnapshotCommitted carries models.SnapshotCommitted payloads.
const TopicSnapshotCommitted = "snapshot.committed"

// BusConfig tunes the in-process pub/sub.
type BusConfig struct {
	// OutputChannelBuffer is the per-subscriber buffer.
	OutputChannelBuffer int64
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{OutputChannelBuffer: 64}
}

// Bus is an in-process watermill pub/sub. It implements loader.Publisher
// and provides the subscriber side for Router.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus. A nil logger discards watermill's logs.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputChannelBuffer,
		}, logger),
		logger: logger,
	}
}

// Publisher returns the underlying watermill publisher.
func (b *Bus) Publisher() message.Publisher { return b.pubsub }

// Subscriber returns the underlying watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.pubsub }

// Publish sends msgs on topic.
func (b *Bus) Publish(topic string, msgs ...*message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	if err := b.pubsub.Publish(topic, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Add(float64(len(msgs)))
	return nil
}

// PublishSnapshotCommitted encodes ev and publishes it on
// TopicSnapshotCommitted.
func (b *Bus) PublishSnapshotCommitted(ctx context.Context, ev models.SnapshotCommitted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode snapshot event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("agent", ev.Agent)
	msg.Metadata.Set("provenance_uuid", ev.ProvenanceUUID.String())
	msg.Metadata.Set("timestamp", strconv.FormatInt(ev.Timestamp, 10))

	return b.Publish(TopicSnapshotCommitted, msg)
}

// Close stops the bus and closes every subscription. Safe to call twice.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// DecodeSnapshotCommitted parses a TopicSnapshotCommitted payload.
func DecodeSnapshotCommitted(msg *message.Message) (models.SnapshotCommitted, error) {
	var ev models.SnapshotCommitted
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("decode snapshot event %s: %w", msg.UUID, err)
	}
	return ev, nil
}
