package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/ports"
)

// StorageTopic is the topic storage events are published on
const StorageTopic = "walletvault.storage"

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     StorageTopic,
	}
}

// Publish publishes a storage event
func (p *WatermillPublisher) Publish(ctx context.Context, event core.StorageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(event.Type))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. It is used when events are disabled.
type NopPublisher struct{}

// Publish implements ports.EventPublisher
func (NopPublisher) Publish(context.Context, core.StorageEvent) error { return nil }
