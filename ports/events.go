package ports

import (
	"context"

	"github.com/layer-3/walletvault/core"
)

// EventPublisher publishes storage events to other instances and auditors
type EventPublisher interface {
	Publish(ctx context.Context, event core.StorageEvent) error
}
