package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/eryndor/pkg/state"
	"github.com/redis/go-redis/v9"
)

// WorldChannel carries every world change to all API instances.
const WorldChannel = "world-changes"

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeWorldChange EventType = "world.change"
)

// Event represents a generic event structure
type Event struct {
	Type   EventType      `json:"type"`
	Region string         `json:"region,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution.
// A nil *Broadcaster is valid and drops every event.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishWorldChange publishes a world.change event for a freshly logged change.
func (b *Broadcaster) PublishWorldChange(ctx context.Context, wc *state.WorldChange) error {
	if b == nil || b.redisClient == nil || wc == nil {
		return nil
	}

	event := Event{
		Type:   EventTypeWorldChange,
		Region: wc.Region,
		Data: map[string]any{
			"id":                     wc.ID.String(),
			"region":                 wc.Region,
			"location":               wc.Location,
			"change_summary":         wc.ChangeSummary,
			"changed_by_player_id":   wc.ChangedByPlayerID.String(),
			"changed_by_player_name": wc.ChangedByPlayerName,
			"created_at":             wc.CreatedAt,
		},
	}
	return b.publish(ctx, WorldChannel, event)
}

// Subscribe opens a subscription to the world channel. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, WorldChannel)
}

// Enabled reports whether events are actually delivered.
func (b *Broadcaster) Enabled() bool {
	return b != nil && b.redisClient != nil
}

func (b *Broadcaster) publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"region", event.Region,
	)

	return nil
}
