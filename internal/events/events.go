// Package events publishes domain events to Redis pub/sub channels
// consumed by the gateway and the notification service.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobmate/matching-service/internal/model"
)

// Channel names shared with downstream consumers.
const (
	ChannelMatchPromoted = "EVENT_MATCH_PROMOTED"
	ChannelSendDigest    = "CMD_SEND_DIGEST"
)

// Publisher publishes matching-service events over Redis.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishPromotion announces that a borderline posting was promoted to
// a full match during rescoring.
func (p *Publisher) PublishPromotion(ctx context.Context, candidateID, postingID string, score int) error {
	event, _ := json.Marshal(map[string]any{
		"type":        ChannelMatchPromoted,
		"candidateId": candidateID,
		"postingId":   postingID,
		"score":       score,
	})
	if err := p.rdb.Publish(ctx, ChannelMatchPromoted, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelMatchPromoted, err)
	}
	return nil
}

// SendDigest asks the notification service to send a digest email.
// Returns true when the command was accepted onto the channel.
func (p *Publisher) SendDigest(ctx context.Context, candidateID string, cadence model.NotificationCadence, matchCount int) (bool, error) {
	cmd, _ := json.Marshal(map[string]any{
		"type":        ChannelSendDigest,
		"candidateId": candidateID,
		"cadence":     string(cadence),
		"matchCount":  matchCount,
	})
	if err := p.rdb.Publish(ctx, ChannelSendDigest, cmd).Err(); err != nil {
		return false, fmt.Errorf("publish %s: %w", ChannelSendDigest, err)
	}
	return true, nil
}
