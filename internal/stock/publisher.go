package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StockUpdate is the payload broadcast to an event's stock channel
// after every ledger mutation.
type StockUpdate struct {
	TierID    uuid.UUID `json:"tierId"`
	Remaining int       `json:"remaining"`
}

// Publisher broadcasts stock updates to subscribers of an event's
// topic. Delivery is fire-and-forget: a failed publish never blocks or
// reverses a committed reservation.
type Publisher interface {
	Publish(ctx context.Context, eventID uuid.UUID, update StockUpdate) error
}

// StockTopic is the per-event channel stock updates are published on.
func StockTopic(eventID uuid.UUID) string {
	return fmt.Sprintf("stock/%s", eventID)
}

// RedisPublisher publishes JSON-encoded updates over redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventID uuid.UUID, update StockUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encoding stock update: %w", err)
	}
	if err := p.client.Publish(ctx, StockTopic(eventID), payload).Err(); err != nil {
		return fmt.Errorf("publishing stock update: %w", err)
	}
	return nil
}

// MemoryPublisher records published updates per topic, standing in for
// a broker in tests.
type MemoryPublisher struct {
	mu      sync.Mutex
	updates map[string][]StockUpdate
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{updates: make(map[string][]StockUpdate)}
}

func (p *MemoryPublisher) Publish(ctx context.Context, eventID uuid.UUID, update StockUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	topic := StockTopic(eventID)
	p.updates[topic] = append(p.updates[topic], update)
	return nil
}

// Updates returns everything published to an event's topic so far.
func (p *MemoryPublisher) Updates(eventID uuid.UUID) []StockUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StockUpdate(nil), p.updates[StockTopic(eventID)]...)
}
