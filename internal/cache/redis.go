package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Leganyst/clinic-booking/internal/model"
)

const keyPrefix = "slots"

// RedisSlotCache хранит выборки под ключом, в который входит поколение врача.
// Инвалидация — INCR поколения: старые ключи просто перестают читаться
// и доживают до TTL.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{client: client, ttl: ttl}
}

// NewRedisClient создаёт клиента и проверяет соединение.
func NewRedisClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

type cachedSlot struct {
	ID        uuid.UUID `json:"id"`
	WindowID  uuid.UUID `json:"window_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Available bool      `json:"available"`
}

func genKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, doctorID)
}

func availKey(doctorID uuid.UUID, gen int64, from, to time.Time) string {
	return fmt.Sprintf("%s:avail:%s:%d:%d:%d", keyPrefix, doctorID, gen, from.Unix(), to.Unix())
}

func (c *RedisSlotCache) generation(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(doctorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisSlotCache) GetAvailable(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Slot, int64, bool, error) {
	gen, err := c.generation(ctx, doctorID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("read generation: %w", err)
	}

	raw, err := c.client.Get(ctx, availKey(doctorID, gen, from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read slots: %w", err)
	}

	var cached []cachedSlot
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, gen, false, fmt.Errorf("decode slots: %w", err)
	}

	slots := make([]model.Slot, 0, len(cached))
	for _, s := range cached {
		slots = append(slots, model.Slot{
			ID:        s.ID,
			WindowID:  s.WindowID,
			StartsAt:  s.StartsAt,
			EndsAt:    s.EndsAt,
			Available: s.Available,
		})
	}
	return slots, gen, true, nil
}

func (c *RedisSlotCache) PutAvailable(ctx context.Context, doctorID uuid.UUID, gen int64, from, to time.Time, slots []model.Slot) error {
	cached := make([]cachedSlot, 0, len(slots))
	for _, s := range slots {
		cached = append(cached, cachedSlot{
			ID:        s.ID,
			WindowID:  s.WindowID,
			StartsAt:  s.StartsAt.UTC(),
			EndsAt:    s.EndsAt.UTC(),
			Available: s.Available,
		})
	}
	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	return c.client.Set(ctx, availKey(doctorID, gen, from, to), payload, c.ttl).Err()
}

func (c *RedisSlotCache) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) error {
	return c.client.Incr(ctx, genKey(doctorID)).Err()
}
