package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-booking-web/internal/flow"
)

// StoredCookie is a remote session cookie as exported by the API client's jar.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is what is persisted per visitor.
type Record struct {
	Memento flow.Memento   `json:"memento"`
	Cookies []StoredCookie `json:"cookies,omitempty"`
	SavedAt time.Time      `json:"savedAt"`
}

// Store persists visitor records in Redis. A nil Store or one without a client
// stores nothing.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: redisClient, ttl: ttl}
}

func (s *Store) key(visitorID string) string {
	return fmt.Sprintf("visitor:state:%s", visitorID)
}

// Enabled reports whether records are actually persisted.
func (s *Store) Enabled() bool {
	return s != nil && s.redis != nil
}

// Close releases the Redis connection, if any.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.redis.Close()
}

// Load returns the saved record, or nil when there is none.
func (s *Store) Load(ctx context.Context, visitorID string) (*Record, error) {
	if !s.Enabled() {
		return nil, nil
	}
	data, err := s.redis.Get(ctx, s.key(visitorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("visitor: get state: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("visitor: unmarshal state: %w", err)
	}
	return &rec, nil
}

// Save writes rec and refreshes its expiry.
func (s *Store) Save(ctx context.Context, visitorID string, rec Record) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("visitor: marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(visitorID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("visitor: set state: %w", err)
	}
	return nil
}

// Delete removes the visitor's record.
func (s *Store) Delete(ctx context.Context, visitorID string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(visitorID)).Err(); err != nil {
		return fmt.Errorf("visitor: delete state: %w", err)
	}
	return nil
}
