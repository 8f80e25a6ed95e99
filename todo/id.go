package todo

import (
	"strconv"
	"sync"
	"time"

	"github.com/ImL1s/TodoListDemo-sub002/internal/ids"
	"github.com/google/uuid"
)

// IDGenerator produces identifiers for new todos. The repository checks
// every generated ID against the collection and asks again on collision.
type IDGenerator interface {
	NewID(text string, now time.Time) string
}

// IDSeeder is implemented by generators that must continue after the
// IDs already present in storage.
type IDSeeder interface {
	Seed(existing []string)
}

// IDStrategy names a built-in IDGenerator.
type IDStrategy string

const (
	IDStrategyHash    IDStrategy = "hash"
	IDStrategyCounter IDStrategy = "counter"
	IDStrategyUUID    IDStrategy = "uuid"
)

// NewIDGenerator returns the generator for a strategy name. Unknown or
// empty names fall back to hash IDs.
func NewIDGenerator(strategy IDStrategy) IDGenerator {
	switch strategy {
	case IDStrategyCounter:
		return &CounterIDs{}
	case IDStrategyUUID:
		return UUIDIDs{}
	default:
		return HashIDs{}
	}
}

// HashIDs derives an 8-character ID from the text and creation time.
type HashIDs struct{}

// NewID implements IDGenerator.
func (HashIDs) NewID(text string, now time.Time) string {
	return GenerateID(text, now)
}

// GenerateID creates an 8-character alphanumeric ID from a text and timestamp.
func GenerateID(text string, timestamp time.Time) string {
	return ids.GenerateWithTimestamp(text, timestamp, ids.DefaultLength)
}

// CounterIDs hands out increasing decimal IDs.
type CounterIDs struct {
	mu   sync.Mutex
	last int64
}

// NewID implements IDGenerator.
func (c *CounterIDs) NewID(string, time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return strconv.FormatInt(c.last, 10)
}

// Seed moves the counter past every numeric ID in existing.
func (c *CounterIDs) Seed(existing []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range existing {
		value, err := strconv.ParseInt(id, 10, 64)
		if err == nil && value > c.last {
			c.last = value
		}
	}
}

// UUIDIDs generates random version 4 UUIDs.
type UUIDIDs struct{}

// NewID implements IDGenerator.
func (UUIDIDs) NewID(string, time.Time) string {
	return uuid.NewString()
}
