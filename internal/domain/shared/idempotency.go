package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which integration events were already applied.
// Intake handlers consult it so a redelivered invoice or payment event does
// not append a second ledger entry.
type IdempotencyStore interface {
	// MarkProcessed records eventID for ttl.
	// Returns true if the event was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// Unmark forgets eventID so a failed delivery can be retried
	Unmark(ctx context.Context, eventID string) error

	// IsProcessed checks if an event has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed event ID is remembered
	TTL time.Duration

	// Enabled turns deduplication on or off
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
