package session

import "context"

// Store persists session records. Implementations are multi-writer and
// must synchronize internally.
type Store interface {
	// Save writes a record, creating or replacing it.
	Save(ctx context.Context, rec *Record) error

	// Load returns the record for id, ErrNotFound when absent and
	// ErrExpired when present but past its expiry.
	Load(ctx context.Context, id string) (*Record, error)

	// Delete removes a record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all expired records.
	DeleteExpired(ctx context.Context) error
}
