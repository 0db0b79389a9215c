package session

import "context"

// Store maps session tokens to payloads with expiration.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create stores data under a fresh token and returns the token.
	Create(ctx context.Context, data Data) (string, error)
	// Get returns the payload, or ErrNotFound if the session is absent or expired.
	Get(ctx context.Context, id string) (Data, error)
	// Update replaces the payload and refreshes the expiry. Unknown ids are
	// ignored and no error is returned.
	Update(ctx context.Context, id string, data Data) error
	// Delete removes the session. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
