package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"maps"
	"slices"
	"time"
)

// tokenBytes is the amount of randomness in a session token (256 bits).
const tokenBytes = 32

// maxTokenAttempts bounds regeneration on the astronomically unlikely collision.
const maxTokenAttempts = 5

// Data is a session payload. Values should be JSON-serializable so every
// store can persist them.
type Data map[string]any

// Clone returns a deep copy of d: nested maps and slices of the shapes JSON
// decodes into are copied too, other values are shared. A nil payload clones
// to an empty one.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Data:
		return v.Clone()
	case map[string]any:
		return map[string]any(Data(v).Clone())
	case map[string]string:
		return maps.Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	case []int:
		return slices.Clone(v)
	case []float64:
		return slices.Clone(v)
	}
	return v
}

// Session is a stored payload together with its lifetime.
type Session struct {
	ID        string    `json:"-"`
	Data      Data      `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired at now.
// A session is live up to and including its expiry instant.
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// generateToken creates a cryptographically secure random token using 32 bytes
// encoded as base64 URL-safe string without padding.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
