package ratelimiter

import "time"

// Result is the outcome of a single Allow call.
type Result struct {
	// Limit is the bucket capacity.
	Limit int
	// Remaining is the number of whole tokens left after the call.
	Remaining int
	// ResetAt is when the bucket will be full again, or when the denied
	// request could have been served.
	ResetAt time.Time

	retryAfter time.Duration
}

// Allowed reports whether the tokens were granted.
func (r *Result) Allowed() bool {
	return r.retryAfter <= 0
}

// RetryAfter returns how long to wait before retrying. Zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.retryAfter < 0 {
		return 0
	}
	return r.retryAfter
}
