package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidTokenCount = errors.New("invalid token count")
	ErrContextCancelled  = errors.New("context cancelled")
	ErrAlreadyStarted    = errors.New("rate limiter cleanup already started")
	ErrNotStarted        = errors.New("rate limiter cleanup not started")
)
