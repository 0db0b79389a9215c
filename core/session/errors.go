package session

import "errors"

var (
	// ErrNotFound is returned when a session is absent or has expired.
	ErrNotFound = errors.New("session not found")
	// ErrTokenGeneration is returned when a random token cannot be produced.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrSaveSession is returned when writing a session to the backend fails.
	ErrSaveSession = errors.New("failed to save session")
	// ErrDeleteSession is returned when deleting a session from the backend fails.
	ErrDeleteSession = errors.New("failed to delete session")
	// ErrAlreadyStarted is returned by Start on a running sweeper.
	ErrAlreadyStarted = errors.New("session sweeper already started")
	// ErrNotStarted is returned by Stop when the sweeper is not running.
	ErrNotStarted = errors.New("session sweeper not started")
	// ErrSweepDisabled is returned by Start when the cleanup interval is zero.
	ErrSweepDisabled = errors.New("session sweep interval must be > 0")
)
