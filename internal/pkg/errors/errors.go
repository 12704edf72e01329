package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrCameraUnavailable means the capture device could not be opened.
	// The session never starts and no report is produced.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrSessionNotRunning is returned by dashboard stop/status operations
	// when no monitoring session is active.
	ErrSessionNotRunning = errors.New("session not running")
	// ErrNoStrategy means no recognition strategy candidate could be probed.
	ErrNoStrategy = errors.New("no recognition strategy available")
)
