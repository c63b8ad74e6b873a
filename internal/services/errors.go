package services

import "errors"

// Precondition errors surfaced by session commands. All of them are detected
// before any log write happens, so a rejected command leaves no trace in the
// activity log.
var (
	// ErrAlreadyActive: start requested while a session of the same kind is
	// already open in scope.
	ErrAlreadyActive = errors.New("a session is already active")

	// ErrNoActiveSession: end/pause/complete requested with nothing open.
	ErrNoActiveSession = errors.New("no active session")

	// ErrNoActiveShift: cleaning command issued outside an open shift.
	ErrNoActiveShift = errors.New("no active shift")

	// ErrCleaningStillOpen: shift end requested while a nested cleaning is
	// open. The engine never cascades; the cleaning must be closed first.
	ErrCleaningStillOpen = errors.New("a cleaning is still open for this shift")
)
