package models

import "time"

// ActivityEvent is the only persisted record of the activity log. Rows are
// append-only: after insert only status, notes and the pause fields may be
// patched. Session transitions are expressed by appending new events, never
// by rewriting old ones.
type ActivityEvent struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	LocationID    *int       `json:"location_id,omitempty"`
	Kind          string     `json:"kind"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
	RelatedID     *int       `json:"related_id,omitempty"`
	PausedAt      *time.Time `json:"paused_at,omitempty"`
	PausedSeconds int        `json:"paused_seconds"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Event kind constants
const (
	KindShiftStart    = "shift_start"
	KindShiftEnd      = "shift_end"
	KindCleaningStart = "cleaning_start"
	KindCleaningEnd   = "cleaning_end"
	KindLogin         = "login"
	KindLogout        = "logout"
)

// Status constants
const (
	StatusActive        = "active"
	StatusPaused        = "paused"
	StatusDoneWithScan  = "finished with scan"
	StatusDoneNoScan    = "finished without scan"
	StatusDoneAutomatic = "finished automatically"

	// StatusRecorded marks point-in-time events (login/logout) that have no
	// open/closed lifecycle of their own.
	StatusRecorded = "recorded"
)

// IsOpen reports whether the event is a start event that has not been closed
// via its status. A paused session still counts as open.
func (e *ActivityEvent) IsOpen() bool {
	return e.Status == StatusActive || e.Status == StatusPaused
}

// ElapsedSeconds returns the pause-aware running time of an open start event.
// It is always recomputed from the start timestamp, never accumulated, so it
// stays correct across process restarts and skipped ticks. While paused the
// value is frozen at the moment the pause began.
func (e *ActivityEvent) ElapsedSeconds(now time.Time) int64 {
	if e.PausedAt != nil {
		return int64(e.PausedAt.Sub(e.StartTime).Seconds()) - int64(e.PausedSeconds)
	}
	elapsed := int64(now.Sub(e.StartTime).Seconds()) - int64(e.PausedSeconds)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
