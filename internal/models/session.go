package models

import "time"

// SessionKind selects between the two session state machines. Shifts and
// cleanings share identical start/end/pause/auto-end semantics and differ
// only in their event kinds, scope and duration ceiling.
type SessionKind string

const (
	SessionShift    SessionKind = "shift"
	SessionCleaning SessionKind = "cleaning"
)

// StartKind returns the event kind appended when a session of this kind starts.
func (k SessionKind) StartKind() string {
	if k == SessionCleaning {
		return KindCleaningStart
	}
	return KindShiftStart
}

// EndKind returns the event kind appended when a session of this kind ends.
func (k SessionKind) EndKind() string {
	if k == SessionCleaning {
		return KindCleaningEnd
	}
	return KindShiftEnd
}

// Session is the derived view of an active (or just-closed) session. It is
// computed from the activity log, never stored directly.
type Session struct {
	ID             int         `json:"id"`
	Kind           SessionKind `json:"kind"`
	UserID         int         `json:"user_id"`
	ShiftID        *int        `json:"shift_id,omitempty"`
	LocationID     *int        `json:"location_id,omitempty"`
	LocationName   string      `json:"location_name"`
	Status         string      `json:"status"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	ElapsedSeconds int64       `json:"elapsed_seconds"`
	Duration       string      `json:"duration,omitempty"`
}

// HistoryRow is one line of shift or cleaning history.
type HistoryRow struct {
	ID              int        `json:"id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Status          string     `json:"status"`
	LocationName    string     `json:"location_name"`
	DurationSeconds int64      `json:"duration_seconds"`
	Duration        string     `json:"duration"`
	Cleanings       int        `json:"cleanings,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// StartSessionRequest is the request body for starting a shift or cleaning.
type StartSessionRequest struct {
	QRPayload string `json:"qr_payload"`
}

// EndSessionRequest is the request body for ending a shift or cleaning.
type EndSessionRequest struct {
	WithScan  bool   `json:"with_scan"`
	QRPayload string `json:"qr_payload,omitempty"`
}

// CompleteCleaningRequest closes a cleaning together with the worker's
// free-text summary and previously uploaded photo attachments.
type CompleteCleaningRequest struct {
	Notes         string `json:"notes"`
	AttachmentIDs []int  `json:"attachment_ids"`
}

// CompleteCleaningResult is the response for a summary close. Warning is set
// when a secondary write (notes, attachment links) failed after the session
// was already durably closed.
type CompleteCleaningResult struct {
	Session *Session `json:"session"`
	Warning string   `json:"warning,omitempty"`
}
