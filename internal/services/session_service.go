package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"shift-backend/internal/cache"
	"shift-backend/internal/events"
	"shift-backend/internal/metrics"
	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
	"shift-backend/internal/timeutil"
)

// Notifier pushes session transitions to connected clients.
type Notifier interface {
	PublishSessionEvent(evt events.SessionEvent)
}

// SessionService executes the session commands: start, end, pause and
// complete, for both shifts and cleanings. Every command validates its
// preconditions against the projection, appends to the activity log, then
// updates the derived state. The log append is the one write that may fail
// a command; everything after it degrades to a logged warning.
type SessionService struct {
	Log         repositories.ActivityLogStore
	Attachments repositories.AttachmentStore
	Locations   *LocationService
	Projection  *ProjectionService
	Notifier    Notifier
	Now         func() time.Time
}

func NewSessionService(logStore repositories.ActivityLogStore, attachments repositories.AttachmentStore, locations *LocationService, projection *ProjectionService, notifier Notifier) *SessionService {
	return &SessionService{
		Log:         logStore,
		Attachments: attachments,
		Locations:   locations,
		Projection:  projection,
		Notifier:    notifier,
		Now:         timeutil.Now,
	}
}

// StartShift opens a shift for the user at the scanned location.
func (s *SessionService) StartShift(ctx context.Context, userID int, qrPayload string) (*models.Session, error) {
	existing, err := s.Projection.ActiveShiftEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyActive
	}
	return s.startSession(ctx, models.SessionShift, userID, nil, qrPayload)
}

// StartCleaning opens a cleaning nested under the user's active shift.
func (s *SessionService) StartCleaning(ctx context.Context, userID int, qrPayload string) (*models.Session, error) {
	shift, err := s.Projection.ActiveShiftEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	existing, err := s.Projection.ActiveCleaningEvent(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyActive
	}
	return s.startSession(ctx, models.SessionCleaning, userID, &shift.ID, qrPayload)
}

func (s *SessionService) startSession(ctx context.Context, kind models.SessionKind, userID int, shiftID *int, qrPayload string) (*models.Session, error) {
	loc := s.Locations.Resolve(ctx, qrPayload, kind)
	now := s.Now()

	ev := &models.ActivityEvent{
		UserID:     userID,
		LocationID: loc.LocationID,
		Kind:       kind.StartKind(),
		StartTime:  now,
		Status:     models.StatusActive,
		RelatedID:  shiftID,
	}
	if loc.LocationID == nil && loc.Name != "" {
		// Degraded resolve: keep the display name on the event itself.
		ev.Notes = &loc.Name
	}

	if err := s.Log.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("appending %s event: %w", ev.Kind, err)
	}

	metrics.SessionsStartedTotal.WithLabelValues(string(kind)).Inc()
	log.Printf("[Sessions] user %d started %s %d at %q", userID, kind, ev.ID, loc.Name)

	sess := s.Projection.SessionView(ctx, kind, ev)
	s.Projection.refreshMirror(ctx, sess)
	s.notify(string(kind)+"_started", sess)
	return sess, nil
}

// EndShift closes the user's active shift. It refuses while a cleaning is
// still open underneath; nothing cascades except on logout.
func (s *SessionService) EndShift(ctx context.Context, userID int, withScan bool) (*models.Session, error) {
	shift, err := s.Projection.ActiveShiftEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveSession
	}

	cleaning, err := s.Projection.ActiveCleaningEvent(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if cleaning != nil {
		return nil, ErrCleaningStillOpen
	}

	return s.endSession(ctx, models.SessionShift, shift, terminalStatus(withScan), nil)
}

// EndCleaning closes the active cleaning under the user's shift.
func (s *SessionService) EndCleaning(ctx context.Context, userID int, withScan bool) (*models.Session, error) {
	cleaning, err := s.activeCleaningForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.endSession(ctx, models.SessionCleaning, cleaning, terminalStatus(withScan), nil)
}

// CompleteCleaning closes the active cleaning with the worker's summary
// notes and links previously uploaded attachments to it. The close itself
// is all-or-nothing; notes and attachment links are secondary writes that
// surface as a warning when they fail.
func (s *SessionService) CompleteCleaning(ctx context.Context, userID int, notes string, attachmentIDs []int) (*models.CompleteCleaningResult, error) {
	cleaning, err := s.activeCleaningForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var noteRef *string
	if notes != "" {
		noteRef = &notes
	}
	sess, err := s.endSession(ctx, models.SessionCleaning, cleaning, models.StatusDoneWithScan, noteRef)
	if err != nil {
		return nil, err
	}

	result := &models.CompleteCleaningResult{Session: sess}
	if len(attachmentIDs) > 0 {
		linked, err := s.Attachments.LinkToCleaning(ctx, cleaning.ID, attachmentIDs)
		if err != nil {
			log.Printf("[Sessions] linking attachments to cleaning %d failed: %v", cleaning.ID, err)
			result.Warning = "cleaning saved, but attachments could not be linked"
		} else if linked < len(attachmentIDs) {
			log.Printf("[Sessions] only %d/%d attachments linked to cleaning %d", linked, len(attachmentIDs), cleaning.ID)
			result.Warning = "cleaning saved, but some attachments could not be linked"
		}
	}
	return result, nil
}

// PauseToggleCleaning pauses the active cleaning, or resumes it when it is
// already paused. Paused time is excluded from the elapsed duration and the
// watchdog leaves paused sessions alone.
func (s *SessionService) PauseToggleCleaning(ctx context.Context, userID int) (*models.Session, error) {
	cleaning, err := s.activeCleaningForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	switch cleaning.Status {
	case models.StatusPaused:
		if cleaning.PausedAt != nil {
			cleaning.PausedSeconds += int(now.Sub(*cleaning.PausedAt).Seconds())
		}
		cleaning.Status = models.StatusActive
		cleaning.PausedAt = nil
	default:
		cleaning.Status = models.StatusPaused
		cleaning.PausedAt = &now
	}

	if err := s.Log.UpdatePause(ctx, cleaning.ID, cleaning.Status, cleaning.PausedAt, cleaning.PausedSeconds); err != nil {
		return nil, fmt.Errorf("toggling pause on cleaning %d: %w", cleaning.ID, err)
	}

	log.Printf("[Sessions] user %d set cleaning %d to %s", userID, cleaning.ID, cleaning.Status)
	sess := s.Projection.SessionView(ctx, models.SessionCleaning, cleaning)
	s.Projection.refreshMirror(ctx, sess)
	s.notify("cleaning_"+cleaning.Status, sess)
	return sess, nil
}

// AutoEnd closes a session on behalf of the watchdog or the logout cascade.
func (s *SessionService) AutoEnd(ctx context.Context, kind models.SessionKind, start *models.ActivityEvent) error {
	metrics.SessionsAutoEndedTotal.WithLabelValues(string(kind)).Inc()
	_, err := s.endSession(ctx, kind, start, models.StatusDoneAutomatic, nil)
	return err
}

// EndAllForUser force-closes the user's open cleaning and shift, in that
// order. Logout is the only path that cascades like this.
func (s *SessionService) EndAllForUser(ctx context.Context, userID int) error {
	shift, err := s.Projection.ActiveShiftEvent(ctx, userID)
	if err != nil {
		return err
	}
	if shift == nil {
		return nil
	}

	cleaning, err := s.Projection.ActiveCleaningEvent(ctx, shift.ID)
	if err != nil {
		return err
	}
	if cleaning != nil {
		if err := s.AutoEnd(ctx, models.SessionCleaning, cleaning); err != nil {
			return err
		}
	}
	return s.AutoEnd(ctx, models.SessionShift, shift)
}

// RecordLogin appends a login marker to the activity log.
func (s *SessionService) RecordLogin(ctx context.Context, userID int) {
	s.recordMarker(ctx, userID, models.KindLogin)
}

// RecordLogout appends a logout marker to the activity log.
func (s *SessionService) RecordLogout(ctx context.Context, userID int) {
	s.recordMarker(ctx, userID, models.KindLogout)
}

func (s *SessionService) recordMarker(ctx context.Context, userID int, kind string) {
	ev := &models.ActivityEvent{
		UserID:    userID,
		Kind:      kind,
		StartTime: s.Now(),
		Status:    models.StatusRecorded,
	}
	if err := s.Log.Insert(ctx, ev); err != nil {
		// Markers are bookkeeping only, never fail the auth flow over them.
		log.Printf("[Sessions] recording %s for user %d failed: %v", kind, userID, err)
	}
}

// endSession appends the end event for an open start event and patches the
// start event's status to its terminal value. The end event is the durable
// close: if the status patch is lost, the projection still sees the session
// as closed through the end event.
func (s *SessionService) endSession(ctx context.Context, kind models.SessionKind, start *models.ActivityEvent, status string, notes *string) (*models.Session, error) {
	now := s.Now()

	endEv := &models.ActivityEvent{
		UserID:     start.UserID,
		LocationID: start.LocationID,
		Kind:       kind.EndKind(),
		StartTime:  now,
		Status:     status,
		RelatedID:  &start.ID,
	}
	if err := s.Log.Insert(ctx, endEv); err != nil {
		return nil, fmt.Errorf("appending %s event: %w", endEv.Kind, err)
	}

	if start.PausedAt != nil {
		// Closed while paused: fold the trailing pause span into the
		// accumulated total so history never counts it as worked time.
		start.PausedSeconds += int(now.Sub(*start.PausedAt).Seconds())
		start.PausedAt = nil
		if err := s.Log.UpdatePause(ctx, start.ID, start.Status, nil, start.PausedSeconds); err != nil {
			log.Printf("[Sessions] folding pause into event %d failed: %v", start.ID, err)
		}
	}

	if err := s.Log.UpdateStatus(ctx, start.ID, status, notes); err != nil {
		log.Printf("[Sessions] patching status on event %d failed: %v (end event %d already recorded)", start.ID, err, endEv.ID)
	} else {
		start.Status = status
		if notes != nil {
			start.Notes = notes
		}
	}

	cache.InvalidateSessionMirror(ctx, string(kind), start.UserID)
	metrics.SessionsEndedTotal.WithLabelValues(string(kind), status).Inc()

	elapsed := start.ElapsedSeconds(now)
	log.Printf("[Sessions] user %d ended %s %d after %s (%s)", start.UserID, kind, start.ID, timeutil.FormatDuration(elapsed), status)

	sess := s.Projection.SessionView(ctx, kind, start)
	sess.Status = status
	sess.EndTime = &now
	sess.ElapsedSeconds = elapsed
	sess.Duration = timeutil.FormatDuration(elapsed)
	s.notify(string(kind)+"_ended", sess)
	return sess, nil
}

// activeCleaningForUser resolves the user's open cleaning through their open
// shift. Distinguishes "no shift" from "shift but no cleaning".
func (s *SessionService) activeCleaningForUser(ctx context.Context, userID int) (*models.ActivityEvent, error) {
	shift, err := s.Projection.ActiveShiftEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	cleaning, err := s.Projection.ActiveCleaningEvent(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	if cleaning == nil {
		return nil, ErrNoActiveSession
	}
	return cleaning, nil
}

func (s *SessionService) notify(eventType string, sess *models.Session) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.PublishSessionEvent(events.SessionEvent{
		Type:      eventType,
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Kind:      string(sess.Kind),
		Status:    sess.Status,
		At:        s.Now(),
	})
}

func terminalStatus(withScan bool) string {
	if withScan {
		return models.StatusDoneWithScan
	}
	return models.StatusDoneNoScan
}
