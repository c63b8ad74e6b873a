package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shift-backend/internal/cache"
	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
	"shift-backend/internal/timeutil"
)

// ProjectionService derives the current active shift/cleaning and the
// per-scope history purely by scanning the activity log. Nothing here
// writes to the log; the only side effect is refreshing the advisory
// session mirror in Redis.
type ProjectionService struct {
	Log       repositories.ActivityLogStore
	Locations *LocationService
	Now       func() time.Time
}

func NewProjectionService(log repositories.ActivityLogStore, locations *LocationService) *ProjectionService {
	return &ProjectionService{
		Log:       log,
		Locations: locations,
		Now:       timeutil.Now,
	}
}

// ActiveShiftEvent returns the raw open shift_start event for a user, or nil
// when no shift is active. A start event only counts as active if no
// shift_end event references it: the end event is what closes a session,
// the status patch on the start row is a correction that may lag or be lost.
func (p *ProjectionService) ActiveShiftEvent(ctx context.Context, userID int) (*models.ActivityEvent, error) {
	start, err := p.Log.LatestUnfinishedStart(ctx, userID, models.KindShiftStart)
	if err != nil {
		return nil, fmt.Errorf("finding open shift for user %d: %w", userID, err)
	}
	return p.confirmOpen(ctx, start, models.KindShiftEnd)
}

// ActiveCleaningEvent returns the raw open cleaning_start event nested under
// the given shift start event, or nil.
func (p *ProjectionService) ActiveCleaningEvent(ctx context.Context, shiftID int) (*models.ActivityEvent, error) {
	start, err := p.Log.LatestUnfinishedStartForShift(ctx, shiftID, models.KindCleaningStart)
	if err != nil {
		return nil, fmt.Errorf("finding open cleaning for shift %d: %w", shiftID, err)
	}
	return p.confirmOpen(ctx, start, models.KindCleaningEnd)
}

// confirmOpen applies the second half of the derivation: a start event with
// a matching end event is closed no matter what its own status says.
func (p *ProjectionService) confirmOpen(ctx context.Context, start *models.ActivityEvent, endKind string) (*models.ActivityEvent, error) {
	if start == nil {
		return nil, nil
	}
	end, err := p.Log.EndEventFor(ctx, start.ID, endKind)
	if err != nil {
		return nil, fmt.Errorf("checking end event for %d: %w", start.ID, err)
	}
	if end != nil {
		return nil, nil
	}
	return start, nil
}

// ActiveShift returns the active shift view for a user, or nil.
func (p *ProjectionService) ActiveShift(ctx context.Context, userID int) (*models.Session, error) {
	ev, err := p.ActiveShiftEvent(ctx, userID)
	if err != nil || ev == nil {
		return nil, err
	}
	sess := p.SessionView(ctx, models.SessionShift, ev)
	p.refreshMirror(ctx, sess)
	return sess, nil
}

// ActiveCleaning returns the active cleaning view for a shift, or nil.
func (p *ProjectionService) ActiveCleaning(ctx context.Context, shiftID int) (*models.Session, error) {
	ev, err := p.ActiveCleaningEvent(ctx, shiftID)
	if err != nil || ev == nil {
		return nil, err
	}
	sess := p.SessionView(ctx, models.SessionCleaning, ev)
	p.refreshMirror(ctx, sess)
	return sess, nil
}

// SessionView builds the derived view for an open start event.
func (p *ProjectionService) SessionView(ctx context.Context, kind models.SessionKind, ev *models.ActivityEvent) *models.Session {
	elapsed := ev.ElapsedSeconds(p.Now())
	return &models.Session{
		ID:             ev.ID,
		Kind:           kind,
		UserID:         ev.UserID,
		ShiftID:        ev.RelatedID,
		LocationID:     ev.LocationID,
		LocationName:   p.locationName(ctx, ev),
		Status:         ev.Status,
		StartTime:      ev.StartTime,
		ElapsedSeconds: elapsed,
		Duration:       timeutil.FormatDuration(elapsed),
	}
}

// locationName joins through the location registry; events written in
// degraded mode carry their display name in notes instead.
func (p *ProjectionService) locationName(ctx context.Context, ev *models.ActivityEvent) string {
	fallback := "Unknown location"
	if ev.Notes != nil && *ev.Notes != "" {
		fallback = *ev.Notes
	}
	return p.Locations.DisplayName(ctx, ev.LocationID, fallback)
}

// ShiftHistory returns all shifts of a user, newest first, each with its
// terminal status, duration and nested cleaning count.
func (p *ProjectionService) ShiftHistory(ctx context.Context, userID int) ([]*models.HistoryRow, error) {
	starts, err := p.Log.ListStartsByUser(ctx, userID, models.KindShiftStart)
	if err != nil {
		return nil, fmt.Errorf("listing shifts for user %d: %w", userID, err)
	}

	rows := make([]*models.HistoryRow, 0, len(starts))
	for _, start := range starts {
		row, err := p.historyRow(ctx, start, models.KindShiftEnd)
		if err != nil {
			return nil, err
		}
		// One count query per shift; fine at field-team volumes.
		count, err := p.Log.CountStartsByShift(ctx, start.ID, models.KindCleaningStart)
		if err != nil {
			return nil, fmt.Errorf("counting cleanings for shift %d: %w", start.ID, err)
		}
		row.Cleanings = count
		rows = append(rows, row)
	}
	return rows, nil
}

// CleaningHistory returns all cleanings nested under a shift, newest first.
func (p *ProjectionService) CleaningHistory(ctx context.Context, shiftID int) ([]*models.HistoryRow, error) {
	starts, err := p.Log.ListStartsByShift(ctx, shiftID, models.KindCleaningStart)
	if err != nil {
		return nil, fmt.Errorf("listing cleanings for shift %d: %w", shiftID, err)
	}

	rows := make([]*models.HistoryRow, 0, len(starts))
	for _, start := range starts {
		row, err := p.historyRow(ctx, start, models.KindCleaningEnd)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *ProjectionService) historyRow(ctx context.Context, start *models.ActivityEvent, endKind string) (*models.HistoryRow, error) {
	end, err := p.Log.EndEventFor(ctx, start.ID, endKind)
	if err != nil {
		return nil, fmt.Errorf("finding end event for %d: %w", start.ID, err)
	}

	row := &models.HistoryRow{
		ID:           start.ID,
		StartTime:    start.StartTime,
		Status:       start.Status,
		LocationName: p.locationName(ctx, start),
	}
	if start.Notes != nil {
		row.Notes = *start.Notes
	}

	if end != nil {
		// The end event's own start_time is the closing timestamp.
		endTime := end.StartTime
		row.EndTime = &endTime
		row.Status = end.Status
		row.DurationSeconds = int64(endTime.Sub(start.StartTime).Seconds()) - int64(start.PausedSeconds)
	} else {
		row.DurationSeconds = start.ElapsedSeconds(p.Now())
	}
	if row.DurationSeconds < 0 {
		row.DurationSeconds = 0
	}
	row.Duration = timeutil.FormatDuration(row.DurationSeconds)
	return row, nil
}

// refreshMirror writes the derived view through to the advisory Redis
// mirror so page reloads can resume instantly.
func (p *ProjectionService) refreshMirror(ctx context.Context, sess *models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	cache.StoreSessionMirror(ctx, string(sess.Kind), sess.UserID, data)
}
