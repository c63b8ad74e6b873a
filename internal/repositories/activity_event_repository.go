package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shift-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activityEventColumns = `id, user_id, location_id, kind, start_time, end_time,
	status, notes, related_id, paused_at, paused_seconds, created_at, updated_at`

type ActivityEventRepository struct {
	DB *pgxpool.Pool
}

func NewActivityEventRepository(db *pgxpool.Pool) *ActivityEventRepository {
	return &ActivityEventRepository{DB: db}
}

func (r *ActivityEventRepository) Insert(ctx context.Context, e *models.ActivityEvent) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO activity_events(user_id, location_id, kind, start_time, end_time, status, notes, related_id, paused_at, paused_seconds)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, created_at, updated_at`,
		e.UserID, e.LocationID, e.Kind, e.StartTime, e.EndTime, e.Status, e.Notes,
		e.RelatedID, e.PausedAt, e.PausedSeconds,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting %s event: %w", e.Kind, err)
	}
	return nil
}

func (r *ActivityEventRepository) UpdateStatus(ctx context.Context, id int, status string, notes *string) error {
	var err error
	if notes != nil {
		_, err = r.DB.Exec(ctx,
			`UPDATE activity_events SET status=$1, notes=$2, updated_at=NOW() WHERE id=$3`,
			status, *notes, id)
	} else {
		_, err = r.DB.Exec(ctx,
			`UPDATE activity_events SET status=$1, updated_at=NOW() WHERE id=$2`,
			status, id)
	}
	if err != nil {
		return fmt.Errorf("patching event %d status: %w", id, err)
	}
	return nil
}

func (r *ActivityEventRepository) UpdatePause(ctx context.Context, id int, status string, pausedAt *time.Time, pausedSeconds int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE activity_events SET status=$1, paused_at=$2, paused_seconds=$3, updated_at=NOW() WHERE id=$4`,
		status, pausedAt, pausedSeconds, id)
	if err != nil {
		return fmt.Errorf("patching event %d pause state: %w", id, err)
	}
	return nil
}

// LatestUnfinishedStart returns the most recent start event of the given kind
// for a user that is still marked active or paused, or nil if there is none.
// Ordering by start_time descending is the tie-break rule when duplicate open
// starts exist: the latest one is canonical.
func (r *ActivityEventRepository) LatestUnfinishedStart(ctx context.Context, userID int, kind string) (*models.ActivityEvent, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events
         WHERE user_id=$1 AND kind=$2 AND status IN ($3, $4)
         ORDER BY start_time DESC LIMIT 1`,
		userID, kind, models.StatusActive, models.StatusPaused)
	return scanEventRow(row)
}

// LatestUnfinishedStartForShift is the cleaning-scope variant: the most
// recent open start nested under the given shift start event.
func (r *ActivityEventRepository) LatestUnfinishedStartForShift(ctx context.Context, shiftID int, kind string) (*models.ActivityEvent, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events
         WHERE related_id=$1 AND kind=$2 AND status IN ($3, $4)
         ORDER BY start_time DESC LIMIT 1`,
		shiftID, kind, models.StatusActive, models.StatusPaused)
	return scanEventRow(row)
}

// EndEventFor returns the end event closing the given start event, or nil.
func (r *ActivityEventRepository) EndEventFor(ctx context.Context, startID int, kind string) (*models.ActivityEvent, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events
         WHERE related_id=$1 AND kind=$2
         ORDER BY start_time ASC LIMIT 1`,
		startID, kind)
	return scanEventRow(row)
}

func (r *ActivityEventRepository) ListStartsByUser(ctx context.Context, userID int, kind string) ([]*models.ActivityEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events
         WHERE user_id=$1 AND kind=$2
         ORDER BY start_time DESC`,
		userID, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s events: %w", kind, err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

func (r *ActivityEventRepository) ListStartsByShift(ctx context.Context, shiftID int, kind string) ([]*models.ActivityEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events
         WHERE related_id=$1 AND kind=$2
         ORDER BY start_time DESC`,
		shiftID, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s events for shift %d: %w", kind, shiftID, err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

func (r *ActivityEventRepository) CountStartsByShift(ctx context.Context, shiftID int, kind string) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_events WHERE related_id=$1 AND kind=$2`,
		shiftID, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s events for shift %d: %w", kind, shiftID, err)
	}
	return count, nil
}

// ListUnfinishedStarts returns every open start event of the given kind that
// has no closing end event. Used by the watchdog sweep.
func (r *ActivityEventRepository) ListUnfinishedStarts(ctx context.Context, kind string) ([]*models.ActivityEvent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+activityEventColumns+`
         FROM activity_events s
         WHERE s.kind=$1 AND s.status IN ($2, $3)
           AND NOT EXISTS (
               SELECT 1 FROM activity_events e
               WHERE e.related_id = s.id AND e.kind = $4
           )
         ORDER BY s.start_time ASC`,
		kind, models.StatusActive, models.StatusPaused, endKindFor(kind))
	if err != nil {
		return nil, fmt.Errorf("listing unfinished %s events: %w", kind, err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

func endKindFor(startKind string) string {
	if startKind == models.KindCleaningStart {
		return models.KindCleaningEnd
	}
	return models.KindShiftEnd
}

func scanEventRow(row pgx.Row) (*models.ActivityEvent, error) {
	var e models.ActivityEvent
	err := row.Scan(&e.ID, &e.UserID, &e.LocationID, &e.Kind, &e.StartTime, &e.EndTime,
		&e.Status, &e.Notes, &e.RelatedID, &e.PausedAt, &e.PausedSeconds, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning activity event: %w", err)
	}
	return &e, nil
}

func scanEventRows(rows pgx.Rows) ([]*models.ActivityEvent, error) {
	var events []*models.ActivityEvent
	for rows.Next() {
		var e models.ActivityEvent
		err := rows.Scan(&e.ID, &e.UserID, &e.LocationID, &e.Kind, &e.StartTime, &e.EndTime,
			&e.Status, &e.Notes, &e.RelatedID, &e.PausedAt, &e.PausedSeconds, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning activity event row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity events: %w", err)
	}
	return events, nil
}
