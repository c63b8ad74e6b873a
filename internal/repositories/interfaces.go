package repositories

import (
	"context"
	"time"

	"shift-backend/internal/models"
)

// Store interfaces consumed by the service layer. Services depend on these
// instead of the pgx-backed types so the session engine can be exercised
// against in-memory fakes in tests.

// ActivityLogStore is the append/patch/query surface over the activity log.
// "Unfinished" means a start event whose status is still active or paused;
// whether a matching end event exists is checked separately by the projector.
type ActivityLogStore interface {
	Insert(ctx context.Context, e *models.ActivityEvent) error
	UpdateStatus(ctx context.Context, id int, status string, notes *string) error
	UpdatePause(ctx context.Context, id int, status string, pausedAt *time.Time, pausedSeconds int) error

	LatestUnfinishedStart(ctx context.Context, userID int, kind string) (*models.ActivityEvent, error)
	LatestUnfinishedStartForShift(ctx context.Context, shiftID int, kind string) (*models.ActivityEvent, error)
	EndEventFor(ctx context.Context, startID int, kind string) (*models.ActivityEvent, error)

	ListStartsByUser(ctx context.Context, userID int, kind string) ([]*models.ActivityEvent, error)
	ListStartsByShift(ctx context.Context, shiftID int, kind string) ([]*models.ActivityEvent, error)
	CountStartsByShift(ctx context.Context, shiftID int, kind string) (int, error)
	ListUnfinishedStarts(ctx context.Context, kind string) ([]*models.ActivityEvent, error)
}

// LocationStore resolves and registers QR-coded areas.
type LocationStore interface {
	Upsert(ctx context.Context, loc *models.Location) error
	Get(ctx context.Context, id int) (*models.Location, error)
}

// AttachmentStore persists uploaded file references and links them to a
// cleaning once it is completed.
type AttachmentStore interface {
	Create(ctx context.Context, a *models.Attachment) error
	LinkToCleaning(ctx context.Context, cleaningEventID int, ids []int) (int, error)
}
