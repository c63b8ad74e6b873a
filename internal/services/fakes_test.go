package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"shift-backend/internal/events"
	"shift-backend/internal/models"
)

// fakeClock is a controllable clock for the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeLog is an in-memory ActivityLogStore.
type fakeLog struct {
	mu     sync.Mutex
	nextID int
	events []*models.ActivityEvent

	failInserts bool
	failUpdates bool
}

func newFakeLog() *fakeLog {
	return &fakeLog{nextID: 1}
}

func (f *fakeLog) Insert(ctx context.Context, e *models.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInserts {
		return errors.New("insert failed")
	}
	e.ID = f.nextID
	f.nextID++
	clone := *e
	f.events = append(f.events, &clone)
	return nil
}

func (f *fakeLog) UpdateStatus(ctx context.Context, id int, status string, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdates {
		return errors.New("update failed")
	}
	for _, e := range f.events {
		if e.ID == id {
			e.Status = status
			if notes != nil {
				e.Notes = notes
			}
			return nil
		}
	}
	return errors.New("event not found")
}

func (f *fakeLog) UpdatePause(ctx context.Context, id int, status string, pausedAt *time.Time, pausedSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdates {
		return errors.New("update failed")
	}
	for _, e := range f.events {
		if e.ID == id {
			e.Status = status
			e.PausedAt = pausedAt
			e.PausedSeconds = pausedSeconds
			return nil
		}
	}
	return errors.New("event not found")
}

func (f *fakeLog) LatestUnfinishedStart(ctx context.Context, userID int, kind string) (*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.ActivityEvent
	for _, e := range f.events {
		if e.UserID != userID || e.Kind != kind || !e.IsOpen() {
			continue
		}
		if latest == nil || e.StartTime.After(latest.StartTime) {
			latest = e
		}
	}
	return cloneEvent(latest), nil
}

func (f *fakeLog) LatestUnfinishedStartForShift(ctx context.Context, shiftID int, kind string) (*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.ActivityEvent
	for _, e := range f.events {
		if e.Kind != kind || !e.IsOpen() || e.RelatedID == nil || *e.RelatedID != shiftID {
			continue
		}
		if latest == nil || e.StartTime.After(latest.StartTime) {
			latest = e
		}
	}
	return cloneEvent(latest), nil
}

func (f *fakeLog) EndEventFor(ctx context.Context, startID int, kind string) (*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Kind == kind && e.RelatedID != nil && *e.RelatedID == startID {
			return cloneEvent(e), nil
		}
	}
	return nil, nil
}

func (f *fakeLog) ListStartsByUser(ctx context.Context, userID int, kind string) ([]*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ActivityEvent
	for _, e := range f.events {
		if e.UserID == userID && e.Kind == kind {
			out = append(out, cloneEvent(e))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeLog) ListStartsByShift(ctx context.Context, shiftID int, kind string) ([]*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ActivityEvent
	for _, e := range f.events {
		if e.Kind == kind && e.RelatedID != nil && *e.RelatedID == shiftID {
			out = append(out, cloneEvent(e))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeLog) CountStartsByShift(ctx context.Context, shiftID int, kind string) (int, error) {
	events, _ := f.ListStartsByShift(ctx, shiftID, kind)
	return len(events), nil
}

func (f *fakeLog) ListUnfinishedStarts(ctx context.Context, kind string) ([]*models.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	closed := make(map[int]bool)
	endKind := models.KindShiftEnd
	if kind == models.KindCleaningStart {
		endKind = models.KindCleaningEnd
	}
	for _, e := range f.events {
		if e.Kind == endKind && e.RelatedID != nil {
			closed[*e.RelatedID] = true
		}
	}

	var out []*models.ActivityEvent
	for _, e := range f.events {
		if e.Kind == kind && e.IsOpen() && !closed[e.ID] {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

// get returns the stored event by id for assertions.
func (f *fakeLog) get(id int) *models.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			return cloneEvent(e)
		}
	}
	return nil
}

func (f *fakeLog) countKind(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func cloneEvent(e *models.ActivityEvent) *models.ActivityEvent {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

func sortNewestFirst(events []*models.ActivityEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.After(events[j].StartTime)
	})
}

// fakeLocations is an in-memory LocationStore keyed by (area_code, kind).
type fakeLocations struct {
	mu      sync.Mutex
	nextID  int
	byKey   map[string]*models.Location
	byID    map[int]*models.Location
	upserts int
	fail    bool
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{
		nextID: 1,
		byKey:  make(map[string]*models.Location),
		byID:   make(map[int]*models.Location),
	}
}

func (f *fakeLocations) Upsert(ctx context.Context, loc *models.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("registry unavailable")
	}
	f.upserts++
	key := loc.AreaCode + "|" + loc.Kind
	if existing, ok := f.byKey[key]; ok {
		existing.Name = loc.Name
		loc.ID = existing.ID
		return nil
	}
	loc.ID = f.nextID
	f.nextID++
	clone := *loc
	f.byKey[key] = &clone
	f.byID[loc.ID] = &clone
	return nil
}

func (f *fakeLocations) Get(ctx context.Context, id int) (*models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	clone := *loc
	return &clone, nil
}

// fakeAttachments records link calls.
type fakeAttachments struct {
	mu         sync.Mutex
	linked     map[int][]int
	linkFail   bool
	linkReturn int
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{linked: make(map[int][]int), linkReturn: -1}
}

func (f *fakeAttachments) Create(ctx context.Context, a *models.Attachment) error {
	return nil
}

func (f *fakeAttachments) LinkToCleaning(ctx context.Context, cleaningEventID int, ids []int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkFail {
		return 0, errors.New("link failed")
	}
	f.linked[cleaningEventID] = append(f.linked[cleaningEventID], ids...)
	if f.linkReturn >= 0 {
		return f.linkReturn, nil
	}
	return len(ids), nil
}

// fakeNotifier captures published event types.
type fakeNotifier struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeNotifier) PublishSessionEvent(evt events.SessionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, evt.Type)
}

func (f *fakeNotifier) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.types))
	copy(out, f.types)
	return out
}

// newTestEngine wires the session engine onto in-memory fakes.
func newTestEngine() (*SessionService, *ProjectionService, *fakeLog, *fakeLocations, *fakeAttachments, *fakeClock) {
	clock := newFakeClock()
	logStore := newFakeLog()
	locStore := newFakeLocations()
	attachments := newFakeAttachments()

	locations := NewLocationService(locStore)
	projection := NewProjectionService(logStore, locations)
	projection.Now = clock.Now

	sessions := NewSessionService(logStore, attachments, locations, projection, nil)
	sessions.Now = clock.Now

	return sessions, projection, logStore, locStore, attachments, clock
}
