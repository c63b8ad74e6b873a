package services

import (
	"context"
	"log"
	"sync"
	"time"

	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
	"shift-backend/internal/timeutil"
)

// WatchdogService sweeps the activity log for sessions that ran past their
// ceiling and force-closes them. Cleanings are swept before shifts so a
// runaway shift never closes while a cleaning still sits open under it;
// paused sessions are exempt until resumed.
type WatchdogService struct {
	Log      repositories.ActivityLogStore
	Sessions *SessionService
	Now      func() time.Time

	ShiftCeiling    time.Duration
	CleaningCeiling time.Duration
	Interval        time.Duration

	mu       sync.Mutex
	inFlight map[int]bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWatchdogService(logStore repositories.ActivityLogStore, sessions *SessionService, shiftCeiling, cleaningCeiling, interval time.Duration) *WatchdogService {
	return &WatchdogService{
		Log:             logStore,
		Sessions:        sessions,
		Now:             timeutil.Now,
		ShiftCeiling:    shiftCeiling,
		CleaningCeiling: cleaningCeiling,
		Interval:        interval,
		inFlight:        make(map[int]bool),
		stopChan:        make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (w *WatchdogService) Start() {
	w.wg.Add(1)
	go w.run()
	log.Printf("[Watchdog] started (shift ceiling %s, cleaning ceiling %s, every %s)", w.ShiftCeiling, w.CleaningCeiling, w.Interval)
}

// Stop signals the loop to exit and waits for the current sweep to finish.
func (w *WatchdogService) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	log.Println("[Watchdog] stopped")
}

func (w *WatchdogService) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.Sweep(ctx)
			cancel()
		case <-w.stopChan:
			return
		}
	}
}

// Sweep runs one pass over all open sessions, cleanings first.
func (w *WatchdogService) Sweep(ctx context.Context) {
	w.sweepKind(ctx, models.SessionCleaning, w.CleaningCeiling)
	w.sweepKind(ctx, models.SessionShift, w.ShiftCeiling)
}

func (w *WatchdogService) sweepKind(ctx context.Context, kind models.SessionKind, ceiling time.Duration) {
	starts, err := w.Log.ListUnfinishedStarts(ctx, kind.StartKind())
	if err != nil {
		log.Printf("[Watchdog] listing open %s sessions failed: %v", kind, err)
		return
	}

	now := w.Now()
	for _, start := range starts {
		if start.Status == models.StatusPaused {
			continue
		}
		if time.Duration(start.ElapsedSeconds(now))*time.Second < ceiling {
			continue
		}
		if kind == models.SessionShift {
			// A shift with an open cleaning waits for the cleaning sweep.
			cleaning, err := w.Sessions.Projection.ActiveCleaningEvent(ctx, start.ID)
			if err != nil {
				log.Printf("[Watchdog] checking cleanings for shift %d failed: %v", start.ID, err)
				continue
			}
			if cleaning != nil {
				continue
			}
		}
		if !w.claim(start.ID) {
			continue
		}

		log.Printf("[Watchdog] auto-ending %s %d for user %d (open since %s)", kind, start.ID, start.UserID, start.StartTime.Format(time.RFC3339))
		if err := w.Sessions.AutoEnd(ctx, kind, start); err != nil {
			log.Printf("[Watchdog] auto-ending %s %d failed: %v", kind, start.ID, err)
		}
		w.release(start.ID)
	}
}

// claim marks a session as being closed by this sweep so overlapping sweeps
// cannot double-fire on the same event.
func (w *WatchdogService) claim(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[id] {
		return false
	}
	w.inFlight[id] = true
	return true
}

func (w *WatchdogService) release(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, id)
}
