package services

import (
	"context"
	"testing"
	"time"

	"shift-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatchdog(sessions *SessionService, logStore *fakeLog, clock *fakeClock) *WatchdogService {
	w := NewWatchdogService(logStore, sessions, 16*time.Hour, 5*time.Hour, time.Second)
	w.Now = clock.Now
	return w
}

func TestWatchdogClosesShiftPastCeiling(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	w := newTestWatchdog(sessions, logStore, clock)
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)

	clock.Advance(15 * time.Hour)
	w.Sweep(ctx)

	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active, "below the ceiling nothing fires")

	clock.Advance(2 * time.Hour)
	w.Sweep(ctx)

	active, err = projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Equal(t, models.StatusDoneAutomatic, logStore.get(shift.ID).Status)
}

func TestWatchdogFiresExactlyOnce(t *testing.T) {
	sessions, _, logStore, _, _, clock := newTestEngine()
	w := newTestWatchdog(sessions, logStore, clock)
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)

	clock.Advance(17 * time.Hour)
	for i := 0; i < 5; i++ {
		w.Sweep(ctx)
	}

	assert.Equal(t, 1, logStore.countKind(models.KindShiftEnd),
		"repeated sweeps must not append duplicate end events")
}

func TestWatchdogSkipsPausedCleaning(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	w := newTestWatchdog(sessions, logStore, clock)
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)
	_, err = sessions.PauseToggleCleaning(ctx, 1)
	require.NoError(t, err)

	clock.Advance(6 * time.Hour)
	w.Sweep(ctx)

	cleaning, err := projection.ActiveCleaningEvent(ctx, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, cleaning, "paused sessions are exempt until resumed")
	assert.Equal(t, models.StatusPaused, cleaning.Status)

	// Once resumed the accumulated pause keeps it under the ceiling, so the
	// clock has to run past the ceiling again before it fires.
	_, err = sessions.PauseToggleCleaning(ctx, 1)
	require.NoError(t, err)
	w.Sweep(ctx)
	cleaning, err = projection.ActiveCleaningEvent(ctx, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, cleaning)

	clock.Advance(6 * time.Hour)
	w.Sweep(ctx)
	cleaning, err = projection.ActiveCleaningEvent(ctx, shift.ID)
	require.NoError(t, err)
	assert.Nil(t, cleaning)
}

func TestWatchdogSweepsCleaningBeforeShift(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	w := newTestWatchdog(sessions, logStore, clock)
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	cleaning, err := sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	// Both are past their ceilings; one sweep closes the cleaning first,
	// then the shift, with no cleaning left dangling under a closed shift.
	clock.Advance(17 * time.Hour)
	w.Sweep(ctx)

	assert.Equal(t, models.StatusDoneAutomatic, logStore.get(cleaning.ID).Status)
	assert.Equal(t, models.StatusDoneAutomatic, logStore.get(shift.ID).Status)

	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestWatchdogLeavesShiftWithOpenCleaningUnderCeiling(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	w := newTestWatchdog(sessions, logStore, clock)
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)

	// The cleaning starts 14h into the shift; at 17h the shift is past its
	// ceiling but the 3h cleaning is not.
	clock.Advance(14 * time.Hour)
	_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)

	w.Sweep(ctx)

	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active, "a shift with an open cleaning is never closed")
	assert.NotEqual(t, models.StatusDoneAutomatic, logStore.get(shift.ID).Status)
}
