package services

import (
	"context"
	"testing"
	"time"

	"shift-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftLifecycle(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	ctx := context.Background()

	started, err := sessions.StartShift(ctx, 1, "area=LobbyA;name=Main Lobby")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, started.Status)
	assert.Equal(t, "Main Lobby", started.LocationName)

	clock.Advance(8 * time.Hour)

	ended, err := sessions.EndShift(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDoneWithScan, ended.Status)
	assert.Equal(t, int64(8*3600), ended.ElapsedSeconds)
	require.NotNil(t, ended.EndTime)

	// The close appended an end event and patched the start row.
	assert.Equal(t, 1, logStore.countKind(models.KindShiftEnd))
	assert.Equal(t, models.StatusDoneWithScan, logStore.get(started.ID).Status)

	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStartShiftRejectedWhileActive(t *testing.T) {
	sessions, _, logStore, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=LobbyA")
	require.NoError(t, err)

	_, err = sessions.StartShift(ctx, 1, "area=LobbyB")
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 1, logStore.countKind(models.KindShiftStart),
		"a rejected start must leave no trace in the log")
}

func TestEndShiftWithoutStart(t *testing.T) {
	sessions, _, _, _, _, _ := newTestEngine()

	_, err := sessions.EndShift(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCleaningRequiresShift(t *testing.T) {
	sessions, _, _, _, _, _ := newTestEngine()

	_, err := sessions.StartCleaning(context.Background(), 1, "area=Room1")
	assert.ErrorIs(t, err, ErrNoActiveShift)
}

func TestEndShiftBlockedByOpenCleaning(t *testing.T) {
	sessions, _, _, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	_, err = sessions.EndShift(ctx, 1, true)
	assert.ErrorIs(t, err, ErrCleaningStillOpen)

	// Closing the cleaning unblocks the shift.
	_, err = sessions.EndCleaning(ctx, 1, true)
	require.NoError(t, err)
	_, err = sessions.EndShift(ctx, 1, true)
	assert.NoError(t, err)
}

func TestSecondCleaningRejectedWhileOpen(t *testing.T) {
	sessions, _, _, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	_, err = sessions.StartCleaning(ctx, 1, "area=Room2")
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestPauseFreezesElapsed(t *testing.T) {
	sessions, _, _, _, _, clock := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	cleaning, err := sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	clock.Advance(60 * time.Second)
	paused, err := sessions.PauseToggleCleaning(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, paused.Status)
	assert.Equal(t, int64(60), paused.ElapsedSeconds)

	// Time passes while paused; elapsed stays frozen at 60s.
	clock.Advance(30 * time.Minute)
	resumed, err := sessions.PauseToggleCleaning(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, resumed.Status)
	assert.Equal(t, int64(60), resumed.ElapsedSeconds)

	// After resume the counter runs again.
	clock.Advance(40 * time.Second)
	ended, err := sessions.EndCleaning(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, cleaning.ID, ended.ID)
	assert.Equal(t, int64(100), ended.ElapsedSeconds)
}

func TestPauseShiftNotSupported(t *testing.T) {
	sessions, _, _, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)

	// Pause only applies to cleanings; with no cleaning open it is a 404.
	_, err = sessions.PauseToggleCleaning(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCompleteCleaningLinksAttachments(t *testing.T) {
	sessions, _, logStore, _, attachments, clock := newTestEngine()
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	cleaning, err := sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	result, err := sessions.CompleteCleaning(ctx, 1, "mopped and restocked", []int{4, 7})
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, models.StatusDoneWithScan, result.Session.Status)

	stored := logStore.get(cleaning.ID)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "mopped and restocked", *stored.Notes)
	assert.Equal(t, []int{4, 7}, attachments.linked[cleaning.ID])
}

func TestCompleteCleaningWarnsOnLinkFailure(t *testing.T) {
	sessions, projection, _, _, attachments, _ := newTestEngine()
	attachments.linkFail = true
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	result, err := sessions.CompleteCleaning(ctx, 1, "done", []int{1})
	require.NoError(t, err, "a failed link never fails the close itself")
	assert.NotEmpty(t, result.Warning)

	shift, err := projection.ActiveShiftEvent(ctx, 1)
	require.NoError(t, err)
	cleaning, err := projection.ActiveCleaningEvent(ctx, shift.ID)
	require.NoError(t, err)
	assert.Nil(t, cleaning, "the cleaning is closed despite the warning")
}

func TestStartFailsWhenLogWriteFails(t *testing.T) {
	sessions, _, logStore, _, _, _ := newTestEngine()
	logStore.failInserts = true

	_, err := sessions.StartShift(context.Background(), 1, "area=SiteA")
	assert.Error(t, err)
}

func TestLogoutCascadeClosesCleaningThenShift(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	cleaning, err := sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, sessions.EndAllForUser(ctx, 1))

	assert.Equal(t, models.StatusDoneAutomatic, logStore.get(cleaning.ID).Status)
	assert.Equal(t, models.StatusDoneAutomatic, logStore.get(shift.ID).Status)

	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Idempotent when nothing is open.
	assert.NoError(t, sessions.EndAllForUser(ctx, 1))
}

func TestDegradedLocationKeepsNameOnEvent(t *testing.T) {
	sessions, _, logStore, locStore, _, _ := newTestEngine()
	locStore.fail = true
	ctx := context.Background()

	started, err := sessions.StartShift(ctx, 1, "area=LobbyA;name=Main Lobby")
	require.NoError(t, err, "registry failure must not block the start")
	assert.Nil(t, started.LocationID)
	assert.Equal(t, "Main Lobby", started.LocationName)

	stored := logStore.get(started.ID)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "Main Lobby", *stored.Notes)
}

func TestNotifierReceivesTransitions(t *testing.T) {
	sessions, _, _, _, _, clock := newTestEngine()
	notifier := &fakeNotifier{}
	sessions.Notifier = notifier
	ctx := context.Background()

	_, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = sessions.EndShift(ctx, 1, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"shift_started", "shift_ended"}, notifier.published())
}

func TestEndWhilePausedExcludesTrailingPause(t *testing.T) {
	sessions, projection, logStore, _, _, clock := newTestEngine()
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)
	cleaning, err := sessions.StartCleaning(ctx, 1, "area=Room1")
	require.NoError(t, err)

	clock.Advance(60 * time.Second)
	_, err = sessions.PauseToggleCleaning(ctx, 1)
	require.NoError(t, err)
	clock.Advance(60 * time.Second)

	ended, err := sessions.EndCleaning(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(60), ended.ElapsedSeconds)

	// The trailing pause span is folded into the stored total on close.
	stored := logStore.get(cleaning.ID)
	assert.Nil(t, stored.PausedAt)
	assert.Equal(t, 60, stored.PausedSeconds)

	rows, err := projection.CleaningHistory(ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(60), rows[0].DurationSeconds,
		"history must not count the trailing pause span as worked time")
}

func TestLoginLogoutMarkersAreNeutral(t *testing.T) {
	sessions, projection, logStore, _, _, _ := newTestEngine()
	ctx := context.Background()

	sessions.RecordLogin(ctx, 1)
	sessions.RecordLogout(ctx, 1)

	login := logStore.get(1)
	require.NotNil(t, login)
	assert.Equal(t, models.KindLogin, login.Kind)
	assert.Equal(t, models.StatusRecorded, login.Status)

	logout := logStore.get(2)
	require.NotNil(t, logout)
	assert.Equal(t, models.KindLogout, logout.Kind)
	assert.Equal(t, models.StatusRecorded, logout.Status)

	// Markers never surface as open sessions.
	active, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)
}
