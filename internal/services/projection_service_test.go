package services

import (
	"context"
	"testing"
	"time"

	"shift-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveShiftDerivedFromLog(t *testing.T) {
	sessions, projection, _, _, _, clock := newTestEngine()
	ctx := context.Background()

	sess, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess, "no events means no active shift")

	started, err := sessions.StartShift(ctx, 1, "area=LobbyA;name=Main Lobby")
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)

	sess, err = projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, started.ID, sess.ID)
	assert.Equal(t, models.SessionShift, sess.Kind)
	assert.Equal(t, "Main Lobby", sess.LocationName)
	assert.Equal(t, int64(1800), sess.ElapsedSeconds)
}

func TestEndEventClosesSessionRegardlessOfStatus(t *testing.T) {
	sessions, projection, logStore, _, _, _ := newTestEngine()
	ctx := context.Background()

	started, err := sessions.StartShift(ctx, 1, "area=LobbyA")
	require.NoError(t, err)

	// Simulate a crash between the end append and the status patch: the
	// start row still says active but an end event references it.
	endID := &started.ID
	require.NoError(t, logStore.Insert(ctx, &models.ActivityEvent{
		UserID:    1,
		Kind:      models.KindShiftEnd,
		StartTime: projection.Now(),
		Status:    models.StatusDoneWithScan,
		RelatedID: endID,
	}))

	sess, err := projection.ActiveShift(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess, "an end event closes the session even if the status patch was lost")
}

func TestLatestStartWinsOnDuplicates(t *testing.T) {
	_, projection, logStore, _, _, clock := newTestEngine()
	ctx := context.Background()

	first := &models.ActivityEvent{
		UserID: 1, Kind: models.KindShiftStart,
		StartTime: clock.Now(), Status: models.StatusActive,
	}
	require.NoError(t, logStore.Insert(ctx, first))

	clock.Advance(10 * time.Minute)
	second := &models.ActivityEvent{
		UserID: 1, Kind: models.KindShiftStart,
		StartTime: clock.Now(), Status: models.StatusActive,
	}
	require.NoError(t, logStore.Insert(ctx, second))

	ev, err := projection.ActiveShiftEvent(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, second.ID, ev.ID, "with two open starts the later one wins")
}

func TestShiftHistoryDurationsAndCounts(t *testing.T) {
	sessions, projection, _, _, _, clock := newTestEngine()
	ctx := context.Background()

	// First shift: two cleanings, ended after 8h.
	_, err := sessions.StartShift(ctx, 1, "area=SiteA;name=Site A")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		clock.Advance(time.Hour)
		_, err = sessions.StartCleaning(ctx, 1, "area=Room1")
		require.NoError(t, err)
		clock.Advance(30 * time.Minute)
		_, err = sessions.EndCleaning(ctx, 1, true)
		require.NoError(t, err)
	}

	clock.Advance(5 * time.Hour)
	_, err = sessions.EndShift(ctx, 1, true)
	require.NoError(t, err)

	// Second shift: still open.
	clock.Advance(12 * time.Hour)
	_, err = sessions.StartShift(ctx, 1, "area=SiteB;name=Site B")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	rows, err := projection.ShiftHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first: the open shift leads.
	open := rows[0]
	assert.Nil(t, open.EndTime)
	assert.Equal(t, "Site B", open.LocationName)
	assert.Equal(t, int64(2*3600), open.DurationSeconds)
	assert.Equal(t, 0, open.Cleanings)

	closed := rows[1]
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, "Site A", closed.LocationName)
	assert.Equal(t, int64(8*3600), closed.DurationSeconds)
	assert.Equal(t, 2, closed.Cleanings)
	assert.Equal(t, models.StatusDoneWithScan, closed.Status)
}

func TestCleaningHistoryNestedUnderShift(t *testing.T) {
	sessions, projection, _, _, _, clock := newTestEngine()
	ctx := context.Background()

	shift, err := sessions.StartShift(ctx, 1, "area=SiteA")
	require.NoError(t, err)

	_, err = sessions.StartCleaning(ctx, 1, "area=Room1;name=Room One")
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)
	_, err = sessions.EndCleaning(ctx, 1, false)
	require.NoError(t, err)

	rows, err := projection.CleaningHistory(ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Room One", rows[0].LocationName)
	assert.Equal(t, int64(45*60), rows[0].DurationSeconds)
	assert.Equal(t, models.StatusDoneNoScan, rows[0].Status)
}
