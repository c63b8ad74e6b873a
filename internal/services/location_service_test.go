package services

import (
	"context"
	"testing"

	"shift-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQRPayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantArea string
		wantName string
	}{
		{"key value pairs", "area=LobbyA;name=Main Lobby", "LobbyA", "Main Lobby"},
		{"ampersand separator", "area=F2&name=Second Floor", "F2", "Second Floor"},
		{"area only", "area=Dock3", "Dock3", "Dock3"},
		{"freeform payload", "Building 7 East Wing", "Building_7_East_Wing", "Building_7_East_Wing"},
		{"empty payload", "", "", "Unknown location"},
		{"whitespace only", "   ", "", "Unknown location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			area, name := ParseQRPayload(tt.payload)
			assert.Equal(t, tt.wantArea, area)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	store := newFakeLocations()
	svc := NewLocationService(store)
	ctx := context.Background()

	first := svc.Resolve(ctx, "area=LobbyA;name=Main Lobby", models.SessionShift)
	require.NotNil(t, first.LocationID)

	second := svc.Resolve(ctx, "area=LobbyA;name=Main Lobby", models.SessionShift)
	require.NotNil(t, second.LocationID)

	assert.Equal(t, *first.LocationID, *second.LocationID)
	assert.Equal(t, 1, len(store.byID), "repeat scans must not create new locations")
}

func TestResolveSameAreaDifferentKind(t *testing.T) {
	store := newFakeLocations()
	svc := NewLocationService(store)
	ctx := context.Background()

	asShift := svc.Resolve(ctx, "area=LobbyA", models.SessionShift)
	asCleaning := svc.Resolve(ctx, "area=LobbyA", models.SessionCleaning)

	require.NotNil(t, asShift.LocationID)
	require.NotNil(t, asCleaning.LocationID)
	assert.NotEqual(t, *asShift.LocationID, *asCleaning.LocationID,
		"shift and cleaning namespaces are separate")
}

func TestResolveDegradesWhenRegistryFails(t *testing.T) {
	store := newFakeLocations()
	store.fail = true
	svc := NewLocationService(store)

	resolved := svc.Resolve(context.Background(), "area=LobbyA;name=Main Lobby", models.SessionShift)

	assert.Nil(t, resolved.LocationID)
	assert.Equal(t, "Main Lobby", resolved.Name, "display name survives registry failure")
}

func TestDisplayNameFallsBack(t *testing.T) {
	store := newFakeLocations()
	svc := NewLocationService(store)
	ctx := context.Background()

	resolved := svc.Resolve(ctx, "area=Dock3;name=Loading Dock", models.SessionShift)
	require.NotNil(t, resolved.LocationID)

	assert.Equal(t, "Loading Dock", svc.DisplayName(ctx, resolved.LocationID, "fallback"))
	assert.Equal(t, "fallback", svc.DisplayName(ctx, nil, "fallback"))

	unknown := 999
	assert.Equal(t, "fallback", svc.DisplayName(ctx, &unknown, "fallback"))
}
