package services

import (
	"context"
	"log"
	"strings"

	"shift-backend/internal/metrics"
	"shift-backend/internal/models"
	"shift-backend/internal/repositories"
)

// LocationService resolves scanned QR payloads into registered locations.
// Resolution must never block a session command: any parse or registry
// failure degrades to a nil location id with a usable display name.
type LocationService struct {
	Locations repositories.LocationStore
}

func NewLocationService(locations repositories.LocationStore) *LocationService {
	return &LocationService{Locations: locations}
}

// ParseQRPayload extracts the area code and display name from a scanned
// payload. The expected format is key=value pairs separated by ';' or '&'
// ("area=LobbyA;name=Main Lobby"). Anything else is handled best-effort:
// the whole payload becomes a deterministic fallback area code so repeat
// scans of the same malformed code still resolve to the same location.
func ParseQRPayload(payload string) (areaCode, name string) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", "Unknown location"
	}

	for _, pair := range strings.FieldsFunc(payload, func(r rune) bool { return r == ';' || r == '&' }) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "area":
			areaCode = strings.TrimSpace(v)
		case "name":
			name = strings.TrimSpace(v)
		}
	}

	if areaCode == "" {
		// Synthesize a stable code from the raw payload.
		areaCode = strings.Join(strings.Fields(payload), "_")
	}
	if len(areaCode) > 64 {
		areaCode = areaCode[:64]
	}
	if name == "" {
		name = areaCode
	}
	return areaCode, name
}

// Resolve looks up or registers the location for a scanned payload within
// the given session kind's namespace. It never returns an error: when the
// registry is unreachable the command proceeds with only the display name.
func (s *LocationService) Resolve(ctx context.Context, payload string, kind models.SessionKind) *models.ResolvedLocation {
	areaCode, name := ParseQRPayload(payload)
	if areaCode == "" {
		return &models.ResolvedLocation{Name: name}
	}

	loc := &models.Location{AreaCode: areaCode, Name: name, Kind: string(kind)}
	if err := s.Locations.Upsert(ctx, loc); err != nil {
		log.Printf("[Locations] resolve %q (%s) failed: %v (continuing without location id)", areaCode, kind, err)
		return &models.ResolvedLocation{Name: name}
	}

	metrics.LocationUpsertsTotal.Inc()
	return &models.ResolvedLocation{LocationID: &loc.ID, Name: loc.Name}
}

// DisplayName returns the stored name for a location id, falling back to the
// given default when the id is unknown or the lookup fails.
func (s *LocationService) DisplayName(ctx context.Context, id *int, fallback string) string {
	if id == nil {
		return fallback
	}
	loc, err := s.Locations.Get(ctx, *id)
	if err != nil || loc == nil {
		return fallback
	}
	return loc.Name
}
