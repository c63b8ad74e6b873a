package models

import "time"

// Location is a registered QR-coded area. Shift and cleaning QR artifacts
// are kept in separate namespaces via Kind so the same physical area can
// carry one code of each type.
type Location struct {
	ID        int       `json:"id"`
	AreaCode  string    `json:"area_code"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"` // "shift" or "cleaning"
	CreatedAt time.Time `json:"created_at"`
}

// ResolvedLocation is the outcome of resolving a scanned QR payload.
// LocationID is nil in degraded mode (unparseable payload or registry
// failure); Name is always usable for display.
type ResolvedLocation struct {
	LocationID *int   `json:"location_id,omitempty"`
	Name       string `json:"name"`
}
