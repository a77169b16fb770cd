package domain

import "time"

// DecisionEvent is the audit record emitted after every check-in decision.
// Rejected check-ins leave the geofence fields zero.
type DecisionEvent struct {
	OK             bool      `json:"ok"`
	Reason         Reason    `json:"reason,omitempty"`
	Site           string    `json:"site,omitempty"`
	DistanceMeters *int      `json:"distance_m,omitempty"`
	RadiusMeters   *int      `json:"radius_m,omitempty"`
	Lat            *float64  `json:"lat,omitempty"`
	Lng            *float64  `json:"lng,omitempty"`
	Method         string    `json:"method"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitzero"`
	CheckedAt      time.Time `json:"checked_at"`
}

// NewDecisionEvent records decision d made at checkedAt.
func NewDecisionEvent(d Decision, method string, checkedAt time.Time) DecisionEvent {
	return DecisionEvent{
		OK:             d.OK,
		Reason:         d.Reason,
		Site:           d.Site,
		DistanceMeters: d.DistanceMeters,
		RadiusMeters:   d.RadiusMeters,
		Method:         method,
		CheckedAt:      checkedAt.UTC(),
	}
}

// Key returns the partition key: the site for evaluated check-ins, the reason
// otherwise.
func (e DecisionEvent) Key() string {
	if e.Site != "" {
		return e.Site
	}
	return string(e.Reason)
}

// Outcome is "accepted" or "rejected".
func (e DecisionEvent) Outcome() string {
	return outcome(e.OK)
}

// Outcome is "accepted" or "rejected".
func (d Decision) Outcome() string {
	return outcome(d.OK)
}

func outcome(ok bool) string {
	if ok {
		return "accepted"
	}
	return "rejected"
}
