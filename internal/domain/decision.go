package domain

import "errors"

// Reason is the wire code explaining why a check-in was rejected.
type Reason string

const (
	ReasonMissingToken  Reason = "missing_token"
	ReasonBadSignature  Reason = "bad_sig"
	ReasonBadPayload    Reason = "bad_payload"
	ReasonExpired       Reason = "expired"
	ReasonUsePost       Reason = "use_post"
	ReasonBadJSON       Reason = "bad_json"
	ReasonMissingCoords Reason = "missing_coords"
	ReasonServerError   Reason = "server_error"
)

// Decision is the check-in verdict returned to the caller. The JSON keys sede
// and radio_m are kept for compatibility with existing clients.
type Decision struct {
	OK             bool   `json:"ok"`
	Reason         Reason `json:"reason,omitempty"`
	Site           string `json:"sede,omitempty"`
	DistanceMeters *int   `json:"distance_m,omitempty"`
	RadiusMeters   *int   `json:"radio_m,omitempty"`
}

// Reject builds a failed decision carrying only a reason.
func Reject(reason Reason) Decision {
	return Decision{OK: false, Reason: reason}
}

// Accept builds the decision for a completed geofence evaluation. OK mirrors
// whether the coordinate was inside the fence.
func Accept(result GeofenceResult, radiusMeters int) Decision {
	distance := result.RoundedMeters()
	return Decision{
		OK:             result.Within,
		Site:           result.Site,
		DistanceMeters: &distance,
		RadiusMeters:   &radiusMeters,
	}
}

// ReasonFor maps a validation error to its reason code. Unknown errors map to
// ReasonServerError.
func ReasonFor(err error) Reason {
	switch {
	case errors.Is(err, ErrBadSignature):
		return ReasonBadSignature
	case errors.Is(err, ErrBadEncoding), errors.Is(err, ErrBadPayload):
		return ReasonBadPayload
	case errors.Is(err, ErrExpired):
		return ReasonExpired
	case errors.Is(err, ErrBadJSON):
		return ReasonBadJSON
	default:
		return ReasonServerError
	}
}
