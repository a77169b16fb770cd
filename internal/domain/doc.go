// Package domain holds the pure check-in validation rules: token
// verification, coordinate resolution and the geofence decision.
//
// # Tokens
//
// A check-in token is issued elsewhere and handed to the caller. Its wire form is
//
//	base64url( payload "." hex(HMAC-SHA256(secret, payload)) )
//
// where payload is the absolute expiry in Unix milliseconds written as a
// decimal string, e.g. "1767225600000". The token carries nothing else: no
// subject, no nonce, no issuer. Any token with a valid signature is accepted
// until its expiry, as many times as it is presented. The expiry boundary is
// inclusive (a token whose expiry equals "now" is still valid).
//
// # Coordinates
//
// Clients report coordinates in a JSON object. Field names vary between
// clients, so each axis has an ordered alias list:
//
//	latitude:  lat, latitude
//	longitude: lng, lon, longitude
//
// The first alias present with a non-null value wins. Its value may be a JSON
// number or a string holding a decimal number. If the winning value is not a
// finite number the coordinate is missing; later aliases are not consulted.
//
// # Geofence
//
// Distance is the haversine great-circle distance on a sphere of radius
// 6,371,000 m. The nearest site wins, ties going to the earlier site in list
// order. A point is inside the fence when its unrounded distance is less than
// or equal to the radius; the distance reported to clients is rounded to the
// nearest meter.
//
// # Reason codes
//
// Every rejected check-in carries one of the [Reason] constants. Reasons are
// part of the public wire contract and must not be renamed.
package domain
