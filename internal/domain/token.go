package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Token verification errors. Use errors.Is to match; [ReasonFor] maps them to
// wire reason codes.
var (
	ErrBadEncoding  = errors.New("token is not valid base64url")
	ErrBadPayload   = errors.New("token payload is malformed")
	ErrBadSignature = errors.New("token signature mismatch")
	ErrExpired      = errors.New("token has expired")
)

const tokenSeparator = "."

// VerifyToken decodes token, checks its HMAC-SHA256 signature against secret
// and checks that now is not past the encoded expiry. It returns the expiry on
// success.
func VerifyToken(token string, secret []byte, now time.Time) (time.Time, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w: %v", ErrBadEncoding, err)
	}
	if !utf8.Valid(raw) {
		return time.Time{}, fmt.Errorf("decode token: %w: not utf-8", ErrBadEncoding)
	}

	parts := strings.Split(string(raw), tokenSeparator)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("split token: %w: want 2 segments, got %d", ErrBadPayload, len(parts))
	}
	payload, sig := parts[0], parts[1]

	if !hmac.Equal([]byte(sig), []byte(signPayload(payload, secret))) {
		return time.Time{}, ErrBadSignature
	}

	expiryMillis, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry %q: %w", payload, ErrBadPayload)
	}

	if now.UnixMilli() > expiryMillis {
		return time.Time{}, ErrExpired
	}
	return time.UnixMilli(expiryMillis).UTC(), nil
}

// SignToken builds a token that expires at expiry, in the format accepted by
// VerifyToken. Sub-millisecond precision is truncated.
func SignToken(expiry time.Time, secret []byte) string {
	payload := strconv.FormatInt(expiry.UnixMilli(), 10)
	return encodeToken(payload, signPayload(payload, secret))
}

func encodeToken(payload, sig string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload + tokenSeparator + sig))
}

// signPayload returns the lowercase hex HMAC-SHA256 of payload.
func signPayload(payload string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
