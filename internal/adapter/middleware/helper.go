package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const keyPrefix = "lifecycle:idemp:"

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

	errNoRequestAt  = errors.New("missing " + HeaderRequestAt)
	errBadRequestAt = errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// idempotencyKey scopes a request id to the route and the acting staff member, so two
// actors (or two commands) reusing an id never collide.
func idempotencyKey(method, route, actorID, requestID string) string {
	return keyPrefix + strings.Join([]string{strings.ToLower(method), route, actorID, requestID}, ":")
}

// validRequestID accepts a lowercase UUID (v1-v5) or 32 lowercase hex characters.
func validRequestID(id string) bool {
	id = strings.TrimSpace(id)
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt reads epoch seconds, epoch milliseconds, or RFC3339 with an explicit zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errNoRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}
