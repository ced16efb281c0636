package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Allowed client/server clock skew for Ax-Request-At.
const maxClockSkew = 10 * time.Minute

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// replayable reports whether a finished entry can be served again verbatim.
func (e idempEntry) replayable() bool {
	return !e.InProgress && e.Code != 0 && len(e.Body) > 0
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

type idempHeaders struct {
	requestID string
	requestAt time.Time
	actorID   string
}

func readIdempHeaders(req *http.Request, now time.Time) (idempHeaders, string) {
	h := idempHeaders{
		requestID: strings.TrimSpace(req.Header.Get(HeaderRequestID)),
		actorID:   strings.TrimSpace(req.Header.Get(HeaderActorID)),
	}
	if h.requestID == "" {
		return h, "missing " + HeaderRequestID
	}
	if !validRequestID(h.requestID) {
		return h, "invalid " + HeaderRequestID + " format"
	}
	at, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
	if err != nil {
		return h, err.Error()
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return h, HeaderRequestAt + " too skewed"
	}
	h.requestAt = at
	if h.actorID == "" {
		return h, "missing " + HeaderActorID
	}
	return h, ""
}

// Idempotency replays the stored response when a mutating request is retried with the same
// Ax-Request-Id. Keys are scoped by method, route and actor. Server errors (5xx) are not
// stored, so a command rolled back on audit failure can be retried under the same id.
// Ax-Request-At must be epoch (seconds or ms) or RFC3339/RFC3339Nano with a timezone.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	log = log.Named("idempotency")
	store := responseStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isMutating(req.Method) {
				return next(c)
			}

			h, problem := readIdempHeaders(req, nowUTC())
			if problem != "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": problem})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := idempotencyKey(req.Method, c.Path(), h.actorID, h.requestID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			ok, err := store.reserve(ctx, key, idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   h.requestID,
				RequestAtMS: h.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				log.Error("reserve failed", zap.String("key", key), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				cur, errLoad := store.load(ctx, key)
				if errLoad != nil {
					log.Warn("load failed", zap.String("key", key), zap.Error(errLoad))
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body"})
				}
				if cur.replayable() {
					log.Debug("replaying stored response", zap.String("key", key), zap.Int("code", cur.Code))
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be done; finish with a fresh one
			fctx, fcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer fcancel()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(fctx, key); err != nil {
					log.Warn("release failed", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			if err := store.finish(fctx, key, idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   h.requestID,
				RequestAtMS: h.requestAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}); err != nil {
				log.Warn("store final response failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}
