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

	"landq-backend/internal/infrastructure/logger"
)

const (
	// How long an unfinished request holds its key.
	inFlightTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type entry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func reject(c echo.Context, code int, msg, errCode string) error {
	return c.JSON(code, map[string]string{"error": msg, "code": errCode})
}

// Idempotency replays the recorded response when a mutating request is sent
// again with the same Ax-Request-Id by the same account on the same route.
// Server-side failures (5xx) are not recorded so the client can retry them.
// Must run after Identity.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *logger.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logger.Nop()
	}
	s := store{rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if reqID == "" {
				return reject(c, http.StatusBadRequest, "missing "+HeaderRequestID, "invalid_request_id")
			}
			if !validReqID(reqID) {
				return reject(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format", "invalid_request_id")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error(), "invalid_request_at")
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return reject(c, http.StatusBadRequest, HeaderRequestAt+" too skewed", "invalid_request_at")
			}
			acct := Account(c)
			if acct == "" {
				return reject(c, http.StatusBadRequest, "missing "+HeaderAccountID, "invalid_account")
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return reject(c, http.StatusBadRequest, "unreadable body", "invalid_body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), acct, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			e := entry{
				InProgress:  true,
				BodySHA256:  hash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   now,
			}
			ok, err := s.claim(ctx, key, e)
			if err != nil {
				log.Warn("idempotency store unavailable", "key", key, "error", err)
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable", "unavailable")
			}
			if !ok {
				cur, err := s.load(ctx, key)
				if err != nil {
					log.Warn("idempotency entry unreadable", "key", key, "error", err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
					return reject(c, http.StatusConflict, HeaderRequestID+" reused with different body", "request_id_reused")
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return reject(c, http.StatusConflict, "request is already in progress", "request_in_progress")
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be gone
			bg, done := context.WithTimeout(context.Background(), storeTimeout)
			defer done()
			if rec.code >= http.StatusInternalServerError {
				if err := s.release(bg, key); err != nil {
					log.Warn("idempotency release failed", "key", key, "error", err)
				}
				return nil
			}
			e.InProgress, e.Code, e.Body, e.CreatedAt = false, rec.code, rec.buf.Bytes(), nowUTC()
			if err := s.finish(bg, key, e, ttl); err != nil {
				log.Warn("idempotency record failed", "key", key, "error", err)
			}
			return nil
		}
	}
}
