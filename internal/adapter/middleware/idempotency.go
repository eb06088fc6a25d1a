package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"loan-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// HeaderIdempotencyKey opts a mutating request into replay protection.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderReplayed marks a response served from the store.
	HeaderReplayed = "Idempotent-Replayed"

	pendingTTL   = 60 * time.Second
	storeTimeout = 2 * time.Second
)

// teeWriter copies everything the handler writes so it can be stored.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// IdempotencyMiddleware replays the stored response when a POST/PUT/PATCH/DELETE
// carries an Idempotency-Key already seen for the same route, path and body.
// A reused key on another resource or with another body is a 409. Requests without the header are
// passed through untouched.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	store := newReplayStore(rdb, ttl)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			clientKey := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if clientKey == "" {
				return next(c)
			}
			if !keyPattern.MatchString(clientKey) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Idempotency-Key"})
			}

			var body []byte
			if req.Body != nil {
				var err error
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			sum := fingerprint(req.URL.Path, body)

			log := logger.WithContext(req.Context())
			key := storeKey(req.Method, c.Path(), clientKey)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			claimed, err := store.reserve(ctx, key, sum)
			if err != nil {
				log.Error("idempotency store unavailable", "key", key, "err", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				return replayOrReject(ctx, c, store, key, sum)
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			// detached so a client disconnect still settles the key
			sctx, scancel := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer scancel()

			// server failures release the key so the client may retry
			if tee.status >= http.StatusInternalServerError {
				if err := store.release(sctx, key); err != nil {
					log.Warn("idempotency key not released", "key", key, "err", err)
				}
				return nil
			}
			err = store.complete(sctx, key, replay{
				Status:      tee.status,
				ContentType: tee.Header().Get(echo.HeaderContentType),
				Body:        tee.body.Bytes(),
				Fingerprint: sum,
			})
			if err != nil {
				log.Warn("idempotency result not stored", "key", key, "err", err)
			}
			return nil
		}
	}
}

func replayOrReject(ctx context.Context, c echo.Context, store *replayStore, key, sum string) error {
	prev, err := store.get(ctx, key)
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.WithContext(c.Request().Context()).Warn("idempotency entry unreadable", "key", key, "err", err)
	}
	if prev.Fingerprint != "" && prev.Fingerprint != sum {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Idempotency-Key reused with a different request"})
	}
	if prev.Pending || prev.Status == 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}

	c.Response().Header().Set(HeaderReplayed, "true")
	ct := prev.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSONCharsetUTF8
	}
	return c.Blob(prev.Status, ct, prev.Body)
}
