package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Domenick1991/vehiclerental/internal/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*cache.StoredResponse, error)
	Claim(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, resp cache.StoredResponse) error
	Release(ctx context.Context, key string) error
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored 2xx response for a repeated
// Idempotency-Key from the same caller. Keys are scoped per caller. When the
// store is unreachable the request proceeds without deduplication.
func IdempotencyMiddleware(store IdempotencyStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(idempotencyHeader)
		if header == "" {
			c.Next()
			return
		}
		caller, _ := callerFrom(c)
		key := fmt.Sprintf("%s:%d:%s", caller.Role, caller.UserID, header)
		ctx := c.Request.Context()

		stored, err := store.Lookup(ctx, key)
		switch {
		case errors.Is(err, cache.ErrInFlight):
			abortWithError(c, http.StatusConflict, "CONFLICT", "A request with this Idempotency-Key is already in progress")
			return
		case err != nil:
			logger.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		case stored != nil:
			c.Header(replayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		claimed, err := store.Claim(ctx, key)
		if err != nil {
			logger.Warn("idempotency claim failed", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, http.StatusConflict, "CONFLICT", "A request with this Idempotency-Key is already in progress")
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		saveCtx := context.WithoutCancel(ctx)
		status := recorder.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			resp := cache.StoredResponse{
				Status:      status,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			}
			if err := store.Save(saveCtx, key, resp); err != nil {
				logger.Warn("idempotency save failed", zap.Error(err))
			}
			return
		}
		if err := store.Release(saveCtx, key); err != nil {
			logger.Warn("idempotency release failed", zap.Error(err))
		}
	}
}
