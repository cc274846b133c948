package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"example.com/ddd-order/internal/interface/http/router"
)

const (
	orderIDKey   = "orderID"
	maxBodyBytes = 1 << 20
)

var (
	errMissingOrderID = errors.New("order id is required")
	errInvalidOrderID = errors.New("order id must be a positive integer")
)

func (a *API) logRequest(c *router.Context) router.Result {
	start := time.Now()
	c.After(func(c *router.Context) {
		a.log.Info("REQUEST",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Status()),
			zap.Int("bytes", c.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(c.Request.Context())),
		)
	})
	return router.Next()
}

func limitBody(c *router.Context) router.Result {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer(), c.Request.Body, maxBodyBytes)
	}
	return router.Next()
}

// requireOrderID parses the :id path parameter and stores it for the
// following stages.
func requireOrderID(c *router.Context) router.Result {
	raw, ok := c.Params.Get("id")
	if !ok || raw == "" {
		return router.Fail(errMissingOrderID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return router.Fail(fmt.Errorf("%w: %q", errInvalidOrderID, raw))
	}
	c.Set(orderIDKey, id)
	return router.Next()
}

func orderIDFrom(c *router.Context) int64 {
	v, _ := c.Value(orderIDKey)
	id, _ := v.(int64)
	return id
}

func (a *API) logUnhandled(c *router.Context, err error) {
	a.log.Error("unhandled request error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
}
