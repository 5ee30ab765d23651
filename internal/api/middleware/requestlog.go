package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDKey is where the request ID is stored in the echo context.
const requestIDKey = "request_id"

// probeFilter mutes the steady stream of successful health probes: the first
// success per path is logged, later ones are not. Failures are always
// logged.
type probeFilter struct {
	paths map[string]bool

	mu   sync.Mutex
	seen map[string]bool
}

func newProbeFilter(paths ...string) *probeFilter {
	f := &probeFilter{paths: make(map[string]bool), seen: make(map[string]bool)}
	for _, p := range paths {
		f.paths[p] = true
	}
	return f
}

// level returns the level to log a response at, or false to skip it.
func (f *probeFilter) level(path string, status int) (slog.Level, bool) {
	ok := status < 400
	if !f.paths[path] {
		if status >= 500 {
			return slog.LevelError, true
		}
		return slog.LevelInfo, true
	}
	if !ok {
		return slog.LevelWarn, true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[path] {
		return 0, false
	}
	f.seen[path] = true
	return slog.LevelInfo, true
}

// RequestLog logs one structured line per request. It keeps the caller's
// X-Request-ID (the classmart client always sends one) or mints a UUID,
// and echoes it in the response header and the echo context. Whether the
// request carried init data is logged, the init data itself never is.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	probes := newProbeFilter("/healthz")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set(requestIDKey, reqID)
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			err := next(c)

			status := c.Response().Status
			level, ok := probes.level(req.URL.Path, status)
			if !ok {
				return err
			}

			log.Log(req.Context(), level, "request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
				"authenticated", req.Header.Get(echo.HeaderAuthorization) != "",
			)

			return err
		}
	}
}
