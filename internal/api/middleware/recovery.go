package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// internalErrorDetail is the only thing a client learns about a panic.
const internalErrorDetail = "Internal server error"

// Recovery turns a handler panic into a 500 {"detail": ...} response and an
// error log carrying the request ID and stack. A response that was already
// committed is left as is.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(r)
				}

				req := c.Request()
				log.Error("handler panicked",
					"panic", fmt.Sprint(r),
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
					"stack", string(debug.Stack()),
				)

				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"detail": internalErrorDetail,
				})
			}()
			return next(c)
		}
	}
}
