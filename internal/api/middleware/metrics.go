// Package middleware provides Echo middleware for the classmart mock backend.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/classmart/internal/metrics"
)

// unmatchedRoute labels requests that hit no route, so probing random URLs
// cannot grow the series count.
const unmatchedRoute = "unmatched"

// Metrics records request count and duration per method, route template and
// status, so /listings/1/photos and /listings/2/photos share a series.
// /metrics is not recorded; /healthz only drives the up gauge.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			switch {
			case route == "/metrics":
				return err
			case route == "/healthz":
				metrics.HealthzUp.Set(boolGauge(c.Response().Status == http.StatusOK))
				return err
			case route == "" || c.Response().Status == http.StatusNotFound && route == "/*":
				route = unmatchedRoute
			}

			labels := []string{c.Request().Method, route, strconv.Itoa(c.Response().Status)}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
