package middleware

import (
	"net/http"
	"time"

	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
)

// unmatchedRoute labels requests that matched no route, keeping the
// route label bounded.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records Prometheus HTTP metrics.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

// Record counts each request and observes its latency, labelled with the
// status the client will receive.
func (m *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.server.Metrics == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = ResolveError(err).Status
			}

			route := c.Path()
			if route == "" || (status == http.StatusNotFound && route == "/*") {
				route = unmatchedRoute
			}

			m.server.Metrics.RecordHTTPRequest(route, c.Request().Method, status, time.Since(start))
			return err
		}
	}
}
