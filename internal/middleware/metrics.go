package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/service"
)

// unmatchedRoute labels requests gin could not route so raw paths never become labels.
const unmatchedRoute = "unmatched"

// Metrics records latency per route template and tracks in-flight requests.
// Paths in skip (e.g. the scrape endpoint itself) are not observed.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		release := metrics.TrackInFlight()
		defer release()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
