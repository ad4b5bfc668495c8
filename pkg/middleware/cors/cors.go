// Package cors answers browser preflights and sets CORS response headers for allowed origins.
package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	allowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders  = "Authorization, Content-Type, X-Request-ID"
	exposeHeaders = "X-Request-ID, X-Cache, Content-Disposition"
	maxAge        = 10 * time.Minute
)

type policy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

// New builds the middleware. An empty list or "*" allows every origin without credentials; entries of
// the form "*.campus.edu" match any subdomain.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := policy{exact: make(map[string]struct{})}
	for _, raw := range allowedOrigins {
		origin := strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), "/"))
		switch {
		case origin == "":
		case origin == "*":
			p.any = true
		case strings.HasPrefix(origin, "*."):
			p.suffixes = append(p.suffixes, origin[1:])
		default:
			p.exact[origin] = struct{}{}
		}
	}
	if len(p.exact) == 0 && len(p.suffixes) == 0 {
		p.any = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		if origin != "" && p.allows(origin) {
			if p.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", exposeHeaders)

			if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(maxAge.Seconds())))
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

func (p policy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.ToLower(strings.TrimRight(origin, "/"))
	if _, ok := p.exact[origin]; ok {
		return true
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
