package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"

	// CacheHeader mirrors the dashboard cache outcome for clients that ignore the body meta.
	CacheHeader = "X-Cache"
)

type responseMeta struct {
	start  time.Time
	values map[string]interface{}
}

// WithResponseMeta starts the per-request meta block that handlers may echo under "meta".
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{start: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit records whether the response was served from the dashboard cache.
func SetCacheHit(c *gin.Context, hit bool) {
	setMeta(c, cacheHitKey, hit)
	if hit {
		c.Header(CacheHeader, "HIT")
		return
	}
	c.Header(CacheHeader, "MISS")
}

// ExtractMeta snapshots the meta block, stamping elapsed time and the request id.
// It returns nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := lookupMeta(c)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta.values)+2)
	for k, v := range meta.values {
		out[k] = v
	}
	out["processing_time_ms"] = time.Since(meta.start).Milliseconds()
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func setMeta(c *gin.Context, key string, value interface{}) {
	meta := lookupMeta(c)
	if meta == nil {
		meta = &responseMeta{start: time.Now(), values: map[string]interface{}{}}
		c.Set(responseMetaKey, meta)
	}
	meta.values[key] = value
}

func lookupMeta(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(*responseMeta)
	return meta
}
