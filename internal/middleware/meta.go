package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	requestStartKey = "request_start"
)

// WithResponseMeta starts a per-request metadata map that handlers fill and
// attach to the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the report cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)["cache_hit"] = hit
}

// ResponseMeta returns the metadata map stamped with the elapsed processing time.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	m := meta(c)
	if start, ok := c.Get(requestStartKey); ok {
		if t, ok := start.(time.Time); ok {
			m["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func meta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if typed, ok := value.(map[string]interface{}); ok {
			return typed
		}
	}
	m := make(map[string]interface{})
	c.Set(responseMetaKey, m)
	return m
}
