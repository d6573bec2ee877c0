package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	requestStartKey = "response_meta_start"
)

// WithResponseMeta enables the envelope "meta" block for the routes it wraps.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit reports whether the payload was served from the response cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := lookupMeta(c); meta != nil {
		meta["cache_hit"] = hit
	}
}

// ExtractMeta returns the metadata collected so far, stamped with the time spent
// on the request. It is nil on routes without WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := lookupMeta(c)
	if meta == nil {
		return nil
	}
	if v, ok := c.Get(requestStartKey); ok {
		if start, ok := v.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}

func lookupMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}
