package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WriteOriginCheck restricts mutating requests to a comma-separated list of
// trusted origins. Reads pass through untouched. An empty list disables the
// check, which is the development default.
func WriteOriginCheck(writeOrigins string) gin.HandlerFunc {
	trusted := map[string]bool{}
	for _, o := range strings.Split(writeOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			trusted[o] = true
		}
	}
	if len(trusted) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			// Fall back to the Referer's origin for same-site form posts.
			origin = refererOrigin(c.Request.Header.Get("Referer"))
		}
		if !trusted[origin] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}
		c.Next()
	}
}

// refererOrigin extracts scheme://host from a referer URL, or returns "".
func refererOrigin(referer string) string {
	if referer == "" {
		return ""
	}
	idx := strings.Index(referer, "://")
	if idx < 0 {
		return ""
	}
	rest := referer[idx+3:]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return referer[:idx+3] + rest
}
