package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses as privately cacheable for maxAgeSeconds.
// Used for data that is frozen once a session starts, like the paper.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore keeps live session state out of every cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
