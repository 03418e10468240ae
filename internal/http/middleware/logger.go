package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one access line per request. The Authorization header and
// the body are never logged.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		user := "-"
		if id := GetUserID(c); id > 0 {
			user = strconv.FormatInt(id, 10)
		}
		level := "INFO"
		if c.Writer.Status() >= 500 {
			level = "ERROR"
		} else if c.Writer.Status() >= 400 {
			level = "WARN"
		}

		log.Printf("%s [HTTP] request_id=%s user_id=%s %s %s status=%d bytes=%d dur=%s",
			level,
			GetRequestID(c),
			user,
			c.Request.Method,
			path,
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start).Round(time.Microsecond),
		)
	}
}
