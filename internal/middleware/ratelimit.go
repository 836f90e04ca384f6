package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/kontenhub/cms/internal/pkg/redis"
	"github.com/kontenhub/cms/internal/pkg/response"
)

// RateLimit allows max requests per client IP and route within each fixed
// window. Redis failures (or a nil client) let the request through.
func RateLimit(rc *pkgredis.Client, max int, window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Minute
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rc == nil || ip == "" || max <= 0 {
			c.Next()
			return
		}

		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("cms:rate_limit:%s:%s:%d", c.FullPath(), ip, bucket)

		count, err := rc.Incr(c.Request.Context(), key, window+time.Second)
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}
		if count > int64(max) {
			c.Header("Retry-After", strconv.Itoa(int(window/time.Second)))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
