package middleware

import (
	"strconv"

	"github.com/haierkeys/gift-share-service/pkg/app"
	"github.com/haierkeys/gift-share-service/pkg/code"
	"github.com/haierkeys/gift-share-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 限流中间件，没有匹配规则的请求直接放行
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket, ok := l.GetBucket(l.Key(c)); ok {
			if bucket.TakeAvailable(1) == 0 {
				wait := bucket.Rate()
				retry := 1
				if wait > 0 && wait < 1 {
					retry = int(1/wait) + 1
				}
				c.Header("Retry-After", strconv.Itoa(retry))
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
