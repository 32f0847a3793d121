package middleware

import (
	"github.com/haierkeys/gift-share-service/pkg/app"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountSession 解析账户会话 Cookie
// 缺失、过期或签名错误的 Cookie 都按匿名请求处理，从不拒绝请求
func AccountSession(cookieName, secret string, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		claims, err := app.ParseSession(raw, secret)
		if err != nil {
			lg.Debug("invalid account session, treating request as anonymous", zap.Error(err))
			c.Next()
			return
		}

		c.Set(app.AccountKey, claims)
		c.Next()
	}
}
