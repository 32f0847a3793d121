package middleware

import (
	"github.com/haierkeys/gift-share-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfo 在上下文中记录服务名称、版本与访问地址
func AppInfo(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))
		c.Header("X-App-Version", version)

		c.Next()
	}
}
