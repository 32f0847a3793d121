package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/gift-share-service/pkg/app"
	"github.com/haierkeys/gift-share-service/pkg/code"
	"github.com/haierkeys/gift-share-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 捕获 handler 中的 panic，记录堆栈后返回 500
// panic 详情只写日志，不返回给客户端
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []zap.Field{
				zap.String("router", c.Request.URL.Path),
				zap.String(logger.FieldMethod, c.Request.Method),
				zap.String("ip", c.ClientIP()),
				zap.String(logger.FieldTraceID, GetTraceIDFromGin(c)),
				zap.String("stack", string(debug.Stack())),
			}
			if err, ok := r.(error); ok {
				lg.Error("Recovered from panic", append(fields, zap.Error(err))...)
			} else {
				lg.Error("Recovered from panic", append(fields, zap.String("panic_value", fmt.Sprintf("%v", r)))...)
			}

			app.NewResponse(c).ToResponse(code.ErrorServerInternal)
			c.Abort()
		}()

		c.Next()
	}
}
