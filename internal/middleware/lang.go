package middleware

import (
	"strings"

	"github.com/haierkeys/gift-share-service/pkg/app"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 按 ?lang= 或 lang 请求头选择响应语言和校验翻译器
// 未知语言使用英文翻译器，响应语言留给全局默认值
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			lang = c.GetHeader("lang")
		}
		if lang == "" {
			lang = c.GetHeader("Accept-Language")
			if i := strings.IndexAny(lang, ",;"); i >= 0 {
				lang = lang[:i]
			}
		}
		lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", "_"))

		locale := lang
		if strings.HasPrefix(locale, "zh") {
			locale = "zh"
		}
		trans, found := uni.GetTranslator(locale)
		if !found {
			trans, _ = uni.GetTranslator("en")
		}
		c.Set(app.TransKey, trans)
		if found {
			c.Set(app.LangKey, lang)
		}

		c.Next()
	}
}
