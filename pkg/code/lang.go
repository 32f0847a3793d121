package code

import (
	"errors"
	"strings"
	"sync/atomic"
)

// lang 存储英文和中文文本
type lang struct {
	en    string
	zh_cn string
}

// FallbackLang 回退语言
const FallbackLang = "en"

var supported = []string{"en", "zh_cn"}

var lng atomic.Value

func init() {
	lng.Store(FallbackLang)
}

// GetMessage 根据当前语言返回消息，缺失时回退到英文
func (l lang) GetMessage() string {
	return l.In(GetGlobalDefaultLang())
}

// In 返回指定语言的消息
func (l lang) In(language string) string {
	switch language {
	case "zh_cn", "zh":
		if l.zh_cn != "" {
			return l.zh_cn
		}
	}
	return l.en
}

// GetSupportedLanguages 返回支持的语言
func GetSupportedLanguages() []string {
	return append([]string{}, supported...)
}

// SetGlobalDefaultLang 设置默认语言，不支持的语言回退为英文
func SetGlobalDefaultLang(language string) error {
	language = strings.ToLower(strings.ReplaceAll(language, "-", "_"))
	if language == "zh" {
		language = "zh_cn"
	}
	for _, s := range supported {
		if s == language {
			lng.Store(language)
			return nil
		}
	}
	lng.Store(FallbackLang)
	return errors.New("unsupported language type, set defaulting to " + FallbackLang)
}

// GetGlobalDefaultLang 获取默认语言
func GetGlobalDefaultLang() string {
	return lng.Load().(string)
}
