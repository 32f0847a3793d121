// Package validator 为 gin 提供基于 validator/v10 的参数校验器
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator 实现 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 校验结构体（或结构体指针），其他类型直接放行
func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.Validate.Struct(obj)
}

// Engine 返回底层校验引擎
func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
		registerRules(v.Validate)
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	kind := value.Kind()
	if kind == reflect.Ptr {
		kind = value.Elem().Kind()
	}
	return kind
}

var shareTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,64}$`)

func registerRules(v *validator.Validate) {
	// sharetoken: base64url 字符集的分享 Token
	_ = v.RegisterValidation("sharetoken", func(fl validator.FieldLevel) bool {
		return shareTokenPattern.MatchString(fl.Field().String())
	})
	// mediaurl: 空或 http(s) 开头的媒体地址
	_ = v.RegisterValidation("mediaurl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
	})
}

// Install 将自定义校验器注册为 gin 的全局校验器
func Install() *CustomValidator {
	v := NewCustomValidator()
	binding.Validator = v
	return v
}

var _ binding.StructValidator = (*CustomValidator)(nil)
