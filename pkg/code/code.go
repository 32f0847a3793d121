// Package code 定义对外响应码
package code

import (
	"fmt"
	"net/http"
)

// Code 响应码对象
// 预定义的 Code 为共享实例，附带数据前必须先 Clone
type Code struct {
	code       int
	status     bool
	httpStatus int
	Lang       lang

	data     interface{}
	haveData bool

	details     []string
	haveDetails bool
}

var codes = map[int]struct{}{}

func register(code int) {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("code %d already registered", code))
	}
	codes[code] = struct{}{}
}

// NewError 注册错误码
func NewError(code int, httpStatus int, l lang) *Code {
	register(code)
	return &Code{code: code, status: false, httpStatus: httpStatus, Lang: l}
}

// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	register(code)
	return &Code{code: code, status: true, httpStatus: http.StatusOK, Lang: l}
}

// Clone 创建一个不带数据与详情的副本
func (e *Code) Clone() *Code {
	return &Code{
		code:       e.code,
		status:     e.status,
		httpStatus: e.httpStatus,
		Lang:       e.Lang,
	}
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

// WithData 返回附带数据的副本
func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.details, c.haveDetails = e.details, e.haveDetails
	c.haveData = true
	c.data = data
	return c
}

// WithDetails 返回附带详情的副本
func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.data, c.haveData = e.data, e.haveData
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// StatusCode 返回 HTTP 状态码
func (e *Code) StatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusOK
	}
	return e.httpStatus
}
