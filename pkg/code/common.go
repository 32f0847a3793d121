package code

import "net/http"

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	Failed                = NewError(400, http.StatusBadRequest, lang{en: "Failed", zh_cn: "失败"})
	ErrorInvalidParams    = NewError(401, http.StatusBadRequest, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorNotFoundAPI      = NewError(404, http.StatusNotFound, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests  = NewError(429, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过于频繁"})
	ErrorServerInternal   = NewError(500, http.StatusInternalServerError, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorStoreUnavailable = NewError(503, http.StatusServiceUnavailable, lang{en: "Storage temporarily unavailable", zh_cn: "存储暂时不可用"})

	ErrorShareNotFound       = NewError(1001, http.StatusNotFound, lang{en: "This share does not exist or has expired", zh_cn: "分享不存在或已过期"})
	ErrorShareCreateFailed   = NewError(1002, http.StatusInternalServerError, lang{en: "Failed to create share", zh_cn: "创建分享失败"})
	ErrorShareTokenExhausted = NewError(1003, http.StatusInternalServerError, lang{en: "Failed to allocate share token", zh_cn: "分享 Token 分配失败"})
	ErrorUnknownArtifact     = NewError(1004, http.StatusNotFound, lang{en: "Unknown share type", zh_cn: "未知的分享类型"})
)
