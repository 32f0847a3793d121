package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldAccountID 账户 ID 字段
	FieldAccountID = "accountId"

	// FieldArtifact 分享类型字段 (gift / letter)
	FieldArtifact = "artifact"

	// FieldToken 分享 Token 字段，只记录前缀
	FieldToken = "token"

	// FieldRecordID 记录 ID 字段
	FieldRecordID = "recordId"

	// FieldTable 数据表字段
	FieldTable = "table"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldPath 媒体对象路径字段
	FieldPath = "path"

	// FieldBlobURL 媒体 URL 字段
	FieldBlobURL = "blobUrl"

	// FieldBackend 媒体删除后端字段
	FieldBackend = "backend"

	// FieldError 错误信息字段
	FieldError = "error"
)

// TokenPrefix returns a loggable prefix of a share token
// TokenPrefix 返回可写入日志的 Token 前缀
func TokenPrefix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6] + "…"
}
