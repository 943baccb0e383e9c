package errors

import "errors"

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
	CodeUnavailable  = 503
)

// 业务错误码 (6xxx)
const (
	CodeDataNotFound    = 6001
	CodeDataInvalid     = 6002
	CodeOperationFailed = 6003
)

// ServiceError 业务错误，携带错误码供响应层映射
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// New 创建带错误码的业务错误
func New(code int, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// NewNotFound 数据不存在
func NewNotFound(message string) *ServiceError {
	return New(CodeDataNotFound, message)
}

// NewAlreadyExists 数据已存在（编码冲突、关系已存在等）
func NewAlreadyExists(message string) *ServiceError {
	return New(CodeConflict, message)
}

// NewInvalidParam 参数校验失败
func NewInvalidParam(message string) *ServiceError {
	return New(CodeInvalidParam, message)
}

// NewOperationFailed 写入未生效或存储层异常
func NewOperationFailed(message string) *ServiceError {
	return New(CodeOperationFailed, message)
}

// NewUnavailable 依赖的存储或缓存不可达
func NewUnavailable(message string) *ServiceError {
	return New(CodeUnavailable, message)
}

// AsServiceError 提取业务错误，普通错误返回nil
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// IsCode 判断错误是否为指定业务码
func IsCode(err error, code int) bool {
	se := AsServiceError(err)
	return se != nil && se.Code == code
}
