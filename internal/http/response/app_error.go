package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// AppError 统一错误包装：业务码、展示消息与原始错误
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Respond 以统一信封返回该错误
func (e *AppError) Respond(c *gin.Context) {
	if e == nil {
		Error(c, CodeInternal, "internal error")
		return
	}
	Error(c, e.Code, e.Message)
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
