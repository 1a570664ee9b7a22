package shared

import (
	"github.com/huoyun-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const subjectIDContextKey = "subject_id"
const subjectRoleContextKey = "subject_role"

// GetSubjectID 读取鉴权中间件写入的主体 ID，缺失时统一回 401。
func GetSubjectID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, subjectIDContextKey)
}

// GetSubjectRole 读取鉴权中间件写入的主体角色
func GetSubjectRole(c *gin.Context) string {
	value, ok := c.Get(subjectRoleContextKey)
	if !ok {
		return ""
	}
	if role, ok := value.(string); ok {
		return role
	}
	return ""
}

// GetContextUint 从上下文读取 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "authentication required", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "invalid identity value", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "invalid identity value", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "unexpected identity type", nil)
		return 0, false
	}
}
