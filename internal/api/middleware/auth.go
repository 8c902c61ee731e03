package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sanity-adjacent/pkg/response"
	"github.com/d60-Lab/sanity-adjacent/pkg/token"
)

const userIDKey = "user_id"

// TokenParser 解析 bearer token，返回用户 ID
type TokenParser interface {
	Parse(raw string) (string, error)
}

var _ TokenParser = (*token.Manager)(nil)

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// AuthRequired 未登录或 token 无效直接返回 UNAUTHORIZED
func AuthRequired(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			response.Unauthorized(c, "login required")
			return
		}
		uid, err := p.Parse(raw)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// AuthOptional 有合法 token 时记录用户，否则匿名放行
func AuthOptional(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearer(c); raw != "" {
			if uid, err := p.Parse(raw); err == nil {
				c.Set(userIDKey, uid)
			}
		}
		c.Next()
	}
}

// CurrentUserID 匿名请求返回空串
func CurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
