package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/apperr"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Kind    apperr.Kind `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

func abort(c *gin.Context, kind apperr.Kind, msg string) {
	status := kind.HTTPStatus()
	c.AbortWithStatusJSON(status, Response{Code: status, Kind: kind, Message: msg})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, msg string) { abort(c, apperr.KindBadRequest, msg) }

// Unauthorized 未登录或无权限
func Unauthorized(c *gin.Context, msg string) { abort(c, apperr.KindUnauthorized, msg) }

// NotFound 资源不存在
func NotFound(c *gin.Context, msg string) { abort(c, apperr.KindNotFound, msg) }

// TooManyRequests 触发限流
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Code: http.StatusTooManyRequests, Message: "too many requests"})
}

// ServiceUnavailable 功能未启用或依赖不可用
func ServiceUnavailable(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{Code: http.StatusServiceUnavailable, Message: msg})
}

// InternalError 服务器内部错误，不向客户端暴露细节
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	abort(c, apperr.KindInternal, "internal server error")
}

// Error 按 apperr.Kind 输出结构化错误
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
	}
	abort(c, kind, apperr.Message(err))
}
