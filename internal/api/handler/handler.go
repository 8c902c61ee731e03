package handler

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/sanity-adjacent/internal/service"
)

// MediaStore 图片存储，未配置时为 nil
type MediaStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (*url.URL, error)
	MaxUpload() int64
}

// Handler 聚合各个远程过程
type Handler struct {
	userService    service.UserService
	postService    service.PostService
	likeService    service.LikeService
	commentService service.CommentService
	media          MediaStore
}

func NewHandler(users service.UserService, posts service.PostService, likes service.LikeService, comments service.CommentService, media MediaStore) *Handler {
	registerValidators()
	return &Handler{
		userService:    users,
		postService:    posts,
		likeService:    likes,
		commentService: comments,
		media:          media,
	}
}

var validatorsOnce sync.Once

// registerValidators 注册自定义校验：notblank 拒绝纯空白字符串
func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
				return strings.TrimSpace(fl.Field().String()) != ""
			})
		}
	})
}

// message 变更类接口返回的确认文本
type message struct {
	Message string `json:"message"`
}
