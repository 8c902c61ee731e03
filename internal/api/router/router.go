package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/sanity-adjacent/config"
	_ "github.com/d60-Lab/sanity-adjacent/docs"
	"github.com/d60-Lab/sanity-adjacent/internal/api/handler"
	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
)

const wsPath = "/api/v1/realtime/ws"

// Deps 路由依赖；Gateway / Limiter / Health 为 nil 时对应功能关闭
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	Tokens  middleware.TokenParser
	Gateway http.Handler
	Limiter *middleware.IPLimiter
	Health  func(ctx context.Context) error
}

// Setup 注册全部远程过程：查询走 GET + query，变更走 POST + JSON
func Setup(d Deps) *gin.Engine {
	if d.Config.Server.Mode != "" {
		gin.SetMode(d.Config.Server.Mode)
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if d.Config.Tracing.Enabled {
		r.Use(otelgin.Middleware(d.Config.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath, "/metrics"})))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.Config.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if d.Gateway != nil {
		r.GET(wsPath, gin.WrapH(d.Gateway))
	}

	v1 := r.Group("/api/v1")
	if d.Limiter != nil {
		v1.Use(middleware.RateLimit(d.Limiter))
	}

	h := d.Handler
	optional := middleware.AuthOptional(d.Tokens)
	required := middleware.AuthRequired(d.Tokens)

	v1.POST("/auth.signup", h.Signup)
	v1.POST("/auth.login", h.Login)

	v1.GET("/post.getAll", optional, h.GetAll)
	v1.GET("/post.getOne", optional, h.GetOne)
	v1.GET("/post.getLikes", h.GetLikes)
	v1.GET("/post.getComments", h.GetComments)
	v1.POST("/post.new", required, h.NewPost)
	v1.POST("/post.update", required, h.UpdatePost)
	v1.POST("/post.addLike", required, h.AddLike)
	v1.POST("/post.removeLike", required, h.RemoveLike)

	v1.POST("/comment.add", required, h.AddComment)

	v1.GET("/user.me", required, h.Me)
	v1.POST("/user.updateName", required, h.UpdateName)
	v1.POST("/user.updatePfp", required, h.UpdatePfp)

	v1.POST("/media.upload", required, h.Upload)

	return r
}
