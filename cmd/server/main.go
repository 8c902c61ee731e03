package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/config"
	"github.com/d60-Lab/sanity-adjacent/internal/api/handler"
	"github.com/d60-Lab/sanity-adjacent/internal/api/middleware"
	"github.com/d60-Lab/sanity-adjacent/internal/api/router"
	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/internal/service"
	"github.com/d60-Lab/sanity-adjacent/internal/storage"
	"github.com/d60-Lab/sanity-adjacent/pkg/database"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
	"github.com/d60-Lab/sanity-adjacent/pkg/token"
	"github.com/d60-Lab/sanity-adjacent/pkg/tracing"
)

// @title sanity-adjacent API
// @version 1.0
// @description 帖子、评论、点赞与实时事件推送
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Sentry.Environment)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("auto migrate failed", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping failed", zap.Error(err))
		}
	}

	relay, err := realtime.Open(cfg.Relay, rdb)
	if err != nil {
		logger.Fatal("relay init failed", zap.Error(err))
	}
	broadcaster := realtime.NewBroadcaster(relay, cfg.Relay.QueueSize, cfg.Relay.PublishTimeout)
	stopBroadcaster := broadcaster.Start(cfg.Relay.Workers)

	feed := cache.NewFeedCache(rdb, cfg.Cache.FeedTTL)
	var gateway http.Handler
	if cfg.Relay.Driver != "pusher" {
		if sub, err := feed.Watch(ctx, relay); err == nil {
			defer sub.Close()
		} else if feed != nil {
			logger.Warn("feed cache watch disabled", zap.Error(err))
		}
		gateway = realtime.NewGateway(relay, nil)
	}

	var media handler.MediaStore
	if cfg.Storage.Enabled {
		st, err := storage.New(cfg.Storage)
		if err != nil {
			logger.Fatal("storage init failed", zap.Error(err))
		}
		if err := st.EnsureBucket(ctx); err != nil {
			logger.Fatal("storage bucket check failed", zap.Error(err))
		}
		media = st
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	h := handler.NewHandler(
		service.NewUserService(userRepo, likeRepo, tokens, broadcaster, feed, cfg.Auth),
		service.NewPostService(postRepo, userRepo, feed, broadcaster),
		service.NewLikeService(likeRepo, postRepo, feed, broadcaster),
		service.NewCommentService(commentRepo, postRepo, feed, broadcaster),
		media,
	)

	var limiter *middleware.IPLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewIPLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	engine := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		Tokens:  tokens,
		Gateway: gateway,
		Limiter: limiter,
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: cfg.Server.ReadTimeout,
	}
	// websocket 连接长期存活，有网关时不设整体写超时
	if gateway == nil {
		srv.WriteTimeout = cfg.Server.WriteTimeout
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Port), zap.String("relay", cfg.Relay.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopBroadcaster(shutdownCtx); err != nil {
		logger.Warn("broadcaster drain incomplete", zap.Error(err))
	}
	if err := relay.Close(); err != nil {
		logger.Warn("relay close", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(db); err != nil {
		logger.Warn("database close", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
