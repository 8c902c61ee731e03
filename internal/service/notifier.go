package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

// Notifier 发布实时事件，不返回错误也不阻塞调用方；realtime.Broadcaster 实现了它
type Notifier interface {
	Notify(ch realtime.Channel, ev realtime.Event, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(realtime.Channel, realtime.Event, any) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// EventData 事件载荷，订阅方一般只关心事件名
type EventData struct {
	Message string `json:"message"`
	PostID  string `json:"postId,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// invalidateFeed 写成功后同步失效首页缓存，失败只记日志
func invalidateFeed(feed *cache.FeedCache) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := feed.Invalidate(ctx); err != nil {
		logger.Warn("feed cache invalidate failed", zap.Error(err))
	}
}
