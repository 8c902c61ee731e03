package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/model"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/pkg/apperr"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// PostView 帖子 + 聚合出的点赞数
type PostView struct {
	model.Post
	LikeCount int64 `json:"likeCount"`
}

type CreatePostInput struct {
	Title   string
	Content string
	Image   *string
}

type UpdatePostInput struct {
	PostID  string
	Title   string
	Content string
	Image   *string
}

// PostService 帖子服务
type PostService interface {
	GetAll(ctx context.Context, page, pageSize int) ([]PostView, error)
	GetOne(ctx context.Context, postID string) (*model.Post, error)
	Create(ctx context.Context, userID string, in CreatePostInput) (*model.Post, error)
	// Update 仅作者可改，先校验再写
	Update(ctx context.Context, userID string, in UpdatePostInput) error
}

type postService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	feed     *cache.FeedCache
	notifier Notifier
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, feed *cache.FeedCache, notifier Notifier) PostService {
	return &postService{posts: posts, users: users, feed: feed, notifier: orNop(notifier)}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (s *postService) GetAll(ctx context.Context, page, pageSize int) ([]PostView, error) {
	page, pageSize = normalizePage(page, pageSize)

	var cached []PostView
	version, hit, cacheErr := s.feed.Get(ctx, page, pageSize, &cached)
	if cacheErr != nil {
		logger.Warn("feed cache read failed", zap.Error(cacheErr))
	} else if hit {
		return cached, nil
	}

	posts, err := s.posts.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperr.Internal("list posts", err)
	}
	counts, err := s.posts.LikeCounts(ctx, lo.Map(posts, func(p *model.Post, _ int) string { return p.ID }))
	if err != nil {
		return nil, apperr.Internal("count likes", err)
	}
	views := lo.Map(posts, func(p *model.Post, _ int) PostView {
		return PostView{Post: *p, LikeCount: counts[p.ID]}
	})

	// 只写回读取时的版本，期间发生的失效不会被旧页面覆盖
	if cacheErr == nil {
		if err := s.feed.Set(ctx, version, page, pageSize, views); err != nil {
			logger.Warn("feed cache write failed", zap.Error(err))
		}
	}
	return views, nil
}

func (s *postService) GetOne(ctx context.Context, postID string) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("load post", err)
	}
	return p, nil
}

func (s *postService) Create(ctx context.Context, userID string, in CreatePostInput) (*model.Post, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("login required")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("login required")
		}
		return nil, apperr.Internal("load user", err)
	}
	if !u.CanPost {
		return nil, apperr.Unauthorized("user is not allowed to post")
	}

	p := &model.Post{Title: in.Title, Content: in.Content, Image: in.Image, UserID: userID}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, apperr.Internal("create post", err)
	}
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.AddedPost, EventData{Message: "added new post", PostID: p.ID, UserID: userID})
	return p, nil
}

func (s *postService) Update(ctx context.Context, userID string, in UpdatePostInput) error {
	p, err := s.GetOne(ctx, in.PostID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return apperr.Unauthorized("only the author can update this post")
	}

	p.Title, p.Content, p.Image = in.Title, in.Content, in.Image
	if err := s.posts.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("post not found")
		}
		return apperr.Internal("update post", err)
	}
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.AddedPost, EventData{Message: "updated post", PostID: p.ID, UserID: userID})
	return nil
}
