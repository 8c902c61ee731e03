package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/pkg/apperr"
)

// LikeService 点赞服务；点赞数只在读取时聚合
type LikeService interface {
	AddLike(ctx context.Context, userID, postID string) error
	RemoveLike(ctx context.Context, userID, postID string) error
	GetLikes(ctx context.Context, postID string) (int64, error)
}

type likeService struct {
	likes    repository.LikeRepository
	posts    repository.PostRepository
	feed     *cache.FeedCache
	notifier Notifier
}

func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, feed *cache.FeedCache, notifier Notifier) LikeService {
	return &likeService{likes: likes, posts: posts, feed: feed, notifier: orNop(notifier)}
}

func (s *likeService) AddLike(ctx context.Context, userID, postID string) error {
	if err := mustExist(ctx, s.posts, postID); err != nil {
		return err
	}
	if err := s.likes.Create(ctx, userID, postID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict("post already liked")
		}
		return apperr.Internal("like post", err)
	}
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.LikedPost, EventData{Message: "liked post", PostID: postID, UserID: userID})
	return nil
}

func (s *likeService) RemoveLike(ctx context.Context, userID, postID string) error {
	if err := s.likes.Delete(ctx, userID, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("like not found")
		}
		return apperr.Internal("unlike post", err)
	}
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.UnlikedPost, EventData{Message: "unliked post", PostID: postID, UserID: userID})
	return nil
}

func (s *likeService) GetLikes(ctx context.Context, postID string) (int64, error) {
	if err := mustExist(ctx, s.posts, postID); err != nil {
		return 0, err
	}
	cnt, err := s.likes.CountByPost(ctx, postID)
	if err != nil {
		return 0, apperr.Internal("count likes", err)
	}
	return cnt, nil
}

func mustExist(ctx context.Context, posts repository.PostRepository, postID string) error {
	ok, err := posts.Exists(ctx, postID)
	if err != nil {
		return apperr.Internal("load post", err)
	}
	if !ok {
		return apperr.NotFound("post not found")
	}
	return nil
}
