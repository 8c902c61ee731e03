package service

import (
	"context"
	"strings"

	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/model"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/pkg/apperr"
)

// CommentService 评论服务
type CommentService interface {
	Add(ctx context.Context, userID, postID, content string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	feed     *cache.FeedCache
	notifier Notifier
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, feed *cache.FeedCache, notifier Notifier) CommentService {
	return &commentService{comments: comments, posts: posts, feed: feed, notifier: orNop(notifier)}
}

func (s *commentService) Add(ctx context.Context, userID, postID, content string) (*model.Comment, error) {
	if err := mustExist(ctx, s.posts, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{Content: strings.TrimSpace(content), UserID: userID, PostID: postID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, apperr.Internal("create comment", err)
	}
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.AddedComment, EventData{Message: "added comment", PostID: postID, UserID: userID})
	return c, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	if err := mustExist(ctx, s.posts, postID); err != nil {
		return nil, err
	}
	list, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("list comments", err)
	}
	if list == nil {
		list = []*model.Comment{}
	}
	return list, nil
}
