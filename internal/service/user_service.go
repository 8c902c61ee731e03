package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/sanity-adjacent/config"
	"github.com/d60-Lab/sanity-adjacent/internal/cache"
	"github.com/d60-Lab/sanity-adjacent/internal/model"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/pkg/apperr"
	"github.com/d60-Lab/sanity-adjacent/pkg/token"
)

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// AuthResult 登录/注册结果
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Profile 当前用户信息，附带已点赞的帖子
type Profile struct {
	model.User
	LikedPostIDs []string `json:"likedPostIds"`
}

// UserService 用户服务
type UserService interface {
	Signup(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*Profile, error)
	UpdateName(ctx context.Context, userID, name string) (*model.User, error)
	UpdatePfp(ctx context.Context, userID, image string) (*model.User, error)
}

type userService struct {
	users    repository.UserRepository
	likes    repository.LikeRepository
	tokens   *token.Manager
	notifier Notifier
	feed     *cache.FeedCache
	cfg      config.AuthConfig
}

func NewUserService(users repository.UserRepository, likes repository.LikeRepository, tokens *token.Manager, notifier Notifier, feed *cache.FeedCache, cfg config.AuthConfig) UserService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &userService{users: users, likes: likes, tokens: tokens, notifier: orNop(notifier), feed: feed, cfg: cfg}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &model.User{
		Name:     strings.TrimSpace(name),
		Email:    &email,
		Password: string(hash),
		CanPost:  s.cfg.DefaultCanPost,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal("create user", err)
	}
	return s.issue(u)
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, apperr.Internal("load user", err)
	}
	// 无密码账号只能走第三方登录
	if u.Password == "" {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return s.issue(u)
}

func (s *userService) issue(u *model.User) (*AuthResult, error) {
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &AuthResult{User: u, Token: tok}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.likes.ListPostIDsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load liked posts", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return &Profile{User: *u, LikedPostIDs: ids}, nil
}

func (s *userService) UpdateName(ctx context.Context, userID, name string) (*model.User, error) {
	return s.update(ctx, userID, map[string]interface{}{"name": strings.TrimSpace(name)}, "updated name")
}

func (s *userService) UpdatePfp(ctx context.Context, userID, image string) (*model.User, error) {
	return s.update(ctx, userID, map[string]interface{}{"image": image}, "updated profile picture")
}

func (s *userService) update(ctx context.Context, userID string, fields map[string]interface{}, msg string) (*model.User, error) {
	if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("update user", err)
	}
	// 帖子列表里带作者信息
	invalidateFeed(s.feed)
	s.notifier.Notify(realtime.Main, realtime.UpdatedInfo, EventData{Message: msg, UserID: userID})
	return s.load(ctx, userID)
}

func (s *userService) load(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("load user", err)
	}
	return u, nil
}
