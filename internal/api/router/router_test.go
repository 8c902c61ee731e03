package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/sanity-adjacent/config"
	"github.com/d60-Lab/sanity-adjacent/internal/api/handler"
	"github.com/d60-Lab/sanity-adjacent/internal/model"
	"github.com/d60-Lab/sanity-adjacent/internal/repository"
	"github.com/d60-Lab/sanity-adjacent/internal/service"
	"github.com/d60-Lab/sanity-adjacent/pkg/database"
	"github.com/d60-Lab/sanity-adjacent/pkg/token"
)

type envelope struct {
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t  *testing.T
	db *gorm.DB
	h  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	db, err := database.OpenTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	likes := repository.NewLikeRepository(db)
	comments := repository.NewCommentRepository(db)
	tokens := token.NewManager("test-secret", time.Hour, "test")

	h := handler.NewHandler(
		service.NewUserService(users, likes, tokens, nil, nil, config.AuthConfig{BcryptCost: bcrypt.MinCost}),
		service.NewPostService(posts, users, nil, nil),
		service.NewLikeService(likes, posts, nil, nil),
		service.NewCommentService(comments, posts, nil, nil),
		nil,
	)
	engine := Setup(Deps{
		Config:  &config.Config{Server: config.ServerConfig{Mode: "test"}},
		Handler: h,
		Tokens:  tokens,
		Health:  func(context.Context) error { return nil },
	})
	return &testServer{t: t, db: db, h: engine}
}

func (s *testServer) call(method, path, tok string, body interface{}) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) signup(name string, canPost bool) (string, string) {
	code, env := s.call(http.MethodPost, "/api/v1/auth.signup", "", obj{"name": name, "email": name + "@example.com", "password": "password123"})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	var res struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	if canPost {
		require.NoError(s.t, s.db.Model(&model.User{}).Where("id = ?", res.User.ID).Update("can_post", true).Error)
	}
	return res.User.ID, res.Token
}

type obj map[string]interface{}

func TestProcedures(t *testing.T) {
	s := newTestServer(t)
	_, tokA := s.signup("alice", true)
	_, tokB := s.signup("bob", false)

	code, env := s.call(http.MethodPost, "/api/v1/auth.login", "", obj{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Kind)

	// 无发帖权限
	code, env = s.call(http.MethodPost, "/api/v1/post.new", tokB, obj{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Kind)

	// 未登录
	code, _ = s.call(http.MethodPost, "/api/v1/post.new", "", obj{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.call(http.MethodPost, "/api/v1/post.new", tokA, obj{"title": "   ", "content": "c"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Kind)

	code, env = s.call(http.MethodPost, "/api/v1/post.new", tokA, obj{"title": "hello", "content": "world"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var post model.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))

	code, env = s.call(http.MethodGet, "/api/v1/post.getAll", tokB, nil)
	require.Equal(t, http.StatusOK, code)
	var feed []service.PostView
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)

	code, env = s.call(http.MethodGet, "/api/v1/post.getLikes?postId="+post.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "0", string(env.Data))

	code, env = s.call(http.MethodPost, "/api/v1/post.addLike", tokB, obj{"postId": post.ID})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"User liked post"}`, string(env.Data))

	code, env = s.call(http.MethodPost, "/api/v1/post.addLike", tokB, obj{"postId": post.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Kind)

	_, env = s.call(http.MethodGet, "/api/v1/post.getLikes?postId="+post.ID, "", nil)
	assert.JSONEq(t, "1", string(env.Data))

	code, _ = s.call(http.MethodPost, "/api/v1/post.removeLike", tokB, obj{"postId": post.ID})
	assert.Equal(t, http.StatusOK, code)
	code, env = s.call(http.MethodPost, "/api/v1/post.removeLike", tokB, obj{"postId": post.ID})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Kind)

	code, env = s.call(http.MethodPost, "/api/v1/post.update", tokB, obj{"postId": post.ID, "title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, env = s.call(http.MethodPost, "/api/v1/post.update", tokA, obj{"postId": post.ID, "title": "x", "content": "y"})
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"User updated post"}`, string(env.Data))

	code, _ = s.call(http.MethodPost, "/api/v1/comment.add", tokB, obj{"postId": post.ID, "content": "nice"})
	assert.Equal(t, http.StatusCreated, code)
	code, env = s.call(http.MethodGet, "/api/v1/post.getComments?postId="+post.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	var comments []model.Comment
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].User.Name)

	code, env = s.call(http.MethodGet, "/api/v1/post.getComments?postId=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.call(http.MethodGet, "/api/v1/post.getLikes?postId=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.call(http.MethodGet, "/api/v1/post.getOne", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.call(http.MethodPost, "/api/v1/user.updateName", tokB, obj{"name": "Bobby"})
	require.Equal(t, http.StatusOK, code)
	code, env = s.call(http.MethodGet, "/api/v1/user.me", tokB, nil)
	require.Equal(t, http.StatusOK, code)
	var me service.Profile
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Bobby", me.Name)
	assert.Empty(t, me.LikedPostIDs)
	assert.NotContains(t, string(env.Data), "password")

	// 未配置对象存储时上传功能关闭
	code, env = s.call(http.MethodPost, "/api/v1/media.upload", tokA, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "media storage is not configured", env.Message)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
