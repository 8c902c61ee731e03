package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/sanity-adjacent/internal/model"
	"github.com/d60-Lab/sanity-adjacent/pkg/database"
)

func setupDB(t testing.TB) *gorm.DB {
	db, err := database.OpenTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t testing.TB, repo UserRepository, name string) *model.User {
	email := name + "@example.com"
	u := &model.User{Name: name, Email: &email, Password: "hash", CanPost: true}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupDB(t))

	alice := seedUser(t, repo, "alice")
	assert.NotEmpty(t, alice.ID)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	email := "alice@example.com"
	err = repo.Create(ctx, &model.User{Name: "alice2", Email: &email})
	assert.ErrorIs(t, err, ErrDuplicate)

	// 未设置邮箱的用户互不冲突
	require.NoError(t, repo.Create(ctx, &model.User{Name: "anon1"}))
	require.NoError(t, repo.Create(ctx, &model.User{Name: "anon2"}))

	require.NoError(t, repo.UpdateFields(ctx, alice.ID, map[string]interface{}{"name": "Alice"}))
	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	assert.ErrorIs(t, repo.UpdateFields(ctx, "missing", map[string]interface{}{"name": "x"}), ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepositoryListOrderAndAggregates(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	likes := NewLikeRepository(db)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	base := time.Now().UTC().Add(-time.Hour)
	older := &model.Post{Title: "older", Content: "c", UserID: alice.ID, CreatedAt: base, UpdatedAt: base}
	newer := &model.Post{Title: "newer", Content: "c", UserID: bob.ID, CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}
	require.NoError(t, posts.Create(ctx, older))
	require.NoError(t, posts.Create(ctx, newer))

	require.NoError(t, comments.Create(ctx, &model.Comment{Content: "first", UserID: bob.ID, PostID: older.ID, CreatedAt: base}))
	require.NoError(t, comments.Create(ctx, &model.Comment{Content: "second", UserID: alice.ID, PostID: older.ID, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, likes.Create(ctx, alice.ID, older.ID))
	require.NoError(t, likes.Create(ctx, bob.ID, older.ID))

	list, err := posts.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "bob", list[0].User.Name)
	assert.Empty(t, list[1].User.Password)
	require.Len(t, list[1].Comments, 2)
	assert.Equal(t, "first", list[1].Comments[0].Content)
	assert.Equal(t, "bob", list[1].Comments[0].User.Name)

	counts, err := posts.LikeCounts(ctx, []string{older.ID, newer.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[older.ID])
	assert.Equal(t, int64(0), counts[newer.ID])

	// 更新后排到最前
	older.Title = "edited"
	older.Image = nil
	require.NoError(t, posts.Update(ctx, older))
	list, err = posts.List(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Title)

	assert.ErrorIs(t, posts.Update(ctx, &model.Post{ID: "missing"}), ErrNotFound)
	ok, err := posts.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = posts.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)

	alice := seedUser(t, users, "alice")
	p := &model.Post{Title: "t", Content: "c", UserID: alice.ID}
	require.NoError(t, posts.Create(ctx, p))

	cnt, err := likes.CountByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, cnt)

	require.NoError(t, likes.Create(ctx, alice.ID, p.ID))
	assert.ErrorIs(t, likes.Create(ctx, alice.ID, p.ID), ErrDuplicate)

	cnt, err = likes.CountByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)

	ids, err := likes.ListPostIDsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, ids)

	require.NoError(t, likes.Delete(ctx, alice.ID, p.ID))
	assert.ErrorIs(t, likes.Delete(ctx, alice.ID, p.ID), ErrNotFound)
}

func BenchmarkLikeWrite(b *testing.B) {
	db := setupDB(b)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	owner := seedUser(b, users, "owner")
	p := &model.Post{Title: "t", Content: "c", UserID: owner.ID}
	require.NoError(b, posts.Create(ctx, p))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = likes.Create(ctx, fmt.Sprintf("u%d", i), p.ID)
	}
}

func BenchmarkFeedList(b *testing.B) {
	db := setupDB(b)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	// 构造：100 篇帖子，每篇 5 条评论 5 个赞
	owner := seedUser(b, users, "owner")
	for i := 0; i < 100; i++ {
		p := &model.Post{Title: fmt.Sprintf("p%d", i), Content: "c", UserID: owner.ID}
		require.NoError(b, posts.Create(ctx, p))
		for j := 0; j < 5; j++ {
			_ = comments.Create(ctx, &model.Comment{Content: "c", UserID: owner.ID, PostID: p.ID})
			_ = likes.Create(ctx, fmt.Sprintf("u%d", j), p.ID)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		list, _ := posts.List(ctx, 0, 10)
		ids := make([]string, 0, len(list))
		for _, p := range list {
			ids = append(ids, p.ID)
		}
		_, _ = posts.LikeCounts(ctx, ids)
	}
}
