package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sanity-adjacent/internal/model"
)

type LikeRepository interface {
	// Create 重复点赞返回 ErrDuplicate，由复合主键保证
	Create(ctx context.Context, userID, postID string) error
	// Delete 没有对应点赞返回 ErrNotFound
	Delete(ctx context.Context, userID, postID string) error
	CountByPost(ctx context.Context, postID string) (int64, error)
	ListPostIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, userID, postID string) error {
	err := r.db.WithContext(ctx).Create(&model.Like{UserID: userID, PostID: postID}).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}

func (r *likeRepository) ListPostIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("post_id", &ids).Error
	return ids, err
}
