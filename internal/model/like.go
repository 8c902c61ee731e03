package model

import "time"

// Like 点赞关系（用户-帖子），复合主键保证一人一帖只能点一次
type Like struct {
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"postId" gorm:"primaryKey;type:varchar(36);index:idx_like_post"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Like) TableName() string { return "likes" }
