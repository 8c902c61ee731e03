package model

import "time"

// Comment 评论
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null"`
	PostID    string    `json:"postId" gorm:"type:varchar(36);index:idx_comment_post_created;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_comment_post_created"`

	User *User `json:"user,omitempty"`
}

func (Comment) TableName() string { return "comments" }
