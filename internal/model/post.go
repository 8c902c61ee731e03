package model

import "time"

// Post 帖子；点赞数不落库，读取时聚合
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Image     *string   `json:"image" gorm:"type:text"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index:idx_post_user;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index:idx_post_updated"`

	User     *User     `json:"user,omitempty"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

func (Post) TableName() string { return "posts" }
