package model

import "time"

// User 用户；Password 为空表示第三方登录账号
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     *string   `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex:ux_user_email"`
	Image     *string   `json:"image" gorm:"type:text"`
	CanPost   bool      `json:"canPost" gorm:"not null;default:false"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
