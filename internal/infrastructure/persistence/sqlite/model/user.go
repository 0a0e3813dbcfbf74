package model

import "time"

type User struct {
	UserID      uint64    `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username    string    `gorm:"column:username;type:text;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;type:text;not null"`
	Role        string    `gorm:"column:role;type:text;not null"`
	APIKey      string    `gorm:"column:api_key;type:text;not null;uniqueIndex"`
	Active      bool      `gorm:"column:active;not null;default:1"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (User) TableName() string {
	return "users"
}
