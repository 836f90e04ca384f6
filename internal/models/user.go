package models

import "time"

// UserModel is an account that can sign in to the dashboard.
type UserModel struct {
	Base
	Name              string     `json:"name"     gorm:"size:191"`
	Email             string     `json:"email"    gorm:"size:191;uniqueIndex;not null"`
	Password          string     `json:"-"        gorm:"not null"`
	Role              string     `json:"role"     gorm:"size:16;not null;default:editor"`
	ResetTokenHash    *string    `json:"-"        gorm:"size:64;index"`
	ResetTokenExpires *time.Time `json:"-"`
}

func (UserModel) TableName() string { return "users" }

// ProfileModel holds the editable profile of a user.
type ProfileModel struct {
	Base
	UserID  uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	Avatar  string `json:"avatar"  gorm:"size:255"`
	Bio     string `json:"bio"     gorm:"type:text"`
	Phone   string `json:"phone"   gorm:"size:32"`
	Company string `json:"company" gorm:"size:191"`
}

func (ProfileModel) TableName() string { return "profile" }
