package models

import "gorm.io/datatypes"

// NotificationModel is an in-app message addressed to one email.
type NotificationModel struct {
	Base
	RecipientEmail string         `json:"recipient_email" gorm:"size:191;index"`
	Title          string         `json:"title"           gorm:"size:255;not null"`
	Message        string         `json:"message"         gorm:"type:text"`
	Type           string         `json:"type"            gorm:"size:32;default:info"`
	Payload        datatypes.JSON `json:"payload"         gorm:"type:longtext"`
	IsRead         bool           `json:"is_read"         gorm:"default:false"`
}

func (NotificationModel) TableName() string { return "notifications" }
