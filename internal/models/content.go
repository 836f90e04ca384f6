package models

import "gorm.io/datatypes"

// Content document statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// ValidStatus reports whether s is a document status.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// Content is one stored JSON document of a content model.
type Content struct {
	Base
	ModelID     uint           `json:"model_id"     gorm:"index;not null"`
	Slug        string         `json:"slug"         gorm:"size:191;index;not null"`
	Data        datatypes.JSON `json:"data"         gorm:"type:longtext"`
	Status      string         `json:"status"       gorm:"size:16;not null;default:draft"`
	EditorEmail string         `json:"editor_email" gorm:"size:191;index"`
}

func (Content) TableName() string { return "contents" }
