package models

import "time"

// Content model types.
const (
	ModelTypeSinglePage = "single-page"
	ModelTypeMultiPage  = "multi-page"
	ModelTypeComponent  = "component"
)

// ValidModelType reports whether t is a supported content model type.
func ValidModelType(t string) bool {
	switch t {
	case ModelTypeSinglePage, ModelTypeMultiPage, ModelTypeComponent:
		return true
	}
	return false
}

// ContentModel is a user-defined content type.
type ContentModel struct {
	ID          uint      `json:"id"           gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name"         gorm:"size:191;not null"`
	Slug        string    `json:"slug"         gorm:"size:191;uniqueIndex;not null"`
	Type        string    `json:"type"         gorm:"size:32;not null;default:single-page"`
	APIEndpoint string    `json:"api_endpoint" gorm:"size:255"`
	MultiLang   bool      `json:"multiLang"    gorm:"column:multi_lang;default:false"`
	SEO         bool      `json:"seo"          gorm:"column:seo;default:false"`
	Workflow    bool      `json:"workflow"     gorm:"column:workflow;default:false"`
	EditorEmail *string   `json:"editor_email" gorm:"size:191;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ContentModel) TableName() string { return "content_models" }

// OwnerEmail returns the owning editor's email or "" when unset.
func (m *ContentModel) OwnerEmail() string {
	if m == nil || m.EditorEmail == nil {
		return ""
	}
	return *m.EditorEmail
}
