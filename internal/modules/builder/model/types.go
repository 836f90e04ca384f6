package model

import (
	"strings"

	"github.com/kontenhub/cms/internal/models"
)

type CreateModelDTO struct {
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type"`
	MultiLang   bool    `json:"multiLang"`
	SEO         bool    `json:"seo"`
	Workflow    bool    `json:"workflow"`
	EditorEmail *string `json:"editor_email"`
}

type UpdateModelDTO struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	MultiLang   *bool   `json:"multiLang"`
	SEO         *bool   `json:"seo"`
	Workflow    *bool   `json:"workflow"`
	EditorEmail *string `json:"editor_email"`
}

// Summary is a model as listed, with the editor of its most recent document.
type Summary struct {
	models.ContentModel
	LatestEditorEmail *string `json:"latest_editor_email" gorm:"column:latest_editor_email"`
}

// DeriveSlug lowercases name and joins its whitespace-separated words with
// single hyphens; leading and trailing whitespace is dropped.
func DeriveSlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// APIEndpoint is the public content URL of a model slug.
func APIEndpoint(slug string) string { return "/api/content/" + slug }
