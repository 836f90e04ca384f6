package content

import (
	"context"
	"time"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/document"
	"gorm.io/gorm"
)

// SelectionPolicy decides which stored row is a model's authoritative
// document when several exist.
type SelectionPolicy int

const (
	// HighestID picks the row with the highest id, i.e. the last inserted
	// one. Timestamps play no part.
	HighestID SelectionPolicy = iota
)

// latest narrows q (already filtered to one model) to the selected row.
func (p SelectionPolicy) latest(q *gorm.DB) *gorm.DB {
	return q.Order("id DESC").Limit(1)
}

// joinSQL is a LEFT JOIN clause attaching the selected row to content_models.
func (p SelectionPolicy) joinSQL() string {
	return "LEFT JOIN contents ON contents.id = (SELECT MAX(c2.id) FROM contents c2 WHERE c2.model_id = content_models.id)"
}

// WriteInput is a parsed content write request.
type WriteInput struct {
	// Fields holds body values keyed by field key, status excluded.
	Fields document.Document
	// Uploads holds stored file references keyed by the form field they came in.
	Uploads map[string][]string
	// Status is "" when the request did not set one.
	Status string
}

// DocumentView is a stored document with its payload decoded.
type DocumentView struct {
	ID          uint              `json:"id"`
	ModelID     uint              `json:"model_id"`
	Slug        string            `json:"slug"`
	Data        document.Document `json:"data"`
	Status      string            `json:"status"`
	EditorEmail string            `json:"editor_email"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// View is the public payload of a content slug.
type View struct {
	Model    *models.ContentModel  `json:"model"`
	Fields   []models.ContentField `json:"fields"`
	Content  *DocumentView         `json:"content"`
	Rendered map[string]string     `json:"rendered,omitempty"`
}

// Summary is one row of the content overview: a model joined with its
// selected document, if any.
type Summary struct {
	ModelID     uint       `json:"model_id"`
	ModelName   string     `json:"model_name"`
	ModelSlug   string     `json:"model_slug"`
	ModelType   string     `json:"model_type"`
	APIEndpoint string     `json:"api_endpoint"`
	OwnerEmail  *string    `json:"owner_email"`
	ContentID   *uint      `json:"content_id"`
	Status      *string    `json:"status"`
	EditorEmail *string    `json:"editor_email"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (s Summary) Resource() access.Resource {
	r := access.Resource{ModelID: s.ModelID}
	if s.OwnerEmail != nil {
		r.OwnerEmail = *s.OwnerEmail
	}
	if s.EditorEmail != nil {
		r.LatestEditorEmail = *s.EditorEmail
	}
	return r
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, recipient, title, message, kind string, payload any) error
}
