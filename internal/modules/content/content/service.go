package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/modules/builder/field"
	"github.com/kontenhub/cms/internal/modules/builder/model"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/cache"
	"github.com/kontenhub/cms/internal/pkg/document"
	"github.com/kontenhub/cms/internal/pkg/markdown"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	registry *model.Service
	fields   *field.Service
	policy   *access.Policy
	cache    *cache.Content
	notifier Notifier
	selector SelectionPolicy
	log      *zap.Logger
}

type Option func(*Service)

// WithNotifier sets who is told about publications.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithCache enables the public payload cache.
func WithCache(c *cache.Content) Option { return func(s *Service) { s.cache = c } }

func NewService(db *gorm.DB, registry *model.Service, fields *field.Service, policy *access.Policy, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:       db,
		registry: registry,
		fields:   fields,
		policy:   policy,
		selector: HighestID,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBySlug resolves the model, its ordered fields and its selected document
// (nil when none exists). A corrupt stored payload is logged and read as an
// empty document.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*View, error) {
	var cached View
	if s.cache.Get(ctx, slug, &cached) {
		return &cached, nil
	}
	gen, cacheable := s.cache.Generation(ctx, slug)

	m, err := s.registry.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListForModel(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	row, err := s.latest(ctx, s.db, m.ID)
	if err != nil {
		return nil, err
	}

	view := &View{Model: m, Fields: fields}
	if row != nil {
		view.Content = s.toView(m, row)
	}
	if cacheable {
		s.cache.Put(ctx, slug, gen, view)
	}
	return view, nil
}

// Render fills view.Rendered with HTML for every richtext field whose value
// is a string.
func Render(view *View) {
	if view == nil || view.Content == nil {
		return
	}
	out := map[string]string{}
	for _, f := range view.Fields {
		if f.FieldType != models.FieldTypeRichText {
			continue
		}
		if text, ok := view.Content.Data[f.FieldKey].(string); ok {
			out[f.FieldKey] = markdown.Render(text)
		}
	}
	if len(out) > 0 {
		view.Rendered = out
	}
}

// ListAll joins every model with its selected document and keeps the rows p
// may access, newest model first.
func (s *Service) ListAll(ctx context.Context, p access.Principal) ([]Summary, error) {
	var rows []Summary
	err := s.db.WithContext(ctx).
		Table("content_models").
		Select(`content_models.id AS model_id, content_models.name AS model_name,
			content_models.slug AS model_slug, content_models.type AS model_type,
			content_models.api_endpoint AS api_endpoint, content_models.editor_email AS owner_email,
			contents.id AS content_id, contents.status AS status,
			contents.editor_email AS editor_email, contents.updated_at AS updated_at`).
		Joins(s.selector.joinSQL()).
		Order("content_models.created_at DESC, content_models.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	filter, err := s.policy.For(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		if filter.CanAccess(p, row.Resource()) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Create always inserts a new document for the model behind slug.
func (s *Service) Create(ctx context.Context, p access.Principal, slug string, in WriteInput) (*DocumentView, error) {
	m, err := s.writable(ctx, p, slug)
	if err != nil {
		return nil, err
	}
	status, err := resolveStatus(in.Status, "")
	if err != nil {
		return nil, err
	}
	data := document.Merge(nil, in.Fields).AttachUploads(in.Uploads)
	row, err := s.insert(ctx, m, p, data, status)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, m, p, "", row.Status)
	return s.toView(m, row), nil
}

// Update merges the input onto the selected document, inserting a new one
// when the model has none yet. Concurrent updates are last-write-wins.
func (s *Service) Update(ctx context.Context, p access.Principal, slug string, in WriteInput) (*DocumentView, error) {
	m, err := s.writable(ctx, p, slug)
	if err != nil {
		return nil, err
	}
	prev, err := s.latest(ctx, s.db, m.ID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		status, err := resolveStatus(in.Status, "")
		if err != nil {
			return nil, err
		}
		data := document.Merge(nil, in.Fields).AttachUploads(in.Uploads)
		row, err := s.insert(ctx, m, p, data, status)
		if err != nil {
			return nil, err
		}
		s.afterWrite(ctx, m, p, "", row.Status)
		return s.toView(m, row), nil
	}

	status, err := resolveStatus(in.Status, prev.Status)
	if err != nil {
		return nil, err
	}
	data := document.Merge(s.decode(m, prev), in.Fields).AttachUploads(in.Uploads)
	raw, err := data.Encode()
	if err != nil {
		return nil, apperr.Validation("content cannot be encoded: %v", err)
	}

	updates := map[string]interface{}{
		"data":         datatypes.JSON(raw),
		"status":       status,
		"slug":         m.Slug,
		"editor_email": editorOfRecord(m, p),
	}
	// Updates writes the new values back into prev.
	prevStatus := prev.Status
	if err := s.db.WithContext(ctx).Model(prev).Updates(updates).Error; err != nil {
		return nil, err
	}
	row, err := s.byID(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, m, p, prevStatus, row.Status)
	return s.toView(m, row), nil
}

func (s *Service) insert(ctx context.Context, m *models.ContentModel, p access.Principal, data document.Document, status string) (*models.Content, error) {
	raw, err := data.Encode()
	if err != nil {
		return nil, apperr.Validation("content cannot be encoded: %v", err)
	}
	row := models.Content{
		ModelID:     m.ID,
		Slug:        m.Slug,
		Data:        datatypes.JSON(raw),
		Status:      status,
		EditorEmail: editorOfRecord(m, p),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// writable resolves the model and checks p may write its content.
func (s *Service) writable(ctx context.Context, p access.Principal, slug string) (*models.ContentModel, error) {
	if !p.Authenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	if !p.CanMutate() {
		return nil, apperr.Forbidden("your role cannot change content")
	}
	m, err := s.registry.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	ok, err := s.registry.CanAccess(ctx, p, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("you do not have access to this content")
	}
	return m, nil
}

func (s *Service) latest(ctx context.Context, db *gorm.DB, modelID uint) (*models.Content, error) {
	var row models.Content
	err := s.selector.latest(db.WithContext(ctx).Where("model_id = ?", modelID)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) byID(ctx context.Context, id uint) (*models.Content, error) {
	var row models.Content
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// decode parses a stored payload, logging and discarding corrupt data.
func (s *Service) decode(m *models.ContentModel, row *models.Content) document.Document {
	doc, err := document.Parse(row.Data)
	if err != nil {
		s.log.Warn("stored content payload is not a JSON object, treating it as empty",
			zap.String("model", m.Slug),
			zap.Uint("content_id", row.ID),
			zap.Error(err))
		return document.Document{}
	}
	return doc
}

func (s *Service) toView(m *models.ContentModel, row *models.Content) *DocumentView {
	return &DocumentView{
		ID:          row.ID,
		ModelID:     row.ModelID,
		Slug:        row.Slug,
		Data:        s.decode(m, row),
		Status:      row.Status,
		EditorEmail: row.EditorEmail,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (s *Service) afterWrite(ctx context.Context, m *models.ContentModel, p access.Principal, prevStatus, status string) {
	s.cache.Invalidate(ctx, m.Slug)

	owner := m.OwnerEmail()
	if s.notifier == nil || status != models.StatusPublished || prevStatus == models.StatusPublished {
		return
	}
	if owner == "" || owner == p.Email {
		return
	}
	err := s.notifier.Notify(ctx, owner,
		"Content published",
		fmt.Sprintf("%s published new content on %q", p.Email, m.Name),
		"content",
		map[string]any{"model_id": m.ID, "slug": m.Slug, "publisher": p.Email})
	if err != nil {
		s.log.Warn("publish notification failed", zap.String("model", m.Slug), zap.Error(err))
	}
}

// editorOfRecord is the model's configured editor, else the writer.
func editorOfRecord(m *models.ContentModel, p access.Principal) string {
	if owner := m.OwnerEmail(); owner != "" {
		return owner
	}
	return p.Email
}

// resolveStatus validates a requested status; "" keeps fallback, or draft.
func resolveStatus(requested, fallback string) (string, error) {
	switch {
	case requested != "":
		if !models.ValidStatus(requested) {
			return "", apperr.Validation("status must be %q or %q", models.StatusDraft, models.StatusPublished)
		}
		return requested, nil
	case fallback != "":
		return fallback, nil
	default:
		return models.StatusDraft, nil
	}
}
