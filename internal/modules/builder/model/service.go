package model

import (
	"context"
	"errors"
	"strconv"

	"github.com/kontenhub/cms/internal/database"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/cache"
	"gorm.io/gorm"
)

// latestEditorSQL selects the editor of the highest-id document of a model.
const latestEditorSQL = "(SELECT c.editor_email FROM contents c WHERE c.model_id = content_models.id ORDER BY c.id DESC LIMIT 1)"

type Service struct {
	db     *gorm.DB
	policy *access.Policy
	cache  *cache.Content
}

func NewService(db *gorm.DB, policy *access.Policy, cache *cache.Content) *Service {
	return &Service{db: db, policy: policy, cache: cache}
}

// GetBySlug returns the model with the given slug or a NotFound error.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.ContentModel, error) {
	var m models.ContentModel
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("content model")
		}
		return nil, err
	}
	return &m, nil
}

// GetByID returns the model with the given id or a NotFound error.
func (s *Service) GetByID(ctx context.Context, id uint) (*models.ContentModel, error) {
	var m models.ContentModel
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("content model")
		}
		return nil, err
	}
	return &m, nil
}

// List returns the models visible to p, newest first, optionally restricted
// to one model type.
func (s *Service) List(ctx context.Context, p access.Principal, modelType string) ([]Summary, error) {
	q := s.db.WithContext(ctx).
		Table("content_models").
		Select("content_models.*, " + latestEditorSQL + " AS latest_editor_email").
		Order("content_models.created_at DESC, content_models.id DESC")
	if modelType != "" {
		q = q.Where("content_models.type = ?", modelType)
	}

	var rows []Summary
	if err := q.Scan(&rows).Error; err != nil {
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

// Resource describes the summary to the access filter.
func (m Summary) Resource() access.Resource {
	r := access.Resource{ModelID: m.ID, OwnerEmail: m.OwnerEmail()}
	if m.LatestEditorEmail != nil {
		r.LatestEditorEmail = *m.LatestEditorEmail
	}
	return r
}

// Create persists a new model for p.
func (s *Service) Create(ctx context.Context, p access.Principal, dto *CreateModelDTO) (*models.ContentModel, error) {
	if err := s.requireManage(ctx, p); err != nil {
		return nil, err
	}

	slug := DeriveSlug(dto.Name)
	if slug == "" {
		return nil, apperr.Validation("name is required")
	}
	modelType := dto.Type
	if modelType == "" {
		modelType = models.ModelTypeSinglePage
	}
	if !models.ValidModelType(modelType) {
		return nil, apperr.Validation("unknown model type %q", modelType)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ContentModel{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.DuplicateSlug(slug)
	}

	owner := p.Email
	if p.IsAdmin() && dto.EditorEmail != nil {
		owner = *dto.EditorEmail
	}
	m := models.ContentModel{
		Name:        dto.Name,
		Slug:        slug,
		Type:        modelType,
		APIEndpoint: APIEndpoint(slug),
		MultiLang:   dto.MultiLang,
		SEO:         dto.SEO,
		Workflow:    dto.Workflow,
	}
	if owner != "" {
		m.EditorEmail = &owner
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, apperr.DuplicateSlug(slug)
		}
		return nil, err
	}
	return &m, nil
}

// Update merges dto onto the stored model. A new name re-derives the slug and
// api_endpoint, which moves the public content URL.
func (s *Service) Update(ctx context.Context, p access.Principal, id uint, dto *UpdateModelDTO) (*models.ContentModel, error) {
	if err := s.requireManage(ctx, p); err != nil {
		return nil, err
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, p, m); err != nil {
		return nil, err
	}

	oldSlug := m.Slug
	updates := map[string]interface{}{}
	if dto.Name != nil {
		slug := DeriveSlug(*dto.Name)
		if slug == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		if slug != m.Slug {
			var count int64
			if err := s.db.WithContext(ctx).Model(&models.ContentModel{}).
				Where("slug = ? AND id <> ?", slug, m.ID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, apperr.DuplicateSlug(slug)
			}
		}
		updates["name"] = *dto.Name
		updates["slug"] = slug
		updates["api_endpoint"] = APIEndpoint(slug)
	}
	if dto.Type != nil {
		if !models.ValidModelType(*dto.Type) {
			return nil, apperr.Validation("unknown model type %q", *dto.Type)
		}
		updates["type"] = *dto.Type
	}
	if dto.MultiLang != nil {
		updates["multi_lang"] = *dto.MultiLang
	}
	if dto.SEO != nil {
		updates["seo"] = *dto.SEO
	}
	if dto.Workflow != nil {
		updates["workflow"] = *dto.Workflow
	}
	if dto.EditorEmail != nil && p.IsAdmin() {
		updates["editor_email"] = *dto.EditorEmail
	}
	if len(updates) == 0 {
		return m, nil
	}

	if err := s.db.WithContext(ctx).Model(m).Updates(updates).Error; err != nil {
		if database.IsDuplicateKey(err) && dto.Name != nil {
			return nil, apperr.DuplicateSlug(DeriveSlug(*dto.Name))
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, oldSlug, m.Slug)
	return s.GetByID(ctx, id)
}

// Delete removes the model row only. Its fields and documents stay behind.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uint) error {
	m, err := s.deletable(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.ContentModel{}, m.ID).Error; err != nil {
		return err
	}
	s.cache.Invalidate(ctx, m.Slug)
	return nil
}

// DeleteCascade removes the model together with its fields, documents and
// collaborator links in one transaction.
func (s *Service) DeleteCascade(ctx context.Context, p access.Principal, id uint) error {
	m, err := s.deletable(ctx, p, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("model_id = ?", m.ID).Delete(&models.Content{}).Error; err != nil {
			return err
		}
		if err := tx.Where("model_id = ?", m.ID).Delete(&models.ContentField{}).Error; err != nil {
			return err
		}
		if err := tx.Where("model_id = ?", m.ID).Delete(&models.ModelCollaborator{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ContentModel{}, m.ID).Error
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, m.Slug)
	return nil
}

func (s *Service) deletable(ctx context.Context, p access.Principal, id uint) (*models.ContentModel, error) {
	if err := s.requireManage(ctx, p); err != nil {
		return nil, err
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, p, m); err != nil {
		return nil, err
	}
	return m, nil
}

// LatestEditorEmail returns the editor of the model's highest-id document,
// or "" when it has none.
func (s *Service) LatestEditorEmail(ctx context.Context, modelID uint) (string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&models.Content{}).
		Where("model_id = ?", modelID).
		Order("id DESC").Limit(1).
		Pluck("editor_email", &emails).Error
	if err != nil || len(emails) == 0 {
		return "", err
	}
	return emails[0], nil
}

// CanAccess applies the access filter to a stored model.
func (s *Service) CanAccess(ctx context.Context, p access.Principal, m *models.ContentModel) (bool, error) {
	latest, err := s.LatestEditorEmail(ctx, m.ID)
	if err != nil {
		return false, err
	}
	return s.policy.CanAccess(ctx, p, access.Resource{
		ModelID:           m.ID,
		OwnerEmail:        m.OwnerEmail(),
		LatestEditorEmail: latest,
	})
}

func (s *Service) requireManage(ctx context.Context, p access.Principal) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	ok, err := s.policy.CanManageContent(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("only admins and workspace owners can manage content models")
	}
	return nil
}

func (s *Service) requireAccess(ctx context.Context, p access.Principal, m *models.ContentModel) error {
	ok, err := s.CanAccess(ctx, p, m)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("you do not have access to model " + strconv.FormatUint(uint64(m.ID), 10))
	}
	return nil
}
