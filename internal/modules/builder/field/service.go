package field

import (
	"context"
	"errors"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/modules/builder/model"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/cache"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	registry *model.Service
	cache    *cache.Content
}

func NewService(db *gorm.DB, registry *model.Service, cache *cache.Content) *Service {
	return &Service{db: db, registry: registry, cache: cache}
}

// ListForModel returns the fields of a model ordered by display order.
func (s *Service) ListForModel(ctx context.Context, modelID uint) ([]models.ContentField, error) {
	fields := []models.ContentField{}
	err := s.db.WithContext(ctx).
		Where("model_id = ?", modelID).
		Order("order_num ASC, id ASC").
		Find(&fields).Error
	return fields, err
}

// Add creates a field on an existing model. The key is derived from the label.
func (s *Service) Add(ctx context.Context, p access.Principal, dto *CreateFieldDTO) (*models.ContentField, error) {
	if !models.ValidFieldType(dto.FieldType) {
		return nil, apperr.Validation("unknown field type %q", dto.FieldType)
	}
	key := DeriveKey(dto.FieldName)
	if key == "" {
		return nil, apperr.Validation("field_name must contain letters or digits")
	}

	m, err := s.registry.GetByID(ctx, dto.ModelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, p, m); err != nil {
		return nil, err
	}

	f := models.ContentField{
		ModelID:    m.ID,
		FieldName:  dto.FieldName,
		FieldKey:   key,
		FieldType:  dto.FieldType,
		IsRequired: dto.IsRequired,
		Order:      dto.Order,
	}
	if p.Email != "" {
		email := p.Email
		f.EditorEmail = &email
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, m.Slug)
	return &f, nil
}

// Update changes the given attributes of a field.
func (s *Service) Update(ctx context.Context, p access.Principal, id uint, dto *UpdateFieldDTO) (*models.ContentField, error) {
	f, m, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.FieldName != nil {
		updates["field_name"] = *dto.FieldName
	}
	if dto.FieldKey != nil {
		if !ValidKey(*dto.FieldKey) {
			return nil, apperr.Validation("field_key %q may only contain a-z, 0-9 and _", *dto.FieldKey)
		}
		updates["field_key"] = *dto.FieldKey
	}
	if dto.FieldType != nil {
		if !models.ValidFieldType(*dto.FieldType) {
			return nil, apperr.Validation("unknown field type %q", *dto.FieldType)
		}
		updates["field_type"] = *dto.FieldType
	}
	if dto.IsRequired != nil {
		updates["is_required"] = *dto.IsRequired
	}
	if dto.Order != nil {
		updates["order_num"] = *dto.Order
	}
	if p.Email != "" {
		updates["editor_email"] = p.Email
	}

	if err := s.db.WithContext(ctx).Model(f).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, m.Slug)

	var out models.ContentField
	return &out, s.db.WithContext(ctx).First(&out, f.ID).Error
}

// Delete removes a field by its raw path id. Invalid ids fail before any
// query is issued. Values stored under the key in documents are kept.
func (s *Service) Delete(ctx context.Context, p access.Principal, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	f, m, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.ContentField{}, f.ID).Error; err != nil {
		return err
	}
	s.cache.Invalidate(ctx, m.Slug)
	return nil
}

func (s *Service) load(ctx context.Context, p access.Principal, id uint) (*models.ContentField, *models.ContentModel, error) {
	var f models.ContentField
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("field")
		}
		return nil, nil, err
	}
	m, err := s.registry.GetByID(ctx, f.ModelID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		// orphaned field of a deleted model: only admins may touch it
		if !p.IsAdmin() {
			return nil, nil, apperr.Forbidden("field belongs to a deleted model")
		}
		return &f, &models.ContentModel{ID: f.ModelID}, nil
	case err != nil:
		return nil, nil, err
	}
	if err := s.requireAccess(ctx, p, m); err != nil {
		return nil, nil, err
	}
	return &f, m, nil
}

func (s *Service) requireAccess(ctx context.Context, p access.Principal, m *models.ContentModel) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	ok, err := s.registry.CanAccess(ctx, p, m)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("you do not have access to this content model")
	}
	return nil
}
