// Package notification stores in-app notifications and delivers the ones
// raised by other modules.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultType = "info"

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(ctx context.Context, q ListQuery) ([]models.NotificationModel, error) {
	rows := []models.NotificationModel{}
	tx := s.db.WithContext(ctx).Order("id DESC")
	if email := strings.ToLower(strings.TrimSpace(q.Email)); email != "" {
		tx = tx.Where("recipient_email = ?", email)
	}
	if q.Unread {
		tx = tx.Where("is_read = ?", false)
	}
	return rows, tx.Find(&rows).Error
}

func (s *Service) Get(ctx context.Context, id uint) (*models.NotificationModel, error) {
	var n models.NotificationModel
	err := s.db.WithContext(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("notification")
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Service) Create(ctx context.Context, dto *CreateDTO) (*models.NotificationModel, error) {
	payload, err := normalizePayload(dto.Payload)
	if err != nil {
		return nil, err
	}
	kind := strings.TrimSpace(dto.Type)
	if kind == "" {
		kind = defaultType
	}
	n := models.NotificationModel{
		RecipientEmail: strings.ToLower(strings.TrimSpace(dto.RecipientEmail)),
		Title:          dto.Title,
		Message:        dto.Message,
		Type:           kind,
		Payload:        payload,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Notify records a notification raised by another module.
func (s *Service) Notify(ctx context.Context, recipient, title, message, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.Create(ctx, &CreateDTO{
		RecipientEmail: recipient,
		Title:          title,
		Message:        message,
		Type:           kind,
		Payload:        raw,
	})
	return err
}

func (s *Service) Update(ctx context.Context, id uint, dto *UpdateDTO) (*models.NotificationModel, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		if strings.TrimSpace(*dto.Title) == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		updates["title"] = *dto.Title
	}
	if dto.Message != nil {
		updates["message"] = *dto.Message
	}
	if dto.Type != nil {
		updates["type"] = *dto.Type
	}
	if dto.Payload != nil {
		payload, err := normalizePayload(*dto.Payload)
		if err != nil {
			return nil, err
		}
		updates["payload"] = payload
	}
	if dto.IsRead != nil {
		updates["is_read"] = *dto.IsRead
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(n).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) MarkRead(ctx context.Context, id uint) (*models.NotificationModel, error) {
	read := true
	return s.Update(ctx, id, &UpdateDTO{IsRead: &read})
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.NotificationModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

func normalizePayload(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, apperr.Validation("payload must be valid JSON")
	}
	return datatypes.JSON(raw), nil
}
