// Package media keeps the library of uploaded files: the stored object plus a
// row describing it.
package media

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/pagination"
	"github.com/kontenhub/cms/internal/pkg/response"
	"github.com/kontenhub/cms/internal/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Upload is one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	db      *gorm.DB
	storage storage.Driver
	log     *zap.Logger
	now     func() time.Time
}

func NewService(db *gorm.DB, driver storage.Driver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, storage: driver, log: log, now: time.Now}
}

// List pages through the library, newest first. Only admins see other
// users' uploads.
func (s *Service) List(ctx context.Context, p access.Principal, q pagination.Query) ([]models.MediaAsset, response.Pagination, error) {
	items := []models.MediaAsset{}
	tx := s.db.WithContext(ctx).Model(&models.MediaAsset{}).Order("id DESC")
	if !p.IsAdmin() {
		tx = tx.Where("uploaded_by = ?", p.Email)
	}
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Store saves the object then records it. The object is removed again when
// the row cannot be written.
func (s *Service) Store(ctx context.Context, p access.Principal, up Upload) (*models.MediaAsset, error) {
	name := storage.BuildFileName(up.Filename, s.now())
	contentType := storage.ContentType(up.Filename, up.ContentType)
	ref, err := s.storage.Put(ctx, storage.Object{
		Name:        name,
		ContentType: contentType,
		Size:        up.Size,
		Body:        up.Body,
	})
	if err != nil {
		return nil, err
	}

	asset := models.MediaAsset{
		FileName:     name,
		OriginalName: up.Filename,
		URL:          ref,
		MimeType:     contentType,
		Size:         up.Size,
		Storage:      s.storage.Name(),
		UploadedBy:   p.Email,
	}
	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		if derr := s.storage.Delete(ctx, ref); derr != nil {
			s.log.Warn("remove unrecorded upload failed", zap.String("ref", ref), zap.Error(derr))
		}
		return nil, err
	}
	return &asset, nil
}

// Delete removes the stored object, then the row.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uint) error {
	var asset models.MediaAsset
	err := s.db.WithContext(ctx).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("media")
	}
	if err != nil {
		return err
	}
	if !p.IsAdmin() && asset.UploadedBy != p.Email {
		return apperr.Forbidden("you can only delete your own uploads")
	}
	if asset.Storage != s.storage.Name() {
		s.log.Warn("media stored by another driver, removing row only",
			zap.Uint("id", asset.ID), zap.String("storage", asset.Storage))
	} else if err := s.storage.Delete(ctx, asset.URL); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&asset).Error
}
