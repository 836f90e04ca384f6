package user

import (
	"context"
	"errors"
	"strings"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) GetByID(ctx context.Context, id uint) (*models.UserModel, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) List(ctx context.Context) ([]models.UserModel, error) {
	users := []models.UserModel{}
	return users, s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
}

// UpdateRole changes a stored role. Tokens already issued keep the old role
// until they expire or the user signs in again.
func (s *Service) UpdateRole(ctx context.Context, id uint, role string) (*models.UserModel, error) {
	if !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin && role != models.RoleAdmin {
		var admins int64
		if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, apperr.Validation("cannot demote the last admin")
		}
	}
	if err := s.db.WithContext(ctx).Model(u).Update("role", role).Error; err != nil {
		return nil, err
	}
	u.Role = role
	return u, nil
}

// Profile returns the user and their profile, creating an empty profile on
// first access.
func (s *Service) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := models.ProfileModel{UserID: userID}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).FirstOrCreate(&p).Error; err != nil {
		return nil, err
	}
	return &ProfileView{User: u, Profile: &p}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint, dto *UpdateProfileDTO) (*ProfileView, error) {
	view, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		if err := s.db.WithContext(ctx).Model(view.User).Update("name", name).Error; err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if dto.Avatar != nil {
		updates["avatar"] = *dto.Avatar
	}
	if dto.Bio != nil {
		updates["bio"] = *dto.Bio
	}
	if dto.Phone != nil {
		updates["phone"] = *dto.Phone
	}
	if dto.Company != nil {
		updates["company"] = *dto.Company
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(view.Profile).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}
