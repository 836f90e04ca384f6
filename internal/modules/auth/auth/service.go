package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kontenhub/cms/internal/database"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)

type Service struct {
	db     *gorm.DB
	signer *jwt.Signer
}

func NewService(db *gorm.DB, signer *jwt.Signer) *Service {
	return &Service{db: db, signer: signer}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The first account becomes admin; every later
// one is an editor owning its own workspace.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, error) {
	email := NormalizeEmail(dto.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	u := models.UserModel{Name: name, Email: email, Password: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserModel{}).Count(&count).Error; err != nil {
			return err
		}
		u.Role = models.RoleEditor
		if count == 0 {
			u.Role = models.RoleAdmin
		}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if u.Role != models.RoleEditor {
			return nil
		}
		id := u.ID
		return tx.Create(&models.CollaboratorModel{
			OwnerEmail: email,
			Email:      email,
			UserID:     &id,
			Position:   models.PositionOwner,
			Status:     models.CollaboratorActive,
		}).Error
	})
	if database.IsDuplicateKey(err) {
		return nil, apperr.Validation("email %s is already registered", email)
	}
	if err != nil {
		return nil, err
	}
	s.claimInvites(ctx, &u)
	return &u, nil
}

// claimInvites attaches pending invitations sent before the account existed.
func (s *Service) claimInvites(ctx context.Context, u *models.UserModel) {
	s.db.WithContext(ctx).Model(&models.CollaboratorModel{}).
		Where("email = ? AND user_id IS NULL", u.Email).
		Update("user_id", u.ID)
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, dto *LoginDTO) (*LoginResponse, error) {
	var u models.UserModel
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(dto.Email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) != nil {
		return nil, errInvalidCredentials
	}
	token, err := s.signer.Sign(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: &u}, nil
}

// Me loads the account behind a token. The stored role may differ from the
// token's until the user signs in again.
func (s *Service) Me(ctx context.Context, id uint) (*models.UserModel, error) {
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
