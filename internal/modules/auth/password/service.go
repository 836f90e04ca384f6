// Package password implements the forgot/reset password flow.
package password

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/auth"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/mail"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenTTL is how long a reset link stays valid.
const TokenTTL = 10 * time.Minute

var errInvalidToken = apperr.Validation("reset link is invalid or has expired")

type ForgotDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetDTO struct {
	Password string `json:"password" binding:"required,min=6"`
}

type Service struct {
	db          *gorm.DB
	mailer      mail.Mailer
	frontendURL string
	log         *zap.Logger
	now         func() time.Time
}

func NewService(db *gorm.DB, mailer mail.Mailer, frontendURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:          db,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Forgot issues a reset link for email. Unknown addresses succeed silently.
func (s *Service) Forgot(ctx context.Context, email string) error {
	var u models.UserModel
	err := s.db.WithContext(ctx).Where("email = ?", auth.NormalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token := newToken()
	hash := hashToken(token)
	expires := s.now().Add(TokenTTL)
	err = s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"reset_token_hash":    hash,
		"reset_token_expires": expires,
	}).Error
	if err != nil {
		return err
	}

	link := s.frontendURL + "/reset-password/" + token
	msg := mail.Message{
		To:      []string{u.Email},
		Subject: "Reset your password",
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Use the link below to choose a new password. It expires in %d minutes.</p><p><a href="%s">%s</a></p>`,
			html.EscapeString(u.Name), int(TokenTTL/time.Minute), link, link),
	}
	if err := s.mailer.Send(msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// Reset sets a new password for the holder of a valid token and burns it.
func (s *Service) Reset(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errInvalidToken
	}
	if len(password) < 6 {
		return apperr.Validation("password must be at least 6 characters")
	}

	var u models.UserModel
	err := s.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires > ?", hashToken(token), s.now()).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errInvalidToken
	}
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"password":            string(hashed),
		"reset_token_hash":    nil,
		"reset_token_expires": nil,
	}).Error
}
