// Package collaborator manages workspace invitations and the per-model grants
// that let invited editors reach another owner's content.
package collaborator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/modules/builder/model"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	policy   *access.Policy
	registry *model.Service
	notifier Notifier
	log      *zap.Logger
}

func NewService(db *gorm.DB, policy *access.Policy, registry *model.Service, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, policy: policy, registry: registry, notifier: notifier, log: log}
}

// List returns every record for admins and the records p owns otherwise.
func (s *Service) List(ctx context.Context, p access.Principal) ([]models.CollaboratorModel, error) {
	rows := []models.CollaboratorModel{}
	q := s.db.WithContext(ctx).Preload("Models").Order("id DESC")
	if !p.IsAdmin() {
		q = q.Where("owner_email = ?", p.Email)
	}
	return rows, q.Find(&rows).Error
}

// Invitations returns the records addressed to p.
func (s *Service) Invitations(ctx context.Context, p access.Principal) ([]models.CollaboratorModel, error) {
	rows := []models.CollaboratorModel{}
	err := s.db.WithContext(ctx).Preload("Models").
		Where("email = ? AND position = ?", p.Email, models.PositionCollaborator).
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// Invite creates a pending collaborator scoped to modelIDs and tells the
// invitee about it.
func (s *Service) Invite(ctx context.Context, p access.Principal, dto *InviteDTO) (*models.CollaboratorModel, error) {
	if err := s.requireOwner(ctx, p); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if strings.EqualFold(email, p.Email) {
		return nil, apperr.Validation("you cannot invite yourself")
	}
	if err := s.checkModels(ctx, p, dto.ModelIDs); err != nil {
		return nil, err
	}

	var existing int64
	err := s.db.WithContext(ctx).Model(&models.CollaboratorModel{}).
		Where("owner_email = ? AND email = ?", p.Email, email).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperr.Validation("%s is already a collaborator", email)
	}

	c := models.CollaboratorModel{
		OwnerEmail: p.Email,
		Email:      email,
		Position:   models.PositionCollaborator,
		Status:     models.CollaboratorPending,
	}
	var invitee models.UserModel
	if err := s.db.WithContext(ctx).Select("id").Where("email = ?", email).Take(&invitee).Error; err == nil {
		c.UserID = &invitee.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		return linkModels(tx, c.ID, dto.ModelIDs)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, email, "Collaboration invite",
		fmt.Sprintf("%s invited you to collaborate on %d model(s)", p.Email, len(dto.ModelIDs)),
		map[string]any{"collaborator_id": c.ID, "owner": p.Email})
	return s.get(ctx, c.ID)
}

// Accept activates an invitation addressed to p.
func (s *Service) Accept(ctx context.Context, p access.Principal, id uint) (*models.CollaboratorModel, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(c.Email, p.Email) {
		return nil, apperr.Forbidden("this invitation is addressed to someone else")
	}
	err = s.db.WithContext(ctx).Model(c).Updates(map[string]interface{}{
		"status":  models.CollaboratorActive,
		"user_id": p.ID,
	}).Error
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c.OwnerEmail, "Invitation accepted",
		fmt.Sprintf("%s accepted your invitation", p.Email),
		map[string]any{"collaborator_id": c.ID})
	return s.get(ctx, id)
}

// Update changes the status and/or the model scope of a record.
func (s *Service) Update(ctx context.Context, p access.Principal, id uint, dto *UpdateDTO) (*models.CollaboratorModel, error) {
	c, err := s.managed(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if dto.Status != nil && !models.ValidCollaboratorStatus(*dto.Status) {
		return nil, apperr.Validation("unknown status %q", *dto.Status)
	}
	if dto.ModelIDs != nil {
		if err := s.checkModels(ctx, p, *dto.ModelIDs); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dto.Status != nil {
			if err := tx.Model(c).Update("status", *dto.Status).Error; err != nil {
				return err
			}
		}
		if dto.ModelIDs == nil {
			return nil
		}
		if err := tx.Where("collaborator_id = ?", c.ID).Delete(&models.ModelCollaborator{}).Error; err != nil {
			return err
		}
		return linkModels(tx, c.ID, *dto.ModelIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// Delete removes a record and its model links.
func (s *Service) Delete(ctx context.Context, p access.Principal, id uint) error {
	c, err := s.managed(ctx, p, id)
	if err != nil {
		return err
	}
	if c.Position == models.PositionOwner && !p.IsAdmin() {
		return apperr.Forbidden("workspace owner records can only be removed by an admin")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collaborator_id = ?", c.ID).Delete(&models.ModelCollaborator{}).Error; err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
}

func (s *Service) get(ctx context.Context, id uint) (*models.CollaboratorModel, error) {
	var c models.CollaboratorModel
	err := s.db.WithContext(ctx).Preload("Models").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("collaborator")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// managed loads a record p may change: admins any, owners their own.
func (s *Service) managed(ctx context.Context, p access.Principal, id uint) (*models.CollaboratorModel, error) {
	if !p.CanMutate() {
		return nil, apperr.Forbidden("your role cannot manage collaborators")
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !strings.EqualFold(c.OwnerEmail, p.Email) {
		return nil, apperr.Forbidden("only the inviting owner can change this collaborator")
	}
	return c, nil
}

func (s *Service) requireOwner(ctx context.Context, p access.Principal) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	ok, err := s.policy.CanManageContent(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("only admins and workspace owners can invite collaborators")
	}
	return nil
}

// checkModels requires every id to name a model p can access.
func (s *Service) checkModels(ctx context.Context, p access.Principal, ids []uint) error {
	for _, id := range ids {
		m, err := s.registry.GetByID(ctx, id)
		if err != nil {
			return err
		}
		ok, err := s.registry.CanAccess(ctx, p, m)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Forbidden(fmt.Sprintf("you cannot share model %d", id))
		}
	}
	return nil
}

func linkModels(tx *gorm.DB, collaboratorID uint, ids []uint) error {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := tx.Create(&models.ModelCollaborator{CollaboratorID: collaboratorID, ModelID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, recipient, title, message string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, title, message, "collaborator", payload); err != nil {
		s.log.Warn("collaborator notification failed", zap.String("recipient", recipient), zap.Error(err))
	}
}
