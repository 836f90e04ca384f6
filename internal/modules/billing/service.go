// Package billing keeps plan, subscription and payment records. No payment
// provider is contacted; payments stay pending until settled elsewhere.
package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kontenhub/cms/internal/database"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"gorm.io/gorm"
)

const defaultDurationDays = 30

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

func (s *Service) ListPlans(ctx context.Context) ([]models.PlanModel, error) {
	plans := []models.PlanModel{}
	return plans, s.db.WithContext(ctx).Where("is_active = ?", true).Order("price ASC, id ASC").Find(&plans).Error
}

func (s *Service) CreatePlan(ctx context.Context, dto *CreatePlanDTO) (*models.PlanModel, error) {
	plan := models.PlanModel{
		Name:         strings.TrimSpace(dto.Name),
		Description:  dto.Description,
		Price:        dto.Price,
		Currency:     strings.ToUpper(strings.TrimSpace(dto.Currency)),
		DurationDays: dto.DurationDays,
		MaxModels:    dto.MaxModels,
		IsActive:     dto.IsActive == nil || *dto.IsActive,
	}
	if plan.Currency == "" {
		plan.Currency = "IDR"
	}
	if plan.DurationDays == 0 {
		plan.DurationDays = defaultDurationDays
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, apperr.Validation("plan %q already exists", plan.Name)
		}
		return nil, err
	}
	return &plan, nil
}

func (s *Service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethodModel, error) {
	methods := []models.PaymentMethodModel{}
	return methods, s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&methods).Error
}

func (s *Service) CreatePaymentMethod(ctx context.Context, dto *CreatePaymentMethodDTO) (*models.PaymentMethodModel, error) {
	m := models.PaymentMethodModel{
		Name:     strings.TrimSpace(dto.Name),
		Provider: dto.Provider,
		Details:  dto.Details,
		IsActive: dto.IsActive == nil || *dto.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListSubscriptions returns p's subscriptions, or all of them for admins.
func (s *Service) ListSubscriptions(ctx context.Context, p access.Principal) ([]models.SubscriptionModel, error) {
	subs := []models.SubscriptionModel{}
	tx := s.db.WithContext(ctx).Preload("Plan").Order("id DESC")
	if !p.IsAdmin() {
		tx = tx.Where("user_id = ?", p.ID)
	}
	return subs, tx.Find(&subs).Error
}

// Subscribe starts an active subscription to an active plan, ending after
// the plan's duration.
func (s *Service) Subscribe(ctx context.Context, p access.Principal, planID uint) (*models.SubscriptionModel, error) {
	var plan models.PlanModel
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", planID, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("plan")
	}
	if err != nil {
		return nil, err
	}

	start := s.now()
	ends := start.AddDate(0, 0, plan.DurationDays)
	sub := models.SubscriptionModel{
		UserID:    p.ID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionActive,
		StartedAt: start,
		EndsAt:    &ends,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}
	sub.Plan = &plan
	return &sub, nil
}

func (s *Service) ListPayments(ctx context.Context, p access.Principal) ([]models.PaymentModel, error) {
	payments := []models.PaymentModel{}
	tx := s.db.WithContext(ctx).Order("id DESC")
	if !p.IsAdmin() {
		tx = tx.Where("user_id = ?", p.ID)
	}
	return payments, tx.Find(&payments).Error
}

// CreatePayment records a pending payment against one of p's subscriptions.
func (s *Service) CreatePayment(ctx context.Context, p access.Principal, dto *CreatePaymentDTO) (*models.PaymentModel, error) {
	var sub models.SubscriptionModel
	err := s.db.WithContext(ctx).First(&sub, dto.SubscriptionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("subscription")
	}
	if err != nil {
		return nil, err
	}
	if sub.UserID != p.ID && !p.IsAdmin() {
		return nil, apperr.Forbidden("subscription belongs to another user")
	}

	var method models.PaymentMethodModel
	err = s.db.WithContext(ctx).Where("id = ? AND is_active = ?", dto.PaymentMethodID, true).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("payment method")
	}
	if err != nil {
		return nil, err
	}

	payment := models.PaymentModel{
		UserID:          sub.UserID,
		SubscriptionID:  sub.ID,
		PaymentMethodID: method.ID,
		Amount:          dto.Amount,
		Status:          models.PaymentPending,
		Reference:       dto.Reference,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
