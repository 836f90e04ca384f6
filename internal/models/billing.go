package models

import "time"

// PlanModel is a purchasable subscription plan.
type PlanModel struct {
	Base
	Name         string  `json:"name"          gorm:"size:191;uniqueIndex;not null"`
	Description  string  `json:"description"   gorm:"type:text"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"      gorm:"size:8;default:IDR"`
	DurationDays int     `json:"duration_days" gorm:"default:30"`
	MaxModels    int     `json:"max_models"    gorm:"default:0"`
	IsActive     bool    `json:"is_active"`
}

func (PlanModel) TableName() string { return "plans" }

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// SubscriptionModel ties a user to a plan for a period.
type SubscriptionModel struct {
	Base
	UserID    uint       `json:"user_id"    gorm:"index;not null"`
	PlanID    uint       `json:"plan_id"    gorm:"index;not null"`
	Status    string     `json:"status"     gorm:"size:16;default:active"`
	StartedAt time.Time  `json:"started_at"`
	EndsAt    *time.Time `json:"ends_at"`

	Plan *PlanModel `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// PaymentMethodModel is a way of paying offered to users.
type PaymentMethodModel struct {
	Base
	Name     string `json:"name"     gorm:"size:191;not null"`
	Provider string `json:"provider" gorm:"size:64"`
	Details  string `json:"details"  gorm:"type:text"`
	IsActive bool   `json:"is_active"`
}

func (PaymentMethodModel) TableName() string { return "payment_methods" }

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// PaymentModel records one payment attempt for a subscription.
type PaymentModel struct {
	Base
	UserID          uint    `json:"user_id"           gorm:"index;not null"`
	SubscriptionID  uint    `json:"subscription_id"   gorm:"index;not null"`
	PaymentMethodID uint    `json:"payment_method_id" gorm:"index"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"            gorm:"size:16;default:pending"`
	Reference       string  `json:"reference"         gorm:"size:191"`
}

func (PaymentModel) TableName() string { return "payments" }
