package billing

type CreatePlanDTO struct {
	Name         string  `json:"name"          binding:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"         binding:"gte=0"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"duration_days" binding:"gte=0"`
	MaxModels    int     `json:"max_models"    binding:"gte=0"`
	IsActive     *bool   `json:"is_active"`
}

type CreatePaymentMethodDTO struct {
	Name     string `json:"name"     binding:"required"`
	Provider string `json:"provider"`
	Details  string `json:"details"`
	IsActive *bool  `json:"is_active"`
}

type SubscribeDTO struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

type CreatePaymentDTO struct {
	SubscriptionID  uint    `json:"subscription_id"   binding:"required"`
	PaymentMethodID uint    `json:"payment_method_id" binding:"required"`
	Amount          float64 `json:"amount"            binding:"gt=0"`
	Reference       string  `json:"reference"`
}
