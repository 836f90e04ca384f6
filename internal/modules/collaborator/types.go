package collaborator

import "context"

type InviteDTO struct {
	Email    string `json:"email"     binding:"required,email"`
	ModelIDs []uint `json:"model_ids"`
}

type UpdateDTO struct {
	Status   *string `json:"status"`
	ModelIDs *[]uint `json:"model_ids"`
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, recipient, title, message, kind string, payload any) error
}
