package notification

import "encoding/json"

type CreateDTO struct {
	RecipientEmail string          `json:"recipient_email" binding:"required,email"`
	Title          string          `json:"title"           binding:"required"`
	Message        string          `json:"message"`
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
}

type UpdateDTO struct {
	Title   *string          `json:"title"`
	Message *string          `json:"message"`
	Type    *string          `json:"type"`
	Payload *json.RawMessage `json:"payload"`
	IsRead  *bool            `json:"is_read"`
}

// ListQuery filters notifications; zero values match everything.
type ListQuery struct {
	Email  string
	Unread bool
}
