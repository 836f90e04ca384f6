package models

import (
	"time"
)

// Base is the base model for all entities. IDs are auto-increment integers;
// "most recent" lookups rely on their insertion order.
type Base struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles carried by users and bearer tokens.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleSEO    = "seo"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleViewer, RoleSEO:
		return true
	}
	return false
}
