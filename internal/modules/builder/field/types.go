package field

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kontenhub/cms/internal/pkg/apperr"
)

type CreateFieldDTO struct {
	ModelID    uint   `json:"model_id"   binding:"required"`
	FieldName  string `json:"field_name" binding:"required"`
	FieldType  string `json:"field_type" binding:"required"`
	IsRequired bool   `json:"is_required"`
	Order      int    `json:"order"`
}

type UpdateFieldDTO struct {
	FieldName  *string `json:"field_name"`
	FieldKey   *string `json:"field_key"`
	FieldType  *string `json:"field_type"`
	IsRequired *bool   `json:"is_required"`
	Order      *int    `json:"order"`
}

var (
	nonKeyChars = regexp.MustCompile(`[^a-z0-9_]`)
	validKey    = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// DeriveKey turns a field label into its machine key: lowercase, spaces
// become underscores, anything outside [a-z0-9_] is dropped.
func DeriveKey(label string) string {
	key := strings.ReplaceAll(strings.ToLower(label), " ", "_")
	return nonKeyChars.ReplaceAllString(key, "")
}

// ValidKey reports whether key is already a machine key. Explicit keys are
// stored as given, so they must not need deriving.
func ValidKey(key string) bool { return validKey.MatchString(key) }

// ParseID validates a field id taken from a path segment. Client placeholders
// such as "undefined" and "null" are rejected like any non-numeric id.
func ParseID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "undefined", "null":
		return 0, apperr.Validation("a valid field id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid field id %q", raw)
	}
	return uint(id), nil
}
