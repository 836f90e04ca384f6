package models

// Field types understood by the content builder. They are labels only; values
// stored under a field are not validated against them.
const (
	FieldTypeText     = "text"
	FieldTypeRichText = "richtext"
	FieldTypeMedia    = "media"
	FieldTypeNumber   = "number"
	FieldTypeDatetime = "datetime"
	FieldTypeLocation = "location"
	FieldTypeMultiple = "multiple"
	FieldTypeRelation = "relation"
)

// ValidFieldType reports whether t is a supported field type.
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeRichText, FieldTypeMedia, FieldTypeNumber,
		FieldTypeDatetime, FieldTypeLocation, FieldTypeMultiple, FieldTypeRelation:
		return true
	}
	return false
}

// ContentField is one ordered field definition of a content model.
type ContentField struct {
	Base
	ModelID     uint    `json:"model_id"     gorm:"index;not null"`
	FieldName   string  `json:"field_name"   gorm:"size:191;not null"`
	FieldKey    string  `json:"field_key"    gorm:"size:191;index;not null"`
	FieldType   string  `json:"field_type"   gorm:"size:32;not null"`
	IsRequired  bool    `json:"is_required"  gorm:"default:false"`
	Order       int     `json:"order"        gorm:"column:order_num;default:0"`
	EditorEmail *string `json:"editor_email" gorm:"size:191"`
}

func (ContentField) TableName() string { return "content_fields" }
