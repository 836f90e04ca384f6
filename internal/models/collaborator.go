package models

// Collaborator positions.
const (
	PositionOwner        = "Owner"
	PositionCollaborator = "Collaborator"
)

// Collaborator statuses. Only Active grants access.
const (
	CollaboratorActive   = "Active"
	CollaboratorPending  = "Pending"
	CollaboratorInactive = "Nonaktif"
)

// ValidCollaboratorStatus reports whether s is a collaborator status.
func ValidCollaboratorStatus(s string) bool {
	switch s {
	case CollaboratorActive, CollaboratorPending, CollaboratorInactive:
		return true
	}
	return false
}

// CollaboratorModel links a user (by email) to a workspace owner.
type CollaboratorModel struct {
	Base
	OwnerEmail string `json:"owner_email" gorm:"size:191;index"`
	Email      string `json:"email"       gorm:"size:191;index;not null"`
	UserID     *uint  `json:"user_id"     gorm:"index"`
	Position   string `json:"position"    gorm:"size:32;not null;default:Collaborator"`
	Status     string `json:"status"      gorm:"size:32;not null;default:Pending"`

	Models []ModelCollaborator `json:"models,omitempty" gorm:"foreignKey:CollaboratorID"`
}

func (CollaboratorModel) TableName() string { return "collaborators" }

// ModelCollaborator scopes a collaborator to one content model.
type ModelCollaborator struct {
	ID             uint `json:"id"              gorm:"primaryKey;autoIncrement"`
	CollaboratorID uint `json:"collaborator_id" gorm:"uniqueIndex:idx_model_collaborator;not null"`
	ModelID        uint `json:"model_id"        gorm:"uniqueIndex:idx_model_collaborator;index;not null"`
}

func (ModelCollaborator) TableName() string { return "model_collaborators" }
