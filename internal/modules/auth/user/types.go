package user

import "github.com/kontenhub/cms/internal/models"

type UpdateRoleDTO struct {
	Role string `json:"role" binding:"required"`
}

type UpdateProfileDTO struct {
	Name    *string `json:"name"`
	Avatar  *string `json:"avatar"`
	Bio     *string `json:"bio"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

// ProfileView is an account together with its profile.
type ProfileView struct {
	User    *models.UserModel    `json:"user"`
	Profile *models.ProfileModel `json:"profile"`
}
