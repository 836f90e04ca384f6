package user

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /users (adminMW guarded) and /profile.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	u := rg.Group("/users", authMW, adminMW)
	u.GET("", h.list)
	u.PUT("/:id/role", h.updateRole)

	p := rg.Group("/profile", authMW)
	p.GET("", h.profile)
	p.PUT("", h.updateProfile)
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, users)
}

func (h *Handler) updateRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return
	}
	var dto UpdateRoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateRole(c.Request.Context(), uint(id), dto.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) profile(c *gin.Context) {
	view, err := h.svc.Profile(c.Request.Context(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	view, err := h.svc.UpdateProfile(c.Request.Context(), middleware.CurrentPrincipal(c).ID, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
