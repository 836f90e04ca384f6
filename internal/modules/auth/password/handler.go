package password

import (
	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /password; limitMW throttles both endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limitMW ...gin.HandlerFunc) {
	p := rg.Group("/password", limitMW...)
	p.POST("/forgot-password", h.forgot)
	p.POST("/reset-password/:token", h.reset)
}

func (h *Handler) forgot(c *gin.Context) {
	var dto ForgotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Forgot(c.Request.Context(), dto.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "if the address is registered, a reset link is on its way")
}

func (h *Handler) reset(c *gin.Context) {
	var dto ResetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Reset(c.Request.Context(), c.Param("token"), dto.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "password updated")
}
