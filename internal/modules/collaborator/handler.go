package collaborator

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	g := rg.Group("/collaborators", authMW)
	g.GET("", h.list)
	g.GET("/invitations", h.invitations)
	g.PUT("/:id/accept", h.accept)

	w := g.Group("")
	w.Use(writeMW...)
	w.POST("", h.invite)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) invitations(c *gin.Context) {
	rows, err := h.svc.Invitations(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) invite(c *gin.Context) {
	var dto InviteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.svc.Invite(c.Request.Context(), middleware.CurrentPrincipal(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

func (h *Handler) accept(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := h.svc.Accept(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.svc.Update(c.Request.Context(), middleware.CurrentPrincipal(c), id, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "collaborator removed")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
