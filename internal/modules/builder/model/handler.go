package model

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

// RegisterRoutes mounts the model registry under rg (the /content-builder
// group). writeMW guards every mutation.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	rg.GET("", authMW, h.list)
	rg.GET("/model/:slug", h.getBySlug)

	w := rg.Group("/model", authMW)
	w.Use(writeMW...)
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), middleware.CurrentPrincipal(c), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) getBySlug(c *gin.Context) {
	m, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateModelDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.Create(c.Request.Context(), middleware.CurrentPrincipal(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdateModelDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.Update(c.Request.Context(), middleware.CurrentPrincipal(c), id, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.CurrentPrincipal(c)
	var err error
	if cascade, _ := strconv.ParseBool(c.Query("cascade")); cascade {
		err = h.svc.DeleteCascade(c.Request.Context(), p, id)
	} else {
		err = h.svc.Delete(c.Request.Context(), p, id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "content model deleted")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
