package field

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

// RegisterRoutes mounts field CRUD under rg (the /content-builder group).
// GET /field/:id lists the fields of model :id; the other verbs take a field id.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	g := rg.Group("/field", authMW)
	g.GET("/:id", h.listForModel)

	w := g.Group("")
	w.Use(writeMW...)
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) listForModel(c *gin.Context) {
	modelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid model id")
		return
	}
	fields, err := h.svc.ListForModel(c.Request.Context(), uint(modelID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fields)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateFieldDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.svc.Add(c.Request.Context(), middleware.CurrentPrincipal(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, f)
}

func (h *Handler) update(c *gin.Context) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var dto UpdateFieldDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.svc.Update(c.Request.Context(), middleware.CurrentPrincipal(c), id, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, f)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "field deleted")
}
