package media

import (
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/pagination"
	"github.com/kontenhub/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	g := rg.Group("/media", authMW)
	g.GET("", h.list)

	w := g.Group("")
	w.Use(writeMW...)
	w.POST("", h.upload)
	w.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(c.Request.Context(), middleware.CurrentPrincipal(c), pagination.FromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, pag)
}

// upload accepts a single "file" part or any number of "files" parts.
func (h *Handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "multipart form is required")
		return
	}
	var parts []*multipart.FileHeader
	parts = append(parts, form.File["file"]...)
	parts = append(parts, form.File["files"]...)
	if len(parts) == 0 {
		response.BadRequest(c, "file is required")
		return
	}

	p := middleware.CurrentPrincipal(c)
	assets := make([]models.MediaAsset, 0, len(parts))
	for _, fh := range parts {
		f, err := fh.Open()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		asset, err := h.svc.Store(c.Request.Context(), p, Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
		_ = f.Close()
		if err != nil {
			response.Error(c, err)
			return
		}
		assets = append(assets, *asset)
	}
	if len(assets) == 1 {
		response.Created(c, assets[0])
		return
	}
	response.Created(c, gin.H{"data": assets})
}

func (h *Handler) delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), uint(id)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "media deleted")
}
