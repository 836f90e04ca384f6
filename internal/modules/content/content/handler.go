package content

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/document"
	"github.com/kontenhub/cms/internal/pkg/response"
	"github.com/kontenhub/cms/internal/pkg/storage"
	"go.uber.org/zap"
)

// maxMultipartMemory bounds the in-memory part of a multipart body; larger
// parts spill to temp files.
const maxMultipartMemory = 32 << 20

type Handler struct {
	svc     *Service
	storage storage.Driver
	log     *zap.Logger
}

func NewHandler(svc *Service, driver storage.Driver, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, storage: driver, log: log}
}

// RegisterRoutes mounts the content store under rg (the /content group).
// readMW runs on the public fetch. writeMW guards every mutation.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, readMW, listMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	rg.GET("", authMW, listMW, h.list)
	rg.GET("/:slug", readMW, h.get)

	w := rg.Group("", authMW)
	w.Use(writeMW...)
	w.POST("/:slug", h.create)
	w.PUT("/:slug", h.update)
}

// RegisterAlias mounts the public read-only alias used by the builder UI.
func (h *Handler) RegisterAlias(rg *gin.RouterGroup, readMW gin.HandlerFunc) {
	rg.GET("/content/:slug", readMW, h.get)
}

func (h *Handler) list(c *gin.Context) {
	rows, err := h.svc.ListAll(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if strings.EqualFold(c.Query("render"), "html") {
		Render(view)
	}
	response.OK(c, view)
}

func (h *Handler) create(c *gin.Context) {
	h.write(c, h.svc.Create)
}

func (h *Handler) update(c *gin.Context) {
	h.write(c, h.svc.Update)
}

type writeFunc func(ctx context.Context, p access.Principal, slug string, in WriteInput) (*DocumentView, error)

func (h *Handler) write(c *gin.Context, fn writeFunc) {
	ctx := c.Request.Context()
	in, stored, ok := h.bindInput(c)
	if !ok {
		return
	}
	doc, err := fn(ctx, middleware.CurrentPrincipal(c), c.Param("slug"), in)
	if err != nil {
		h.discard(ctx, stored)
		response.Error(c, err)
		return
	}
	if c.Request.Method == http.MethodPost {
		response.Created(c, doc)
		return
	}
	response.OK(c, doc)
}

// bindInput reads a multipart form or a JSON object body. Files are stored
// as they are read; their references are returned so a failed write can
// remove them again.
func (h *Handler) bindInput(c *gin.Context) (WriteInput, []string, bool) {
	in := WriteInput{Fields: document.Document{}, Uploads: map[string][]string{}}

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		body := document.Document{}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				response.BadRequest(c, "body must be a JSON object or multipart form")
				return in, nil, false
			}
		}
		if raw, ok := body["status"]; ok {
			status, isString := raw.(string)
			if !isString {
				response.BadRequest(c, "status must be a string")
				return in, nil, false
			}
			in.Status = status
			delete(body, "status")
		}
		in.Fields = body
		return in, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "invalid multipart form: "+err.Error())
		return in, nil, false
	}
	for key, values := range form.Value {
		if key == "status" {
			if len(values) > 0 {
				in.Status = strings.TrimSpace(values[len(values)-1])
			}
			continue
		}
		switch len(values) {
		case 0:
		case 1:
			in.Fields[key] = document.ParseFieldValue(values[0])
		default:
			list := make([]any, 0, len(values))
			for _, v := range values {
				list = append(list, document.ParseFieldValue(v))
			}
			in.Fields[key] = list
		}
	}

	var stored []string
	for key, files := range form.File {
		for _, fh := range files {
			ref, err := h.store(c.Request.Context(), fh)
			if err != nil {
				h.discard(c.Request.Context(), stored)
				h.log.Error("store upload failed", zap.String("field", key), zap.String("file", fh.Filename), zap.Error(err))
				response.InternalError(c, err)
				return in, nil, false
			}
			stored = append(stored, ref)
			in.Uploads[key] = append(in.Uploads[key], ref)
		}
	}
	return in, stored, true
}

func (h *Handler) store(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.storage.Put(ctx, storage.Object{
		Name:        storage.BuildFileName(fh.Filename, time.Now()),
		ContentType: storage.ContentType(fh.Filename, fh.Header.Get("Content-Type")),
		Size:        fh.Size,
		Body:        f,
	})
}

func (h *Handler) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := h.storage.Delete(ctx, ref); err != nil {
			h.log.Warn("remove orphaned upload failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}
