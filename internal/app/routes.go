package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/modules/auth/auth"
	"github.com/kontenhub/cms/internal/modules/auth/password"
	"github.com/kontenhub/cms/internal/modules/auth/user"
	"github.com/kontenhub/cms/internal/modules/billing"
	"github.com/kontenhub/cms/internal/modules/builder/field"
	"github.com/kontenhub/cms/internal/modules/builder/model"
	"github.com/kontenhub/cms/internal/modules/collaborator"
	"github.com/kontenhub/cms/internal/modules/content/content"
	"github.com/kontenhub/cms/internal/modules/notification"
	"github.com/kontenhub/cms/internal/modules/storage/media"
	"github.com/kontenhub/cms/internal/pkg/cache"
	"github.com/kontenhub/cms/internal/pkg/mail"
	"github.com/kontenhub/cms/internal/pkg/response"
	"github.com/kontenhub/cms/internal/pkg/storage"
)

const (
	apiPrefix       = "/api"
	passwordLimit   = 5
	loginLimit      = 20
	rateLimitWindow = time.Minute
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	authMW := middleware.Auth(a.signer)
	readMW := middleware.OptionalAuth(a.signer)
	writeMW := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor)
	adminMW := middleware.RequireRoles(models.RoleAdmin)

	// Shared services
	policy := access.NewPolicy(db)
	contentCache := cache.NewContent(a.redis, time.Duration(a.cfg.CacheTTLSec)*time.Second, a.logger)
	notifySvc := notification.NewService(db)
	modelSvc := model.NewService(db, policy, contentCache)
	fieldSvc := field.NewService(db, modelSvc, contentCache)
	contentSvc := content.NewService(db, modelSvc, fieldSvc, policy, a.logger,
		content.WithCache(contentCache), content.WithNotifier(notifySvc))

	mailer := mail.New(mail.FromApp(a.cfg.Mail))
	if !mailer.Enabled() {
		a.logger.Warn("mail is disabled, password reset links will not be delivered")
	}

	if local, ok := a.storage.(*storage.Local); ok {
		r.Static(storage.LocalURLPrefix, local.Dir())
		r.Static(apiPrefix+storage.LocalURLPrefix, local.Dir())
	}

	api := r.Group(apiPrefix)

	api.GET("", a.info)
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", a.uptime)

	// Accounts
	auth.NewHandler(auth.NewService(db, a.signer)).
		RegisterRoutes(api.Group("", middleware.RateLimit(a.redis, loginLimit, rateLimitWindow)), authMW)
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW, adminMW)
	password.NewHandler(password.NewService(db, mailer, a.cfg.FrontendURL, a.logger)).
		RegisterRoutes(api, middleware.RateLimit(a.redis, passwordLimit, rateLimitWindow))

	// Content builder
	builder := api.Group("/content-builder")
	model.NewHandler(modelSvc).RegisterRoutes(builder, authMW, writeMW)
	field.NewHandler(fieldSvc).RegisterRoutes(builder, authMW, writeMW)

	contentHandler := content.NewHandler(contentSvc, a.storage, a.logger)
	contentHandler.RegisterRoutes(api.Group("/content"), authMW, readMW, writeMW, writeMW)
	contentHandler.RegisterAlias(builder, readMW)

	// Workspace
	collaborator.NewHandler(collaborator.NewService(db, policy, modelSvc, notifySvc, a.logger)).
		RegisterRoutes(api, authMW, writeMW)
	media.NewHandler(media.NewService(db, a.storage, a.logger)).RegisterRoutes(api, authMW, writeMW)
	notification.NewHandler(notifySvc).RegisterRoutes(api)
	billing.NewHandler(billing.NewService(db)).RegisterRoutes(api, authMW, adminMW)
}

func (a *App) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "kontenhub-cms",
		"version": "1.0.0",
		"env":     a.cfg.Env,
		"storage": a.storage.Name(),
	})
}

func (a *App) uptime(c *gin.Context) {
	up := time.Since(a.started)
	c.JSON(http.StatusOK, gin.H{
		"timestamp": up.Milliseconds(),
		"humanize":  humanizeDuration(up),
	})
}
