package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/config"
	"github.com/kontenhub/cms/internal/database"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/pkg/jwt"
	pkgredis "github.com/kontenhub/cms/internal/pkg/redis"
	"github.com/kontenhub/cms/internal/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	redis   *pkgredis.Client
	storage storage.Driver
	signer  *jwt.Signer
	logger  *zap.Logger
	started time.Time
}

// Deps are the connections an App is built on.
type Deps struct {
	DB      *gorm.DB
	Redis   *pkgredis.Client // nil disables caching and rate limiting
	Storage storage.Driver
}

// New initializes the application: DB → Redis → storage → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, running without content cache and rate limiting", zap.Error(err))
	}

	driver, err := storage.New(cfg)
	if err != nil {
		_ = database.Close(db)
		_ = rc.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	return NewWithDeps(logger, cfg, Deps{DB: db, Redis: rc, Storage: driver}), nil
}

// NewWithDeps builds the router on already opened connections.
func NewWithDeps(logger *zap.Logger, cfg *config.AppConfig, deps Deps) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	signer := jwt.NewSigner(cfg.JWTSecret, jwt.DefaultTTL)
	if signer.UsesDefaultSecret() {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	a := &App{
		cfg:     cfg,
		router:  router,
		db:      deps.DB,
		redis:   deps.Redis,
		storage: deps.Storage,
		signer:  signer,
		logger:  logger,
		started: time.Now(),
	}
	a.registerRoutes()
	return a
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown closes the database pool and the Redis client.
func (a *App) Shutdown() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
}
