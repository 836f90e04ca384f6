package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// envOverlay mirrors the environment variables the server honours. Empty or
// zero values leave the YAML/default value untouched.
type envOverlay struct {
	Port        int    `env:"PORT"`
	Env         string `env:"APP_ENV"`
	DBDSN       string `env:"DB_DSN"`
	DBHost      string `env:"DB_HOST"`
	DBPort      int    `env:"DB_PORT"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	EmailHost   string `env:"EMAIL_HOST"`
	EmailPort   int    `env:"EMAIL_PORT"`
	EmailUser   string `env:"EMAIL_USER"`
	EmailPass   string `env:"EMAIL_PASS"`
	EmailFrom   string `env:"EMAIL_FROM"`
	FrontendURL string `env:"FRONTEND_URL"`
	UploadDir   string `env:"UPLOAD_DIR"`
	LogDir      string `env:"LOG_DIR"`
	CORSOrigins string `env:"CORS_ORIGINS"`
	CacheTTL    int    `env:"CACHE_TTL_SECONDS"`

	StorageDriver string `env:"STORAGE_DRIVER"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Region      string `env:"S3_REGION"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
	S3PublicURL   string `env:"S3_PUBLIC_URL"`
}

// applyEnv loads .env (if present) into the process environment and overlays
// every set variable onto cfg.
func applyEnv(cfg *AppConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var ov envOverlay
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	ov.apply(cfg)
	return nil
}

func (ov envOverlay) apply(cfg *AppConfig) {
	setInt(&cfg.Port, ov.Port)
	setString(&cfg.Env, ov.Env)

	setString(&cfg.Database.DSN, ov.DBDSN)
	setString(&cfg.Database.Host, ov.DBHost)
	setInt(&cfg.Database.Port, ov.DBPort)
	setString(&cfg.Database.User, ov.DBUser)
	setString(&cfg.Database.Password, ov.DBPassword)
	setString(&cfg.Database.Name, ov.DBName)

	setString(&cfg.Redis.URL, ov.RedisURL)
	setString(&cfg.JWTSecret, ov.JWTSecret)

	setString(&cfg.Mail.Host, ov.EmailHost)
	setInt(&cfg.Mail.Port, ov.EmailPort)
	setString(&cfg.Mail.User, ov.EmailUser)
	setString(&cfg.Mail.Pass, ov.EmailPass)
	setString(&cfg.Mail.From, ov.EmailFrom)
	if strings.TrimSpace(ov.EmailUser) != "" {
		cfg.Mail.Enable = true
	}

	setString(&cfg.FrontendURL, ov.FrontendURL)
	setString(&cfg.Paths.Uploads, ov.UploadDir)
	setString(&cfg.Paths.Logs, ov.LogDir)
	if strings.TrimSpace(ov.CORSOrigins) != "" {
		cfg.AllowedOrigins = []string{ov.CORSOrigins}
	}
	setInt(&cfg.CacheTTLSec, ov.CacheTTL)

	setString(&cfg.Storage.Driver, ov.StorageDriver)
	setString(&cfg.Storage.S3.Endpoint, ov.S3Endpoint)
	setString(&cfg.Storage.S3.Region, ov.S3Region)
	setString(&cfg.Storage.S3.Bucket, ov.S3Bucket)
	setString(&cfg.Storage.S3.AccessKey, ov.S3AccessKey)
	setString(&cfg.Storage.S3.SecretKey, ov.S3SecretKey)
	setString(&cfg.Storage.S3.PublicURL, ov.S3PublicURL)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
