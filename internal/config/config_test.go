package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultDSN(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, StorageLocal, cfg.Storage.Driver)
	assert.True(t, strings.HasPrefix(cfg.DSN, "root@tcp(127.0.0.1:3306)/cms?"), cfg.DSN)
	assert.Contains(t, cfg.DSN, "parseTime=true")
	assert.Contains(t, cfg.DSN, "charset=utf8mb4")
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: prod
database:
  host: db.internal
  user: cms
  password: secret
  name: content
redis:
  url: cache:6380
allowed_origins:
  - "https://a.example/, https://b.example"
  - https://a.example
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.True(t, strings.HasPrefix(cfg.DSN, "cms:secret@tcp(db.internal:3306)/content?"), cfg.DSN)
	assert.Equal(t, "redis://cache:6380", cfg.RedisURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "prot: 8080\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DSN", "u:p@tcp(x:1)/y")
	t.Setenv("EMAIL_USER", "mailer@example.com")
	t.Setenv("CORS_ORIGINS", "https://one.example,https://two.example/")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(writeConfig(t, "port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "u:p@tcp(x:1)/y", cfg.DSN)
	assert.True(t, cfg.Mail.Enable)
	assert.Equal(t, "mailer@example.com", cfg.Mail.User)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
		ok     bool
	}{
		{"defaults", func(*AppConfig) {}, true},
		{"bad port", func(c *AppConfig) { c.Port = 70000 }, false},
		{"bad redis db", func(c *AppConfig) { c.Redis.DB = -1 }, false},
		{"unknown storage", func(c *AppConfig) { c.Storage.Driver = "ftp" }, false},
		{"s3 incomplete", func(c *AppConfig) { c.Storage.Driver = StorageS3 }, false},
		{"s3 complete", func(c *AppConfig) {
			c.Storage.Driver = StorageS3
			c.Storage.S3.Bucket = "b"
			c.Storage.S3.AccessKey = "k"
			c.Storage.S3.SecretKey = "s"
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRedisURLValue(t *testing.T) {
	assert.Equal(t, "rediss://:pw@r.example:6390/2",
		RedisConfig{Host: "r.example", Port: 6390, Password: "pw", DB: 2, TLS: true}.URLValue())
	assert.Equal(t, "redis://localhost:6379/0", RedisConfig{}.URLValue())
}

func TestResolveRuntimePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "up")
	assert.Equal(t, abs, ResolveRuntimePath(abs, "uploads"))

	rel := ResolveRuntimePath("", "uploads")
	assert.True(t, filepath.IsAbs(rel))
	assert.Equal(t, "uploads", filepath.Base(rel))
}
