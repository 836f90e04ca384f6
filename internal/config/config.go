package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 5000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = ""
	defaultDBName     = "cms"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultMaxConns   = 10
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultSMTPPort   = 587
	defaultFrontend   = "http://localhost:3000"
	defaultUploadDir  = "uploads"
	defaultLogDir     = "logs"
	defaultS3Region   = "us-east-1"
	defaultCacheTTL   = 30

	StorageLocal = "local"
	StorageS3    = "s3"
)

// AppConfig holds runtime startup configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"-"`
	RedisURL       string         `yaml:"-"`
	Database       DatabaseConfig `yaml:"database"`
	Redis          RedisConfig    `yaml:"redis"`
	JWTSecret      string         `yaml:"jwt_secret"`
	FrontendURL    string         `yaml:"frontend_url"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Mail           MailConfig     `yaml:"mail"`
	Storage        StorageConfig  `yaml:"storage"`
	Paths          PathsConfig    `yaml:"paths"`
	CacheTTLSec    int            `yaml:"cache_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN          string            `yaml:"dsn"`
	Host         string            `yaml:"host"`
	Port         int               `yaml:"port"`
	User         string            `yaml:"user"`
	Password     string            `yaml:"password"`
	Name         string            `yaml:"name"`
	Charset      string            `yaml:"charset"`
	ParseTime    bool              `yaml:"parse_time"`
	Loc          string            `yaml:"loc"`
	MaxOpenConns int               `yaml:"max_open_conns"`
	Params       map[string]string `yaml:"params"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type MailConfig struct {
	Enable bool   `yaml:"enable"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Pass   string `yaml:"pass"`
	From   string `yaml:"from"`
}

type StorageConfig struct {
	Driver string   `yaml:"driver"` // "local" | "s3"
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"`
}

type PathsConfig struct {
	Logs    string `yaml:"logs"`
	Uploads string `yaml:"uploads"`
}

// Load reads the YAML file at configPath (a missing file is tolerated), then
// applies .env and process environment overrides, then validates.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.finalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() AppConfig {
	cfg := AppConfig{
		Port:        defaultPort,
		Env:         defaultEnv,
		FrontendURL: defaultFrontend,
		CacheTTLSec: defaultCacheTTL,
		Database: DatabaseConfig{
			Host:         defaultDBHost,
			Port:         defaultDBPort,
			User:         defaultDBUser,
			Password:     defaultDBPassword,
			Name:         defaultDBName,
			Charset:      defaultDBCharset,
			ParseTime:    true,
			Loc:          defaultDBLoc,
			MaxOpenConns: defaultMaxConns,
		},
		Redis: RedisConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		Mail: MailConfig{
			Port: defaultSMTPPort,
		},
		Storage: StorageConfig{
			Driver: StorageLocal,
			S3:     S3Config{Region: defaultS3Region},
		},
		Paths: PathsConfig{
			Logs:    defaultLogDir,
			Uploads: defaultUploadDir,
		},
	}
	cfg.finalize()
	return cfg
}

// finalize derives computed values after every source has been applied.
func (c *AppConfig) finalize() {
	c.Env = normalizeEnv(c.Env)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageLocal
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaultMaxConns
	}
	if c.CacheTTLSec < 0 {
		c.CacheTTLSec = 0
	}
	c.FrontendURL = strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/")
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)
	c.DSN = c.Database.DSNValue()
	c.RedisURL = c.Redis.URLValue()
}

// Validate checks ranges and required combinations.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		s3 := c.Storage.S3
		if s3.Bucket == "" || s3.AccessKey == "" || s3.SecretKey == "" {
			return errors.New("storage.s3 requires bucket, access_key and secret_key")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q, expected local or s3", c.Storage.Driver)
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env == "development" }

// LogDir returns the resolved log directory.
func (c *AppConfig) LogDir() string { return ResolveRuntimePath(c.Paths.Logs, defaultLogDir) }

// UploadDir returns the resolved local upload directory.
func (c *AppConfig) UploadDir() string {
	return ResolveRuntimePath(c.Paths.Uploads, defaultUploadDir)
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return "production"
	case "test":
		return "test"
	default:
		return defaultEnv
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			o := strings.TrimRight(strings.TrimSpace(part), "/")
			if o == "" {
				continue
			}
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			out = append(out, o)
		}
	}
	return out
}
