// Package storage persists uploaded files on local disk or in an
// S3-compatible bucket and hands back the reference stored in documents.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kontenhub/cms/internal/config"
)

// Object describes one file to store.
type Object struct {
	Name        string // generated file name, see BuildFileName
	ContentType string
	Size        int64
	Body        io.Reader
}

// Driver stores and removes uploaded files.
type Driver interface {
	// Name is "local" or "s3".
	Name() string
	// Put stores obj and returns its public reference.
	Put(ctx context.Context, obj Object) (string, error)
	// Delete removes the file behind a reference previously returned by Put.
	Delete(ctx context.Context, ref string) error
}

// New picks the driver configured in cfg.
func New(cfg *config.AppConfig) (Driver, error) {
	switch cfg.Storage.Driver {
	case config.StorageS3:
		return NewS3(cfg.Storage.S3)
	case config.StorageLocal, "":
		return NewLocal(cfg.UploadDir(), LocalURLPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// BuildFileName generates a collision-resistant name that keeps the original
// extension: "<unix millis>-<random>.<ext>".
func BuildFileName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 || !isSafeSegment(strings.TrimPrefix(ext, ".")) {
		ext = ".dat"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + random + ext
}

// ContentType returns header when set, else guesses from the file extension.
func ContentType(filename, header string) string {
	if ct := strings.TrimSpace(header); ct != "" {
		return ct
	}
	if guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); guessed != "" {
		return guessed
	}
	return "application/octet-stream"
}

// SafeName returns the base name of raw, or "" when it is not a plain file name.
func SafeName(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "." || name == "/" || name == ".." || !isSafeSegment(name) {
		return ""
	}
	return name
}

func isSafeSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
