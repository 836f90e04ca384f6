package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kontenhub/cms/internal/config"
)

// LocalURLPrefix is the public path local uploads are served under.
const LocalURLPrefix = "/uploads"

// Local writes files into a directory on disk.
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal creates dir if needed.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Name() string { return config.StorageLocal }

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(_ context.Context, obj Object) (string, error) {
	name := SafeName(obj.Name)
	if name == "" {
		return "", fmt.Errorf("invalid file name %q", obj.Name)
	}
	path := filepath.Join(l.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return l.urlPrefix + "/" + name, nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	rest := strings.TrimPrefix(ref, l.urlPrefix+"/")
	name := SafeName(rest)
	if name == "" || name != rest {
		return fmt.Errorf("invalid file reference %q", ref)
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
