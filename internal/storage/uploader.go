package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
)

var (
	// ErrUnsupportedType is returned for uploads that are not png or jpeg images.
	ErrUnsupportedType = errors.New("only png and jpeg images are allowed")
	// ErrTooLarge is returned for uploads above the configured limit.
	ErrTooLarge = errors.New("file exceeds the upload limit")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("file is empty")
)

var allowedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
}

// Module provides the image uploader.
var Module = fx.Provide(NewUploader)

// Uploader stores images on local disk under a directory served publicly.
type Uploader struct {
	dir      string
	prefix   string
	maxBytes int64
	logger   *zap.Logger
}

// NewUploader builds an uploader from the upload configuration.
func NewUploader(cfg config.Config, logger *zap.Logger) *Uploader {
	return &Uploader{
		dir:      cfg.Upload.Dir,
		prefix:   cfg.Upload.PublicPrefix,
		maxBytes: cfg.Upload.MaxBytes,
		logger:   logger,
	}
}

// Dir is the directory files are written to.
func (u *Uploader) Dir() string {
	return u.dir
}

// Save sniffs the content type, writes the file under a random name and
// returns its public path, e.g. /public/uploads/<uuid>.png.
func (u *Uploader) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > u.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if _, ok := allowedTypes[mtype.String()]; !ok {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, mtype.String())
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	dst := filepath.Join(u.dir, name)
	if err := writeFile(dst, data); err != nil {
		return "", err
	}

	if u.logger != nil {
		u.logger.Info("upload stored", zap.String("file", name), zap.String("type", mtype.String()), zap.Int("bytes", len(data)))
	}
	return path.Join(u.prefix, name), nil
}

// Remove deletes a file previously returned by Save. Paths outside the
// public prefix are ignored.
func (u *Uploader) Remove(publicPath string) error {
	name, ok := u.fileName(publicPath)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(u.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// fileName extracts the stored file name from a public path or absolute URL.
func (u *Uploader) fileName(publicPath string) (string, bool) {
	idx := strings.Index(publicPath, u.prefix+"/")
	if idx < 0 {
		return "", false
	}
	name := publicPath[idx+len(u.prefix)+1:]
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", false
	}
	return name, true
}

func writeFile(dst string, data []byte) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}
