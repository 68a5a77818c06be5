// Package uploads stores project and report images on local disk or in an
// S3-compatible bucket.
package uploads

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/efren319/GovFunds/internal/apperrors"
)

// ImageDir is the key prefix every image is stored under.
const ImageDir = "images/projects"

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// Kind decides the stored name prefix.
type Kind string

const (
	KindProject Kind = ""
	KindReport  Kind = "report_"
)

// Backend is the byte store behind Manager.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Manager names, validates and stores uploaded images.
type Manager struct {
	backend Backend
	log     *zap.Logger
	now     func() time.Time
}

func NewManager(backend Backend, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{backend: backend, log: log, now: time.Now}
}

// CheckExtension rejects filenames whose extension is not an allowed image type.
func CheckExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if !allowedExtensions[ext] {
		return apperrors.Invalid("image", "must be a png, jpg, jpeg, gif or webp file")
	}
	return nil
}

// SanitizeFilename reduces name to a safe ASCII basename. Accented letters
// keep their base letter.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(norm.NFKD.String(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// Key builds the stored object key, e.g. images/projects/report_1714521600_photo.png.
func Key(kind Kind, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s%d_%s", ImageDir, kind, now.Unix(), SanitizeFilename(filename))
}

// Save stores fh and returns its key. An empty key with a nil error means no file was sent.
func (m *Manager) Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", nil
	}
	if err := CheckExtension(fh.Filename); err != nil {
		return "", err
	}
	if SanitizeFilename(fh.Filename) == "" {
		return "", apperrors.Invalid("image", "file name is not usable")
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := Key(kind, fh.Filename, m.now())
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}

	if err := m.backend.Put(ctx, key, f, contentType); err != nil {
		return "", fmt.Errorf("store upload %s: %w", key, err)
	}
	m.log.Info("image stored", zap.String("key", key), zap.Int64("size", fh.Size))
	return key, nil
}

// Remove deletes key, logging instead of failing. Empty keys are ignored.
func (m *Manager) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.backend.Delete(ctx, key); err != nil {
		m.log.Warn("failed to remove image", zap.String("key", key), zap.Error(err))
	}
}

// URL returns the public address of key, or "" for an empty key.
func (m *Manager) URL(key string) string {
	if key == "" {
		return ""
	}
	return m.backend.URL(key)
}
