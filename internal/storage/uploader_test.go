package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/config"
)

// pngHeader is enough of a PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestUploader(t *testing.T, maxBytes int64) *Uploader {
	t.Helper()
	cfg := config.Config{Upload: config.Upload{
		Dir:          t.TempDir(),
		PublicPrefix: "/public/uploads",
		MaxBytes:     maxBytes,
	}}
	return NewUploader(cfg, zap.NewNop())
}

func TestSaveStoresPNG(t *testing.T) {
	u := newTestUploader(t, 1<<20)

	public, err := u.Save(context.Background(), bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(public, "/public/uploads/"))
	assert.True(t, strings.HasSuffix(public, ".png"))

	stored, err := os.ReadFile(filepath.Join(u.Dir(), filepath.Base(public)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	require.NoError(t, u.Remove("http://localhost:8080"+public))
	_, err = os.Stat(filepath.Join(u.Dir(), filepath.Base(public)))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsOtherTypes(t *testing.T) {
	u := newTestUploader(t, 1<<20)

	_, err := u.Save(context.Background(), strings.NewReader("plain text is not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = u.Save(context.Background(), bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSaveEnforcesLimit(t *testing.T) {
	u := newTestUploader(t, 8)

	_, err := u.Save(context.Background(), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	u := newTestUploader(t, 1<<20)

	assert.NoError(t, u.Remove("https://cdn.example.com/logo.png"))
	assert.NoError(t, u.Remove("/public/uploads/../secret"))
}
