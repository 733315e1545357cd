package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/prisma-image-kit/pkg/config"
	"github.com/shouni/prisma-image-kit/pkg/encoder"
)

func TestRun_RequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRun_RequiresAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	t.Chdir(t.TempDir())

	err := run(context.Background(), []string{"serve"})
	assert.ErrorIs(t, err, config.ErrAPIKeyRequired)
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()

	t.Run("PNG ファイルを読み込む", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
		path := filepath.Join(dir, "photo.png")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		media, err := readImage(path)
		require.NoError(t, err)
		assert.Equal(t, "image/png", media.MIMEType)
		assert.NotEmpty(t, media.Data)
	})

	t.Run("画像でないファイルは拒否する", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

		_, err := readImage(path)
		assert.ErrorIs(t, err, encoder.ErrNotImage)
	})

	t.Run("パス未指定はエラー", func(t *testing.T) {
		_, err := readImage("")
		assert.Error(t, err)
	})
}
