package imgutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/prisma-image-kit/pkg/utils"
)

// DownloadFileName はユーザーが保存する生成画像のファイル名を返します。
func DownloadFileName(now time.Time) string {
	return fmt.Sprintf("prisma-ai-generated-%d.png", now.UnixMilli())
}

// SaveDataURI は生成画像の data URI を dir 配下に保存し、書き込んだパスを返します。
func SaveDataURI(dir, dataURI string, now time.Time) (string, error) {
	data, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}

	path := filepath.Join(dir, DownloadFileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("画像の保存に失敗しました: %w", err)
	}
	return path, nil
}
