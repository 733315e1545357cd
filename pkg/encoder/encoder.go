// Package encoder は、ユーザーが選択した画像をサービスへ転送できる base64 文字列に変換します。
package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/shouni/prisma-image-kit/pkg/domain"
	"github.com/shouni/prisma-image-kit/pkg/utils"
)

// MaxImageBytes は1枚の画像として受け付ける上限サイズです。
const MaxImageBytes = 20 << 20

var (
	// ErrNotImage は画像ではないリソースが渡されたことを示します。
	ErrNotImage = errors.New("please upload a valid image file")
	// ErrImageTooLarge は MaxImageBytes を超えたことを示します。
	ErrImageTooLarge = errors.New("image exceeds the maximum upload size")
)

// DetectImage は画像であることを確認し、送信に使う MIME タイプを返します。
// 中身の判定を優先し、判定できない場合に限り image/* の申告値を採用します。
func DetectImage(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrNoImage
	}

	detected := mimetype.Detect(data).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if strings.HasPrefix(detected, "image/") {
		return detected, nil
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if detected == "application/octet-stream" && strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	return "", fmt.Errorf("%w (detected: %s)", ErrNotImage, detected)
}

// Encode はバイト列を data URI 宣言なしの base64 に変換します。
func Encode(data []byte, mimeType string) domain.EncodedMedia {
	return domain.EncodedMedia{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}

// ReadLimited は r を MaxImageBytes まで読み込みます。上限を超えた場合は ErrImageTooLarge を返します。
func ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// EncodeReader は r を最後まで読み込み、1回の呼び出しで転送用文字列を返します。
func EncodeReader(r io.Reader, mimeType string) (domain.EncodedMedia, error) {
	data, err := ReadLimited(r)
	if err != nil {
		return domain.EncodedMedia{}, err
	}
	return Encode(data, mimeType), nil
}

// EncodeString は既にテキスト化された画像（FileReader 由来の data URI など）を受け取り、
// 重複した宣言を取り除いた形に正規化します。
func EncodeString(encoded, mimeType string) domain.EncodedMedia {
	return domain.EncodedMedia{
		Data:     utils.StripDataURIPrefix(strings.TrimSpace(encoded)),
		MIMEType: mimeType,
	}
}
