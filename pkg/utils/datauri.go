package utils

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// PNGDataURIPrefix は UI に渡す生成画像の固定プレフィックスです。
const PNGDataURIPrefix = "data:image/png;base64,"

// imageDataURIPrefix は data:image/<subtype>;base64, 形式の先頭宣言にマッチします。
// subtype は jpeg / svg+xml / x-icon なども含めて大文字小文字を区別しません。
var imageDataURIPrefix = regexp.MustCompile(`(?i)^data:image/[a-z0-9.+-]+;base64,`)

// StripDataURIPrefix は先頭の data URI 宣言を取り除きます。
// 宣言がない文字列はそのまま返すため、何度呼んでも結果は変わりません。
func StripDataURIPrefix(s string) string {
	return imageDataURIPrefix.ReplaceAllString(s, "")
}

// HasDataURIPrefix は文字列が画像の data URI 宣言で始まっているかを返します。
func HasDataURIPrefix(s string) bool {
	return imageDataURIPrefix.MatchString(s)
}

// ToPNGDataURI は base64 ペイロードを PNG 宣言付きの data URI に包み直します。
func ToPNGDataURI(payload string) string {
	return PNGDataURIPrefix + payload
}

// DecodeDataURI は data URI（またはプレフィックスなしの base64）をバイト列に戻します。
func DecodeDataURI(s string) ([]byte, error) {
	payload := strings.TrimSpace(StripDataURIPrefix(strings.TrimSpace(s)))
	if payload == "" {
		return nil, fmt.Errorf("data URI にペイロードがありません")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("base64 のデコードに失敗しました: %w", err)
	}
	return data, nil
}
