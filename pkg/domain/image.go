package domain

import (
	"errors"
	"strings"

	"github.com/shouni/prisma-image-kit/pkg/utils"
)

const (
	// DefaultAspectRatio は生成画像のアスペクト比です。UI 側から変更する手段はありません。
	DefaultAspectRatio = "1:1"
	// DefaultAnalysisPrompt はプロンプト未入力時に解析へ渡す指示文です。
	DefaultAnalysisPrompt = "Describe this image in detail."
)

// バリデーションエラー。これらが返った場合、サービス呼び出しを行ってはいけません。
var (
	ErrEmptyPrompt = errors.New("prompt must not be blank")
	ErrNoImage     = errors.New("an image must be selected")
)

// GenerationRequest は1回の画像生成操作に対応する要求です。
// 構築後は変更せず、呼び出し完了とともに破棄します。
type GenerationRequest struct {
	Prompt      string
	AspectRatio string
}

// AnalysisRequest は1回の画像解析操作に対応する要求です。
// ImageData は data URI 宣言を含まない base64 文字列です。
type AnalysisRequest struct {
	ImageData string
	MIMEType  string
	Prompt    string
}

// BuildGenerationRequest はプロンプトから生成要求を組み立てます。
// 前後の空白を除いて空の場合は ErrEmptyPrompt を返します。プロンプト自体は加工しません。
func BuildGenerationRequest(prompt string) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, ErrEmptyPrompt
	}
	return GenerationRequest{
		Prompt:      prompt,
		AspectRatio: DefaultAspectRatio,
	}, nil
}

// BuildAnalysisRequest はエンコード済み画像から解析要求を組み立てます。
// 上流で付与された data URI 宣言は取り除き、空のプロンプトには既定の指示文を補います。
func BuildAnalysisRequest(encodedImage, mimeType, prompt string) (AnalysisRequest, error) {
	data := utils.StripDataURIPrefix(encodedImage)
	if strings.TrimSpace(data) == "" {
		return AnalysisRequest{}, ErrNoImage
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultAnalysisPrompt
	}
	return AnalysisRequest{
		ImageData: data,
		MIMEType:  mimeType,
		Prompt:    prompt,
	}, nil
}
